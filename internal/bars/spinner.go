package bars

import (
	"fmt"

	"github.com/mattn/go-runewidth"

	"github.com/temirov/stati/internal/progress"
)

const (
	// DefaultSpinnerFrames are the braille frames the spinner cycles through.
	DefaultSpinnerFrames = "⠁⠁⠉⠙⠚⠒⠂⠂⠒⠲⠴⠤⠄⠄⠤⠠⠠⠤⠦⠖⠒⠐⠐⠒⠓⠋⠉⠈⠈ "

	spinnerLineTemplate = "%c %s: %s"
)

// Spinner shows an animated frame, the job name and the current subtask. It
// advances one frame per Display. Lines wider than the terminal are truncated
// so each frame occupies one row.
type Spinner struct {
	frames       []rune
	currentFrame int
	name         string
	subtask      string
	closeMethod  progress.CloseMethod
	finished     bool
	layout       Layout
}

// SpinnerBuilder configures a Spinner.
type SpinnerBuilder struct {
	name        string
	subtask     string
	frames      string
	closeMethod progress.CloseMethod
	layout      Layout
}

// NewSpinnerBuilder starts a spinner named name that clears itself when finished.
func NewSpinnerBuilder(name string) *SpinnerBuilder {
	return &SpinnerBuilder{name: name, frames: DefaultSpinnerFrames, closeMethod: progress.CloseMethodClear}
}

// Subtask sets the initial subtask text.
func (builder *SpinnerBuilder) Subtask(subtask string) *SpinnerBuilder {
	builder.subtask = subtask
	return builder
}

// Frames replaces the animation frames, one rune per frame. Empty input keeps the defaults.
func (builder *SpinnerBuilder) Frames(frames string) *SpinnerBuilder {
	if len(frames) > 0 {
		builder.frames = frames
	}
	return builder
}

// CloseMethod sets what happens to the spinner line once finished.
func (builder *SpinnerBuilder) CloseMethod(closeMethod progress.CloseMethod) *SpinnerBuilder {
	builder.closeMethod = closeMethod
	return builder
}

// Style sets the finished-frame style.
func (builder *SpinnerBuilder) Style(style Style) *SpinnerBuilder {
	builder.layout.Style = style
	return builder
}

// Layout sets the terminal width source and finished-frame style.
func (builder *SpinnerBuilder) Layout(layout Layout) *SpinnerBuilder {
	builder.layout = layout
	return builder
}

// Build creates the Spinner.
func (builder *SpinnerBuilder) Build() *Spinner {
	return &Spinner{
		frames:      []rune(builder.frames),
		name:        sanitizeName(builder.name),
		subtask:     sanitizeName(builder.subtask),
		closeMethod: builder.closeMethod,
		layout:      builder.layout,
	}
}

// Done marks the spinner finished.
func (spinner *Spinner) Done() {
	spinner.finished = true
}

// IsDone reports whether the spinner is finished.
func (spinner *Spinner) IsDone() bool {
	return spinner.finished
}

// CloseMethod returns the configured close method.
func (spinner *Spinner) CloseMethod() progress.CloseMethod {
	return spinner.closeMethod
}

// SetName replaces the job name.
func (spinner *Spinner) SetName(name string) {
	spinner.name = sanitizeName(name)
}

// SetSubtask replaces the subtask text.
func (spinner *Spinner) SetSubtask(subtask string) {
	spinner.subtask = sanitizeName(subtask)
}

// Display advances the animation and renders the spinner line. A spinner
// without frames uses DefaultSpinnerFrames.
func (spinner *Spinner) Display() (string, error) {
	if len(spinner.frames) == 0 {
		spinner.frames = []rune(DefaultSpinnerFrames)
	}
	spinner.currentFrame = (spinner.currentFrame + 1) % len(spinner.frames)
	line := fmt.Sprintf(spinnerLineTemplate, spinner.frames[spinner.currentFrame], spinner.name, spinner.subtask)

	maximumColumns := spinner.layout.width() - customBarMarginColumnsConstant
	if maximumColumns < 1 {
		return "", ErrTerminalTooNarrow
	}
	line = runewidth.Truncate(line, maximumColumns, nameTruncationTailConstant)

	if spinner.finished {
		return spinner.layout.Style.finishedLine(line), nil
	}
	return line, nil
}
