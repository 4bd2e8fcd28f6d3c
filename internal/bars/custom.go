package bars

import (
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"

	"github.com/temirov/stati/internal/progress"
)

const (
	defaultFilledElementConstant = "="
	defaultEmptyElementConstant  = "-"
	defaultStartElementConstant  = "["
	defaultEndElementConstant    = "]"
	defaultUnitElementConstant   = "its"
	defaultCustomBarHintConstant = 100
	customBarPercentTemplate     = "%4d%%"
	customBarRateTemplate        = "%.3f"
	customBarRateSuffixConstant  = "/s"
	customBarGapConstant         = " "
	// one column stays free so the cursor never wraps at the right edge
	customBarMarginColumnsConstant = 1
)

// Clock supplies the time used for rate readouts.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}

// BarElements are the glyphs a CustomBar is drawn with.
type BarElements struct {
	Filled string
	Empty  string
	Start  string
	End    string
	Unit   string
}

// DefaultBarElements returns "[", "=", "-", "]" with the unit "its".
func DefaultBarElements() BarElements {
	return BarElements{
		Filled: defaultFilledElementConstant,
		Empty:  defaultEmptyElementConstant,
		Start:  defaultStartElementConstant,
		End:    defaultEndElementConstant,
		Unit:   defaultUnitElementConstant,
	}
}

// CustomBar renders "name [====----]  40% 12.500 its/s": the bar stretches to
// the terminal width and the rate is measured between consecutive displays.
type CustomBar struct {
	name         string
	progress     int
	sizeHint     int
	finished     bool
	elements     BarElements
	layout       Layout
	clock        Clock
	lastDisplay  time.Time
	lastProgress int
	closeMethod  progress.CloseMethod
}

// CustomBarBuilder configures a CustomBar.
type CustomBarBuilder struct {
	name        string
	hint        int
	elements    BarElements
	layout      Layout
	clock       Clock
	closeMethod progress.CloseMethod
}

// NewCustomBarBuilder starts a bar named name with a size hint of 100 and the default elements.
func NewCustomBarBuilder(name string) *CustomBarBuilder {
	return &CustomBarBuilder{
		name:        name,
		hint:        defaultCustomBarHintConstant,
		elements:    DefaultBarElements(),
		clock:       systemClock{},
		closeMethod: progress.CloseMethodLeaveBehind,
	}
}

// Hint sets the value that represents 100%.
func (builder *CustomBarBuilder) Hint(hint int) *CustomBarBuilder {
	builder.hint = hint
	return builder
}

// Elements replaces every glyph at once.
func (builder *CustomBarBuilder) Elements(elements BarElements) *CustomBarBuilder {
	builder.elements = elements
	return builder
}

// Filled sets the glyph repeated over the completed part.
func (builder *CustomBarBuilder) Filled(glyph string) *CustomBarBuilder {
	builder.elements.Filled = glyph
	return builder
}

// Empty sets the glyph repeated over the remaining part.
func (builder *CustomBarBuilder) Empty(glyph string) *CustomBarBuilder {
	builder.elements.Empty = glyph
	return builder
}

// Start sets the text opening the bar.
func (builder *CustomBarBuilder) Start(text string) *CustomBarBuilder {
	builder.elements.Start = text
	return builder
}

// End sets the text closing the bar.
func (builder *CustomBarBuilder) End(text string) *CustomBarBuilder {
	builder.elements.End = text
	return builder
}

// Unit sets the unit of the rate readout.
func (builder *CustomBarBuilder) Unit(unit string) *CustomBarBuilder {
	builder.elements.Unit = unit
	return builder
}

// Layout sets the terminal layout.
func (builder *CustomBarBuilder) Layout(layout Layout) *CustomBarBuilder {
	builder.layout = layout
	return builder
}

// Clock replaces the time source.
func (builder *CustomBarBuilder) Clock(clock Clock) *CustomBarBuilder {
	if clock != nil {
		builder.clock = clock
	}
	return builder
}

// CloseMethod sets what happens to the line once the bar is finished.
func (builder *CustomBarBuilder) CloseMethod(closeMethod progress.CloseMethod) *CustomBarBuilder {
	builder.closeMethod = closeMethod
	return builder
}

// Build creates the CustomBar. Empty fill glyphs fall back to the defaults.
func (builder *CustomBarBuilder) Build() *CustomBar {
	elements := builder.elements
	if len(elements.Filled) == 0 {
		elements.Filled = defaultFilledElementConstant
	}
	if len(elements.Empty) == 0 {
		elements.Empty = defaultEmptyElementConstant
	}
	return &CustomBar{
		name:        sanitizeName(builder.name),
		sizeHint:    builder.hint,
		elements:    elements,
		layout:      builder.layout,
		clock:       builder.clock,
		lastDisplay: builder.clock.Now(),
		closeMethod: builder.closeMethod,
	}
}

// Done marks the bar finished.
func (bar *CustomBar) Done() {
	bar.finished = true
}

// IsDone reports whether the bar is finished.
func (bar *CustomBar) IsDone() bool {
	return bar.finished
}

// CloseMethod returns the configured close method, LeaveBehind unless overridden.
func (bar *CustomBar) CloseMethod() progress.CloseMethod {
	return bar.closeMethod
}

// SetProgress sets the absolute progress measured against the size hint.
func (bar *CustomBar) SetProgress(value int) {
	bar.progress = max(0, value)
}

// SetSizeHint sets the value that represents 100%.
func (bar *CustomBar) SetSizeHint(hint int) {
	bar.sizeHint = hint
}

// SetName replaces the job name.
func (bar *CustomBar) SetName(name string) {
	bar.name = sanitizeName(name)
}

// Percentage returns the completed share of the size hint.
func (bar *CustomBar) Percentage() int {
	if bar.sizeHint <= 0 {
		return 0
	}
	return bar.progress * fullPercentageConstant / bar.sizeHint
}

// Display renders the bar and records the time and progress for the next rate sample.
// It returns ErrTerminalTooNarrow when the fixed parts leave no room for the bar.
func (bar *CustomBar) Display() (string, error) {
	now := bar.clock.Now()
	elapsed := now.Sub(bar.lastDisplay)
	rate := 0.0
	if elapsed > 0 {
		rate = float64(bar.progress-bar.lastProgress) / elapsed.Seconds()
	}
	bar.lastDisplay = now
	bar.lastProgress = bar.progress

	percentage := bar.Percentage()
	percentText := fmt.Sprintf(customBarPercentTemplate, percentage)
	rateText := fmt.Sprintf(customBarRateTemplate, rate) + customBarGapConstant + bar.elements.Unit + customBarRateSuffixConstant

	fixedColumns := runewidth.StringWidth(bar.name) +
		len(customBarGapConstant) +
		runewidth.StringWidth(bar.elements.Start) +
		runewidth.StringWidth(bar.elements.End) +
		len(percentText) +
		len(customBarGapConstant) +
		runewidth.StringWidth(rateText) +
		customBarMarginColumnsConstant
	trackLength := bar.layout.width() - fixedColumns
	glyphWidth := max(runewidth.StringWidth(bar.elements.Filled), runewidth.StringWidth(bar.elements.Empty), 1)
	trackCells := trackLength / glyphWidth
	if trackCells < 1 {
		return "", ErrTerminalTooNarrow
	}

	var line strings.Builder
	line.WriteString(carriageReturnConstant)
	line.WriteString(bar.name)
	line.WriteString(customBarGapConstant)
	line.WriteString(bar.elements.Start)
	drawTrack(&line, trackCells, trackCells*percentage/fullPercentageConstant, bar.elements.Filled, bar.elements.Empty)
	line.WriteString(bar.elements.End)
	line.WriteString(percentText)
	line.WriteString(customBarGapConstant)
	line.WriteString(rateText)

	if bar.finished {
		return bar.layout.Style.finishedLine(line.String()), nil
	}
	return line.String(), nil
}
