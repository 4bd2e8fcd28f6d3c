package bars

import (
	"errors"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"github.com/temirov/stati/internal/progress"
	"github.com/temirov/stati/internal/terminal"
)

const (
	terminalTooNarrowMessageConstant = "terminal too narrow for bar"
	carriageReturnConstant           = "\r"
	nameTruncationTailConstant       = "..."
)

// ErrTerminalTooNarrow is returned by Display when the bar cannot fit the terminal width.
var ErrTerminalTooNarrow = errors.New(terminalTooNarrowMessageConstant)

// Layout carries the terminal facts shared by every bar.
type Layout struct {
	// WidthSource reports the terminal width. Nil means FallbackWidth.
	WidthSource terminal.WidthSource
	// FallbackWidth applies when the width is unavailable. Zero means
	// terminal.DefaultFallbackWidth.
	FallbackWidth int
	// Style decorates finished frames.
	Style Style
}

// NewLayout derives the layout for bars drawn to output. A positive
// configured width wins over detection; colour requires a terminal output
// and NoColor unset.
func NewLayout(output io.Writer, configuration progress.Configuration) Layout {
	outputFile, isFile := output.(*os.File)
	layout := Layout{FallbackWidth: configuration.FallbackWidth}
	switch {
	case configuration.Width > 0:
		layout.WidthSource = terminal.FixedWidthSource(configuration.Width)
	case isFile:
		layout.WidthSource = terminal.NewFileWidthSource(outputFile)
	}
	colored := !configuration.NoColor && isFile && terminal.IsTerminal(outputFile)
	layout.Style = NewStyle(colored)
	return layout
}

func (layout Layout) width() int {
	fallback := layout.FallbackWidth
	if fallback <= 0 {
		fallback = terminal.DefaultFallbackWidth
	}
	return terminal.FallbackWidth(layout.WidthSource, fallback)
}

// Style colours the final frame of finished bars. The zero value leaves frames plain.
type Style struct {
	finished *color.Color
	colored  bool
}

// NewStyle returns a Style that paints finished frames green when colored is true.
func NewStyle(colored bool) Style {
	finishedColor := color.New(color.FgGreen)
	if colored {
		finishedColor.EnableColor()
	} else {
		finishedColor.DisableColor()
	}
	return Style{finished: finishedColor, colored: colored}
}

// Colored reports whether finished frames are painted.
func (style Style) Colored() bool {
	return style.colored
}

func (style Style) finishedLine(line string) string {
	if style.finished == nil {
		return line
	}
	content, hadCarriageReturn := strings.CutPrefix(line, carriageReturnConstant)
	painted := style.finished.Sprint(content)
	if hadCarriageReturn {
		return carriageReturnConstant + painted
	}
	return painted
}

// sanitizeName removes line breaks that would corrupt the redraw line count.
func sanitizeName(name string) string {
	return strings.NewReplacer("\n", " ", "\r", "").Replace(name)
}

// fitName pads or truncates name to exactly columns display cells.
func fitName(name string, columns int) string {
	return runewidth.FillRight(runewidth.Truncate(name, columns, nameTruncationTailConstant), columns)
}

// drawTrack renders a bar body of length cells with filled cells of filledGlyph.
func drawTrack(builder *strings.Builder, length int, filled int, filledGlyph string, emptyGlyph string) {
	filled = max(0, min(filled, length))
	builder.WriteString(strings.Repeat(filledGlyph, filled))
	builder.WriteString(strings.Repeat(emptyGlyph, length-filled))
}
