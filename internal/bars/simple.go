package bars

import (
	"fmt"
	"strings"

	"github.com/temirov/stati/internal/progress"
)

const (
	simpleBarNameColumnsConstant    = 50
	simpleBarPercentColumnsConstant = 5
	simpleBarBracketColumnsConstant = 2
	simpleBarFilledGlyphConstant    = "="
	simpleBarEmptyGlyphConstant     = "-"
	simpleBarStartConstant          = "["
	simpleBarEndConstant            = "]"
	simpleBarPercentTemplate        = "%4d%%"
	fullPercentageConstant          = 100
)

// SimpleBar is a percentage bar laid out as a 50-column job name followed by
// the bar and the percentage. Progress past 100% keeps counting and swaps
// the filled and empty glyphs on every further 100%.
type SimpleBar struct {
	name        string
	percentage  int
	sizeHint    int
	finished    bool
	layout      Layout
	closeMethod progress.CloseMethod
}

// NewSimpleBar creates a bar at 0% that is left behind once finished.
func NewSimpleBar(name string, sizeHint int, layout Layout) *SimpleBar {
	return &SimpleBar{name: sanitizeName(name), sizeHint: sizeHint, layout: layout, closeMethod: progress.CloseMethodLeaveBehind}
}

// Done marks the bar finished.
func (bar *SimpleBar) Done() {
	bar.finished = true
}

// IsDone reports whether the bar is finished.
func (bar *SimpleBar) IsDone() bool {
	return bar.finished
}

// CloseMethod returns what happens to the line once the bar is finished.
func (bar *SimpleBar) CloseMethod() progress.CloseMethod {
	return bar.closeMethod
}

// SetCloseMethod overrides the close method.
func (bar *SimpleBar) SetCloseMethod(closeMethod progress.CloseMethod) {
	bar.closeMethod = closeMethod
}

// SetProgress sets the percentage. Negative values clamp to zero.
func (bar *SimpleBar) SetProgress(percentage int) {
	bar.percentage = max(0, percentage)
}

// SetSizeHint records the expected maximum.
func (bar *SimpleBar) SetSizeHint(hint int) {
	bar.sizeHint = hint
}

// SetName replaces the job name.
func (bar *SimpleBar) SetName(name string) {
	bar.name = sanitizeName(name)
}

// Percentage returns the current percentage.
func (bar *SimpleBar) Percentage() int {
	return bar.percentage
}

// Display renders the bar starting with a carriage return.
func (bar *SimpleBar) Display() (string, error) {
	width := bar.layout.width()
	trackLength := width - (simpleBarNameColumnsConstant + simpleBarPercentColumnsConstant) - simpleBarBracketColumnsConstant
	if trackLength < 1 {
		return "", ErrTerminalTooNarrow
	}

	laps := bar.percentage / fullPercentageConstant
	remainder := bar.percentage - laps*fullPercentageConstant
	filledGlyph, emptyGlyph := simpleBarFilledGlyphConstant, simpleBarEmptyGlyphConstant
	if laps%2 == 1 {
		filledGlyph, emptyGlyph = emptyGlyph, filledGlyph
	}

	var line strings.Builder
	line.Grow(width)
	line.WriteString(carriageReturnConstant)
	line.WriteString(fitName(bar.name, simpleBarNameColumnsConstant))
	line.WriteString(simpleBarStartConstant)
	drawTrack(&line, trackLength, trackLength*remainder/fullPercentageConstant, filledGlyph, emptyGlyph)
	line.WriteString(simpleBarEndConstant)
	line.WriteString(fmt.Sprintf(simpleBarPercentTemplate, bar.percentage))

	if bar.finished {
		return bar.layout.Style.finishedLine(line.String()), nil
	}
	return line.String(), nil
}
