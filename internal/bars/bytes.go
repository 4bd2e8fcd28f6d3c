package bars

import (
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/temirov/stati/internal/progress"
)

const (
	byteBarNameColumnsConstant = 30
	byteBarSeparatorConstant   = " / "
	byteBarGapConstant         = " "
	byteBarStartConstant       = "["
	byteBarEndConstant         = "]"
	byteBarFilledGlyphConstant = "#"
	byteBarEmptyGlyphConstant  = "."
)

// ByteBar tracks a transfer in bytes and renders "name [###...] 12 MB / 40 MB".
// Without a total only the transferred amount is shown.
type ByteBar struct {
	name        string
	transferred int
	total       int
	finished    bool
	layout      Layout
	closeMethod progress.CloseMethod
}

// NewByteBar creates a bar expecting total bytes. A non-positive total means unknown.
func NewByteBar(name string, total int, layout Layout) *ByteBar {
	return &ByteBar{name: sanitizeName(name), total: total, layout: layout}
}

// Done marks the transfer finished.
func (bar *ByteBar) Done() {
	bar.finished = true
}

// IsDone reports whether the transfer is finished.
func (bar *ByteBar) IsDone() bool {
	return bar.finished
}

// CloseMethod defers to the manager default unless overridden.
func (bar *ByteBar) CloseMethod() progress.CloseMethod {
	return bar.closeMethod
}

// SetCloseMethod overrides the close method.
func (bar *ByteBar) SetCloseMethod(closeMethod progress.CloseMethod) {
	bar.closeMethod = closeMethod
}

// SetProgress sets the number of bytes transferred so far.
func (bar *ByteBar) SetProgress(transferred int) {
	bar.transferred = max(0, transferred)
}

// SetSizeHint sets the expected total in bytes.
func (bar *ByteBar) SetSizeHint(total int) {
	bar.total = total
}

// SetName replaces the job name.
func (bar *ByteBar) SetName(name string) {
	bar.name = sanitizeName(name)
}

// Transferred returns the bytes transferred so far.
func (bar *ByteBar) Transferred() int {
	return bar.transferred
}

// Display renders the bar with humanized byte counts.
func (bar *ByteBar) Display() (string, error) {
	amounts := humanize.Bytes(uint64(bar.transferred))
	if bar.total > 0 {
		amounts += byteBarSeparatorConstant + humanize.Bytes(uint64(bar.total))
	}

	trackLength := bar.layout.width() - byteBarNameColumnsConstant - len(byteBarStartConstant) - len(byteBarEndConstant) -
		len(byteBarGapConstant) - len(amounts) - customBarMarginColumnsConstant
	if trackLength < 1 {
		return "", ErrTerminalTooNarrow
	}

	filled := 0
	if bar.total > 0 {
		filled = int(int64(trackLength) * int64(min(bar.transferred, bar.total)) / int64(bar.total))
	}

	var line strings.Builder
	line.WriteString(carriageReturnConstant)
	line.WriteString(fitName(bar.name, byteBarNameColumnsConstant))
	line.WriteString(byteBarStartConstant)
	drawTrack(&line, trackLength, filled, byteBarFilledGlyphConstant, byteBarEmptyGlyphConstant)
	line.WriteString(byteBarEndConstant)
	line.WriteString(byteBarGapConstant)
	line.WriteString(amounts)

	if bar.finished {
		return bar.layout.Style.finishedLine(line.String()), nil
	}
	return line.String(), nil
}
