package terminal

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/term"
)

const (
	widthUnavailableMessageConstant = "terminal width unavailable"
	notTerminalTemplateConstant     = "%w: %s is not a terminal"
	sizeQueryTemplateConstant       = "%w: %v"
	// DefaultFallbackWidth is the column count assumed when the width cannot be queried.
	DefaultFallbackWidth = 81
)

// ErrWidthUnavailable indicates the terminal width cannot be determined.
var ErrWidthUnavailable = errors.New(widthUnavailableMessageConstant)

// WidthSource reports the column count of the output terminal.
type WidthSource interface {
	Width() (int, error)
}

// FileWidthSource queries the size of the terminal attached to a file.
type FileWidthSource struct {
	file *os.File
}

// NewFileWidthSource returns a WidthSource for file, typically os.Stdout.
func NewFileWidthSource(file *os.File) FileWidthSource {
	return FileWidthSource{file: file}
}

// Width returns the current column count or an error wrapping ErrWidthUnavailable.
func (source FileWidthSource) Width() (int, error) {
	if source.file == nil {
		return 0, ErrWidthUnavailable
	}
	descriptor := int(source.file.Fd())
	if !term.IsTerminal(descriptor) {
		return 0, fmt.Errorf(notTerminalTemplateConstant, ErrWidthUnavailable, source.file.Name())
	}
	columns, _, sizeError := term.GetSize(descriptor)
	if sizeError != nil {
		return 0, fmt.Errorf(sizeQueryTemplateConstant, ErrWidthUnavailable, sizeError)
	}
	if columns <= 0 {
		return 0, ErrWidthUnavailable
	}
	return columns, nil
}

// FixedWidthSource always reports the same width. A non-positive value
// reports ErrWidthUnavailable.
type FixedWidthSource int

// Width returns the fixed column count.
func (source FixedWidthSource) Width() (int, error) {
	if source <= 0 {
		return 0, ErrWidthUnavailable
	}
	return int(source), nil
}

// FallbackWidth returns the width reported by source, or fallback when the
// source is missing or fails.
func FallbackWidth(source WidthSource, fallback int) int {
	if source == nil {
		return fallback
	}
	columns, widthError := source.Width()
	if widthError != nil {
		return fallback
	}
	return columns
}

// IsTerminal reports whether file is attached to a terminal.
func IsTerminal(file *os.File) bool {
	if file == nil {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}
