package progress

import (
	"fmt"
	"strings"
)

const (
	closeMethodDefaultStringConstant     = "default"
	closeMethodLeaveBehindStringConstant = "leave-behind"
	closeMethodClearStringConstant       = "clear"
	unsupportedCloseMethodTemplate       = "unsupported close method: %q"
)

// CloseMethod decides what happens to the final frame of a finished indicator.
type CloseMethod int

// Supported close methods.
const (
	// CloseMethodDefault defers to the manager-wide default.
	CloseMethodDefault CloseMethod = iota
	// CloseMethodLeaveBehind renders the final frame once more and stops tracking.
	CloseMethodLeaveBehind
	// CloseMethodClear stops tracking without rendering anything more.
	CloseMethodClear
)

var closeMethodNames = map[CloseMethod]string{
	CloseMethodDefault:     closeMethodDefaultStringConstant,
	CloseMethodLeaveBehind: closeMethodLeaveBehindStringConstant,
	CloseMethodClear:       closeMethodClearStringConstant,
}

// CloseMethodChoices lists the textual close methods in display order.
func CloseMethodChoices() []string {
	return []string{
		closeMethodLeaveBehindStringConstant,
		closeMethodClearStringConstant,
		closeMethodDefaultStringConstant,
	}
}

// ParseCloseMethod converts configuration or flag text into a CloseMethod.
// Matching ignores case, surrounding whitespace and the separator between words.
func ParseCloseMethod(value string) (CloseMethod, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	normalized = strings.NewReplacer("_", "-", " ", "-").Replace(normalized)
	switch normalized {
	case "", closeMethodDefaultStringConstant:
		return CloseMethodDefault, nil
	case closeMethodLeaveBehindStringConstant, "leavebehind", "leave":
		return CloseMethodLeaveBehind, nil
	case closeMethodClearStringConstant:
		return CloseMethodClear, nil
	default:
		return CloseMethodDefault, fmt.Errorf(unsupportedCloseMethodTemplate, value)
	}
}

// String returns the configuration spelling of the close method.
func (closeMethod CloseMethod) String() string {
	if name, known := closeMethodNames[closeMethod]; known {
		return name
	}
	return fmt.Sprintf("CloseMethod(%d)", int(closeMethod))
}

// MarshalText implements encoding.TextMarshaler.
func (closeMethod CloseMethod) MarshalText() ([]byte, error) {
	if _, known := closeMethodNames[closeMethod]; !known {
		return nil, fmt.Errorf(unsupportedCloseMethodTemplate, closeMethod.String())
	}
	return []byte(closeMethod.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler so configuration decoders
// can populate CloseMethod fields from strings.
func (closeMethod *CloseMethod) UnmarshalText(text []byte) error {
	parsed, parseError := ParseCloseMethod(string(text))
	if parseError != nil {
		return parseError
	}
	*closeMethod = parsed
	return nil
}

// resolve substitutes fallback for CloseMethodDefault; a default fallback
// resolves to CloseMethodLeaveBehind.
func (closeMethod CloseMethod) resolve(fallback CloseMethod) CloseMethod {
	if closeMethod != CloseMethodDefault {
		return closeMethod
	}
	if fallback != CloseMethodDefault {
		return fallback
	}
	return CloseMethodLeaveBehind
}
