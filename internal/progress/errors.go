package progress

import (
	"errors"
	"fmt"
	"time"
)

const (
	alreadyBorrowedMessageConstant   = "indicator is already borrowed"
	indicatorFinishedMessageConstant = "indicator is finished"
	unsupportedMessageConstant       = "operation not supported by indicator"
	acquisitionErrorTemplateConstant = "unable to acquire indicator %d: %v"
	lockTimeoutErrorTemplateConstant = "timed out after %s waiting for thread-safe indicator %d"
	renderErrorTemplateConstant      = "unable to render %s indicator %d: %v"
	outputErrorTemplateConstant      = "unable to %s terminal output: %v"
	unsupportedOperationTemplate     = "%w: %s"
	registryKindSingleOwnerConstant  = "single-owner"
	registryKindThreadSafeConstant   = "thread-safe"
	operationSetProgressConstant     = "SetProgress"
	operationSetNameConstant         = "SetName"
	operationSetSubtaskConstant      = "SetSubtask"
	operationSetSizeHintConstant     = "SetSizeHint"
	outputOperationWriteConstant     = "write"
	outputOperationFlushConstant     = "flush"
)

var (
	// ErrAlreadyBorrowed indicates a single-owner indicator is being accessed elsewhere.
	ErrAlreadyBorrowed = errors.New(alreadyBorrowedMessageConstant)
	// ErrIndicatorFinished indicates a mutation was attempted after Done.
	ErrIndicatorFinished = errors.New(indicatorFinishedMessageConstant)
	// ErrUnsupported indicates the indicator lacks the requested capability.
	ErrUnsupported = errors.New(unsupportedMessageConstant)
)

// AcquisitionError reports a single-owner registry entry the manager could not borrow.
type AcquisitionError struct {
	Index int
}

// Error describes the failed acquisition.
func (acquisitionError AcquisitionError) Error() string {
	return fmt.Sprintf(acquisitionErrorTemplateConstant, acquisitionError.Index, ErrAlreadyBorrowed)
}

// Unwrap exposes ErrAlreadyBorrowed.
func (acquisitionError AcquisitionError) Unwrap() error {
	return ErrAlreadyBorrowed
}

// LockTimeoutError reports a thread-safe registry entry whose lock was not
// obtained within the manager's lock timeout.
type LockTimeoutError struct {
	Index   int
	Timeout time.Duration
	Cause   error
}

// Error describes the timeout.
func (timeoutError LockTimeoutError) Error() string {
	return fmt.Sprintf(lockTimeoutErrorTemplateConstant, timeoutError.Timeout, timeoutError.Index)
}

// Unwrap exposes the context error that ended the wait.
func (timeoutError LockTimeoutError) Unwrap() error {
	return timeoutError.Cause
}

// RenderError wraps a failure reported by an indicator's Display.
type RenderError struct {
	Index      int
	ThreadSafe bool
	Cause      error
}

// Error describes the render failure.
func (renderError RenderError) Error() string {
	registryKind := registryKindSingleOwnerConstant
	if renderError.ThreadSafe {
		registryKind = registryKindThreadSafeConstant
	}
	return fmt.Sprintf(renderErrorTemplateConstant, registryKind, renderError.Index, renderError.Cause)
}

// Unwrap exposes the indicator's error.
func (renderError RenderError) Unwrap() error {
	return renderError.Cause
}

// OutputError reports a failed write or flush of the terminal stream.
type OutputError struct {
	Operation string
	Cause     error
}

// Error describes the output failure.
func (outputError OutputError) Error() string {
	return fmt.Sprintf(outputErrorTemplateConstant, outputError.Operation, outputError.Cause)
}

// Unwrap exposes the underlying I/O error.
func (outputError OutputError) Unwrap() error {
	return outputError.Cause
}

func unsupportedOperation(operationName string) error {
	return fmt.Errorf(unsupportedOperationTemplate, ErrUnsupported, operationName)
}
