package progress

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/x/ansi"
	"go.uber.org/zap"

	"github.com/temirov/stati/internal/terminal"
)

const (
	// DefaultLockTimeout bounds the manager's wait for a thread-safe indicator during a redraw.
	DefaultLockTimeout = 5 * time.Second

	lineTerminatorConstant             = "\n"
	indicatorRegisteredMessageConstant = "indicator registered"
	indicatorEvictedMessageConstant    = "indicator evicted"
	redrawFailedMessageConstant        = "progress redraw failed"
	logFieldRegistryConstant           = "registry"
	logFieldIndexConstant              = "index"
	logFieldCloseMethodConstant        = "close_method"
	logFieldTrackedConstant            = "tracked"
)

// Manager owns the live indicators and the queued text and composes the
// terminal frame. A Manager is not safe for concurrent use: registration,
// queueing and redraws belong to one goroutine. Indicators that workers
// update are registered with RegisterThreadSafe.
type Manager struct {
	singleOwnerEntries []*borrowCell
	threadSafeEntries  []*lockedCell
	printQueue         []string
	lastLines          int
	defaultCloseMethod CloseMethod
	lockTimeout        time.Duration
	output             io.Writer
	logger             *zap.Logger
}

// NewManager constructs a Manager with no indicators. Without options it
// writes to standard output through a flushing stream, logs nothing, leaves
// finished indicators behind and waits DefaultLockTimeout for thread-safe
// indicators.
func NewManager(options ...ManagerOption) *Manager {
	manager := &Manager{
		defaultCloseMethod: CloseMethodLeaveBehind,
		lockTimeout:        DefaultLockTimeout,
	}
	for _, option := range options {
		if option != nil {
			option(manager)
		}
	}
	if manager.output == nil {
		manager.output = terminal.NewStream(os.Stdout)
	}
	if manager.logger == nil {
		manager.logger = zap.NewNop()
	}
	return manager
}

// Register tracks indicator in the single-owner registry and returns its
// first handle. Nothing is written to the terminal.
func Register[B Renderer](manager *Manager, indicator B) *Handle[B] {
	cell := newBorrowCell(indicator)
	manager.singleOwnerEntries = append(manager.singleOwnerEntries, cell)
	manager.logger.Debug(
		indicatorRegisteredMessageConstant,
		zap.String(logFieldRegistryConstant, registryKindSingleOwnerConstant),
		zap.Int(logFieldIndexConstant, len(manager.singleOwnerEntries)-1),
	)
	return newHandle[B](cell)
}

// RegisterThreadSafe tracks indicator in the thread-safe registry and returns
// a handle that may be moved to other goroutines. Thread-safe indicators are
// always drawn after single-owner ones.
func RegisterThreadSafe[B Renderer](manager *Manager, indicator B) *ThreadHandle[B] {
	cell := newLockedCell(indicator)
	manager.threadSafeEntries = append(manager.threadSafeEntries, cell)
	manager.logger.Debug(
		indicatorRegisteredMessageConstant,
		zap.String(logFieldRegistryConstant, registryKindThreadSafeConstant),
		zap.Int(logFieldIndexConstant, len(manager.threadSafeEntries)-1),
	)
	return newThreadHandle[B](cell)
}

// QueueText appends text to be printed above the indicators on the next
// redraw. The text is written verbatim and is never erased afterwards.
func (manager *Manager) QueueText(text string) {
	manager.printQueue = append(manager.printQueue, text)
}

// Printf queues formatted text without a trailing newline.
func (manager *Manager) Printf(format string, arguments ...any) {
	manager.QueueText(fmt.Sprintf(format, arguments...))
}

// Println queues its operands followed by a newline.
func (manager *Manager) Println(arguments ...any) {
	manager.QueueText(fmt.Sprintln(arguments...))
}

// Len reports how many indicators are tracked.
func (manager *Manager) Len() int {
	return len(manager.singleOwnerEntries) + len(manager.threadSafeEntries)
}

// LastLines reports how many indicator lines the previous redraw left on screen.
func (manager *Manager) LastLines() int {
	return manager.lastLines
}

// Render composes the next frame: move up over the previous indicator
// block, erase to the end of the screen, emit queued text, then one line per
// tracked indicator. Finished indicators are evicted according to their
// close method.
//
// When an indicator cannot be acquired or fails to display, Render returns
// the error and no frame. Indicators processed earlier in the same pass keep
// their effects; the failing indicator, the queued text and the line count
// are left as they were.
func (manager *Manager) Render() (string, error) {
	var frame strings.Builder
	if manager.lastLines > 0 {
		frame.WriteString(ansi.CursorPreviousLine(manager.lastLines))
	}
	frame.WriteString(ansi.EraseDisplay(0))
	for _, text := range manager.printQueue {
		frame.WriteString(text)
	}

	if renderError := manager.renderSingleOwnerEntries(&frame); renderError != nil {
		return "", renderError
	}
	if renderError := manager.renderThreadSafeEntries(&frame); renderError != nil {
		return "", renderError
	}

	manager.printQueue = manager.printQueue[:0]
	manager.lastLines = manager.Len()
	return frame.String(), nil
}

// TryPrint renders a frame, writes it to the output and flushes it.
func (manager *Manager) TryPrint() error {
	if printError := manager.TryPrintNoFlush(); printError != nil {
		return printError
	}
	return manager.TryFlush()
}

// TryPrintNoFlush renders a frame and writes it to the output in one call.
func (manager *Manager) TryPrintNoFlush() error {
	frame, renderError := manager.Render()
	if renderError != nil {
		return renderError
	}
	if _, writeError := io.WriteString(manager.output, frame); writeError != nil {
		return OutputError{Operation: outputOperationWriteConstant, Cause: writeError}
	}
	return nil
}

// TryFlush flushes the output when it exposes Flush() error or Sync() error.
func (manager *Manager) TryFlush() error {
	var flushError error
	switch flushable := manager.output.(type) {
	case interface{ Flush() error }:
		flushError = flushable.Flush()
	case interface{ Sync() error }:
		flushError = flushable.Sync()
		if errors.Is(flushError, syscall.EINVAL) || errors.Is(flushError, syscall.ENOTSUP) {
			flushError = nil
		}
	default:
		return nil
	}
	if flushError != nil {
		return OutputError{Operation: outputOperationFlushConstant, Cause: flushError}
	}
	return nil
}

// Print is TryPrint for callers that cannot act on a failure. A failed
// redraw writes nothing and is reported to the logger.
func (manager *Manager) Print() {
	if printError := manager.TryPrint(); printError != nil {
		manager.logger.Error(redrawFailedMessageConstant, zap.Error(printError))
	}
}

func (manager *Manager) renderSingleOwnerEntries(frame *strings.Builder) error {
	entryIndex := 0
	for entryIndex < len(manager.singleOwnerEntries) {
		cell := manager.singleOwnerEntries[entryIndex]
		if !cell.tryBorrow() {
			return AcquisitionError{Index: entryIndex}
		}
		evict, renderError := manager.renderIndicator(frame, cell.indicator)
		cell.giveBack()
		if renderError != nil {
			return RenderError{Index: entryIndex, Cause: renderError}
		}
		if evict {
			manager.singleOwnerEntries = slices.Delete(manager.singleOwnerEntries, entryIndex, entryIndex+1)
			manager.logEviction(registryKindSingleOwnerConstant, entryIndex, cell.indicator)
			continue
		}
		entryIndex++
	}
	return nil
}

func (manager *Manager) renderThreadSafeEntries(frame *strings.Builder) error {
	entryIndex := 0
	for entryIndex < len(manager.threadSafeEntries) {
		cell := manager.threadSafeEntries[entryIndex]
		lockContext, cancel := context.WithTimeout(context.Background(), manager.lockTimeout)
		lockError := cell.lock(lockContext)
		cancel()
		if lockError != nil {
			return LockTimeoutError{Index: entryIndex, Timeout: manager.lockTimeout, Cause: lockError}
		}
		evict, renderError := manager.renderIndicator(frame, cell.indicator)
		cell.unlock()
		if renderError != nil {
			return RenderError{Index: entryIndex, ThreadSafe: true, Cause: renderError}
		}
		if evict {
			manager.threadSafeEntries = slices.Delete(manager.threadSafeEntries, entryIndex, entryIndex+1)
			manager.logEviction(registryKindThreadSafeConstant, entryIndex, cell.indicator)
			continue
		}
		entryIndex++
	}
	return nil
}

// renderIndicator appends the indicator's line when it is live, or applies
// its close method when finished. It reports whether to stop tracking it.
func (manager *Manager) renderIndicator(frame *strings.Builder, indicator Renderer) (bool, error) {
	finished := indicator.IsDone()
	if finished && indicator.CloseMethod().resolve(manager.defaultCloseMethod) == CloseMethodClear {
		return true, nil
	}
	line, displayError := indicator.Display()
	if displayError != nil {
		return false, displayError
	}
	frame.WriteString(line)
	frame.WriteString(lineTerminatorConstant)
	return finished, nil
}

func (manager *Manager) logEviction(registryKind string, entryIndex int, indicator Renderer) {
	manager.logger.Debug(
		indicatorEvictedMessageConstant,
		zap.String(logFieldRegistryConstant, registryKind),
		zap.Int(logFieldIndexConstant, entryIndex),
		zap.Stringer(logFieldCloseMethodConstant, indicator.CloseMethod().resolve(manager.defaultCloseMethod)),
		zap.Int(logFieldTrackedConstant, manager.Len()),
	)
}
