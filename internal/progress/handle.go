package progress

import (
	"errors"
	"runtime"
	"sync/atomic"
)

const (
	handleReleasedMessageConstant = "handle already released"
)

// ErrHandleReleased indicates an operation on a handle after Release.
var ErrHandleReleased = errors.New(handleReleasedMessageConstant)

type handleLease struct {
	released atomic.Bool
	cell     *borrowCell
}

func (lease *handleLease) end() {
	if lease.released.CompareAndSwap(false, true) {
		lease.cell.release()
	}
}

// Handle is the caller's reference to an indicator registered with Register.
// It is meant for the goroutine that drives redraws; a concurrent access
// fails with ErrAlreadyBorrowed instead of blocking.
//
// Releasing the last handle of an indicator calls Done on it. Call Release
// (typically deferred) when the handle goes out of scope; a handle that
// becomes unreachable without Release is released by the garbage collector
// on a best-effort basis.
type Handle[B Renderer] struct {
	lease *handleLease
}

func newHandle[B Renderer](cell *borrowCell) *Handle[B] {
	handle := &Handle[B]{lease: &handleLease{cell: cell}}
	runtime.AddCleanup(handle, (*handleLease).end, handle.lease)
	return handle
}

// Access grants exclusive access to the indicator while action runs.
// Renderer-specific calls that the generic mutators do not cover go here.
func (handle *Handle[B]) Access(action func(indicator B) error) error {
	cell, cellError := handle.activeCell()
	if cellError != nil {
		return cellError
	}
	return cell.with(func(indicator Renderer) error {
		return action(indicator.(B))
	})
}

// SetProgress forwards to the indicator's ProgressSetter.
func (handle *Handle[B]) SetProgress(progress int) error {
	return handle.mutate(func(indicator Renderer) error {
		return applyProgress(indicator, progress)
	})
}

// SetName forwards to the indicator's NameSetter.
func (handle *Handle[B]) SetName(name string) error {
	return handle.mutate(func(indicator Renderer) error {
		return applyName(indicator, name)
	})
}

// SetSubtask forwards to the indicator's SubtaskSetter.
func (handle *Handle[B]) SetSubtask(subtask string) error {
	return handle.mutate(func(indicator Renderer) error {
		return applySubtask(indicator, subtask)
	})
}

// SetSizeHint forwards to the indicator's SizeHintSetter.
func (handle *Handle[B]) SetSizeHint(hint int) error {
	return handle.mutate(func(indicator Renderer) error {
		return applySizeHint(indicator, hint)
	})
}

// Done finishes the indicator. It is idempotent.
func (handle *Handle[B]) Done() error {
	cell, cellError := handle.activeCell()
	if cellError != nil {
		return cellError
	}
	return cell.with(func(indicator Renderer) error {
		indicator.Done()
		return nil
	})
}

// IsDone reports whether the indicator is finished.
func (handle *Handle[B]) IsDone() (bool, error) {
	cell, cellError := handle.activeCell()
	if cellError != nil {
		return false, cellError
	}
	finished := false
	accessError := cell.with(func(indicator Renderer) error {
		finished = indicator.IsDone()
		return nil
	})
	return finished, accessError
}

// Clone returns another handle to the same indicator. The indicator is
// finished only after every clone has been released.
func (handle *Handle[B]) Clone() *Handle[B] {
	cell, cellError := handle.activeCell()
	if cellError != nil {
		released := &Handle[B]{lease: &handleLease{}}
		released.lease.released.Store(true)
		return released
	}
	cell.retain()
	return newHandle[B](cell)
}

// Release drops this handle's reference. It is idempotent.
func (handle *Handle[B]) Release() {
	if handle == nil || handle.lease == nil {
		return
	}
	handle.lease.end()
}

func (handle *Handle[B]) mutate(mutation func(Renderer) error) error {
	cell, cellError := handle.activeCell()
	if cellError != nil {
		return cellError
	}
	return cell.with(func(indicator Renderer) error {
		return mutate(indicator, mutation)
	})
}

func (handle *Handle[B]) activeCell() (*borrowCell, error) {
	if handle == nil || handle.lease == nil || handle.lease.cell == nil || handle.lease.released.Load() {
		return nil, ErrHandleReleased
	}
	return handle.lease.cell, nil
}
