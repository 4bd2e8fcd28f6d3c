package progress

import (
	"context"
	"runtime"
	"sync/atomic"
)

type threadLease struct {
	released atomic.Bool
	cell     *lockedCell
}

func (lease *threadLease) end() {
	if lease.released.CompareAndSwap(false, true) {
		lease.cell.release()
	}
}

func (lease *threadLease) endUnreachable() {
	if lease.released.CompareAndSwap(false, true) {
		lease.cell.releaseUnreachable()
	}
}

// ThreadHandle is the caller's reference to an indicator registered with
// RegisterThreadSafe. It may be used from any goroutine; accesses are
// serialized with the manager's redraws by a lock.
//
// A goroutine must Unlock a Guard before locking the same indicator again,
// including through the mutator methods. Doing otherwise deadlocks.
type ThreadHandle[B Renderer] struct {
	lease *threadLease
}

func newThreadHandle[B Renderer](cell *lockedCell) *ThreadHandle[B] {
	handle := &ThreadHandle[B]{lease: &threadLease{cell: cell}}
	runtime.AddCleanup(handle, (*threadLease).endUnreachable, handle.lease)
	return handle
}

// Guard is exclusive access to a thread-safe indicator obtained with Lock.
type Guard[B Renderer] struct {
	cell     *lockedCell
	unlocked atomic.Bool
}

// Indicator returns the locked indicator. It must not be retained after Unlock.
func (guard *Guard[B]) Indicator() B {
	return guard.cell.indicator.(B)
}

// Unlock releases the lock. It is idempotent.
func (guard *Guard[B]) Unlock() {
	if guard == nil {
		return
	}
	if guard.unlocked.CompareAndSwap(false, true) {
		guard.cell.unlock()
	}
}

// Lock waits for exclusive access to the indicator until the context ends.
func (handle *ThreadHandle[B]) Lock(executionContext context.Context) (*Guard[B], error) {
	cell, cellError := handle.activeCell()
	if cellError != nil {
		return nil, cellError
	}
	if lockError := cell.lock(executionContext); lockError != nil {
		return nil, lockError
	}
	return &Guard[B]{cell: cell}, nil
}

// Access runs action with exclusive access to the indicator.
func (handle *ThreadHandle[B]) Access(executionContext context.Context, action func(indicator B) error) error {
	cell, cellError := handle.activeCell()
	if cellError != nil {
		return cellError
	}
	return cell.with(executionContext, func(indicator Renderer) error {
		return action(indicator.(B))
	})
}

// SetProgress forwards to the indicator's ProgressSetter.
func (handle *ThreadHandle[B]) SetProgress(progress int) error {
	return handle.mutate(func(indicator Renderer) error {
		return applyProgress(indicator, progress)
	})
}

// SetName forwards to the indicator's NameSetter.
func (handle *ThreadHandle[B]) SetName(name string) error {
	return handle.mutate(func(indicator Renderer) error {
		return applyName(indicator, name)
	})
}

// SetSubtask forwards to the indicator's SubtaskSetter.
func (handle *ThreadHandle[B]) SetSubtask(subtask string) error {
	return handle.mutate(func(indicator Renderer) error {
		return applySubtask(indicator, subtask)
	})
}

// SetSizeHint forwards to the indicator's SizeHintSetter.
func (handle *ThreadHandle[B]) SetSizeHint(hint int) error {
	return handle.mutate(func(indicator Renderer) error {
		return applySizeHint(indicator, hint)
	})
}

// Done finishes the indicator. It is idempotent.
func (handle *ThreadHandle[B]) Done() error {
	cell, cellError := handle.activeCell()
	if cellError != nil {
		return cellError
	}
	return cell.with(context.Background(), func(indicator Renderer) error {
		indicator.Done()
		return nil
	})
}

// IsDone reports whether the indicator is finished.
func (handle *ThreadHandle[B]) IsDone() (bool, error) {
	cell, cellError := handle.activeCell()
	if cellError != nil {
		return false, cellError
	}
	finished := false
	accessError := cell.with(context.Background(), func(indicator Renderer) error {
		finished = indicator.IsDone()
		return nil
	})
	return finished, accessError
}

// Clone returns another handle to the same indicator, for example to hand to
// a second worker goroutine.
func (handle *ThreadHandle[B]) Clone() *ThreadHandle[B] {
	cell, cellError := handle.activeCell()
	if cellError != nil {
		released := &ThreadHandle[B]{lease: &threadLease{}}
		released.lease.released.Store(true)
		return released
	}
	cell.retain()
	return newThreadHandle[B](cell)
}

// Release drops this handle's reference and finishes the indicator if it was
// the last one. It is idempotent.
func (handle *ThreadHandle[B]) Release() {
	if handle == nil || handle.lease == nil {
		return
	}
	handle.lease.end()
}

func (handle *ThreadHandle[B]) mutate(mutation func(Renderer) error) error {
	cell, cellError := handle.activeCell()
	if cellError != nil {
		return cellError
	}
	return cell.with(context.Background(), func(indicator Renderer) error {
		return mutate(indicator, mutation)
	})
}

func (handle *ThreadHandle[B]) activeCell() (*lockedCell, error) {
	if handle == nil || handle.lease == nil || handle.lease.cell == nil || handle.lease.released.Load() {
		return nil, ErrHandleReleased
	}
	return handle.lease.cell, nil
}
