package progress

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
)

const (
	finalizeLockTimeoutConstant = time.Second
)

// borrowCell stores a single-owner indicator. Exclusive access is
// runtime-checked and never blocks: a second borrow fails.
type borrowCell struct {
	indicator        Renderer
	borrowed         atomic.Bool
	handleReferences atomic.Int64
}

func newBorrowCell(indicator Renderer) *borrowCell {
	cell := &borrowCell{indicator: indicator}
	cell.handleReferences.Store(1)
	return cell
}

func (cell *borrowCell) tryBorrow() bool {
	return cell.borrowed.CompareAndSwap(false, true)
}

func (cell *borrowCell) giveBack() {
	cell.borrowed.Store(false)
}

// with borrows the indicator for the duration of action.
func (cell *borrowCell) with(action func(Renderer) error) error {
	if !cell.tryBorrow() {
		return ErrAlreadyBorrowed
	}
	defer cell.giveBack()
	return action(cell.indicator)
}

func (cell *borrowCell) retain() {
	cell.handleReferences.Add(1)
}

// release drops one handle reference and finishes the indicator when it was
// the last one. A failed borrow is ignored.
func (cell *borrowCell) release() {
	if cell.handleReferences.Add(-1) != 0 {
		return
	}
	_ = cell.with(func(indicator Renderer) error {
		indicator.Done()
		return nil
	})
}

// lockedCell stores a thread-safe indicator behind a one-slot semaphore so
// waits can be bounded by a context.
type lockedCell struct {
	indicator        Renderer
	slot             *semaphore.Weighted
	handleReferences atomic.Int64
}

func newLockedCell(indicator Renderer) *lockedCell {
	cell := &lockedCell{indicator: indicator, slot: semaphore.NewWeighted(1)}
	cell.handleReferences.Store(1)
	return cell
}

func (cell *lockedCell) lock(executionContext context.Context) error {
	return cell.slot.Acquire(executionContext, 1)
}

func (cell *lockedCell) tryLock() bool {
	return cell.slot.TryAcquire(1)
}

func (cell *lockedCell) unlock() {
	cell.slot.Release(1)
}

// with locks the indicator for the duration of action.
func (cell *lockedCell) with(executionContext context.Context, action func(Renderer) error) error {
	if lockError := cell.lock(executionContext); lockError != nil {
		return lockError
	}
	defer cell.unlock()
	return action(cell.indicator)
}

func (cell *lockedCell) retain() {
	cell.handleReferences.Add(1)
}

// release drops one handle reference and finishes the indicator when it was
// the last one, waiting at most finalizeLockTimeoutConstant for the lock.
func (cell *lockedCell) release() {
	if cell.handleReferences.Add(-1) != 0 {
		return
	}
	finalizeContext, cancel := context.WithTimeout(context.Background(), finalizeLockTimeoutConstant)
	defer cancel()
	_ = cell.with(finalizeContext, func(indicator Renderer) error {
		indicator.Done()
		return nil
	})
}

// releaseUnreachable is the garbage-collection path of release. It runs on
// the runtime's cleanup goroutine and must not wait for the lock.
func (cell *lockedCell) releaseUnreachable() {
	if cell.handleReferences.Add(-1) != 0 {
		return
	}
	if !cell.tryLock() {
		return
	}
	defer cell.unlock()
	cell.indicator.Done()
}
