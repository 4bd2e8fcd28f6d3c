package bars

import (
	"iter"
)

// ProgressHandle is the part of progress.Handle and progress.ThreadHandle
// the adapters drive.
type ProgressHandle interface {
	SetProgress(progress int) error
	Release()
}

// Track yields the items of sequence and sets the percentage on handle
// before each item, computed against hint. A non-positive hint leaves the
// bar at 0% until the sequence is exhausted, when it is set to 100%.
//
// Track takes over handle: it is released when iteration ends, whether the
// sequence was exhausted or the consumer stopped early. Progress updates are
// best effort and never interrupt iteration.
func Track[T any](sequence iter.Seq[T], handle ProgressHandle, hint int) iter.Seq[T] {
	return func(yield func(T) bool) {
		defer handle.Release()
		itemsYielded := 0
		for item := range sequence {
			if hint > 0 {
				_ = handle.SetProgress(fullPercentageConstant * itemsYielded / hint)
			}
			if !yield(item) {
				return
			}
			itemsYielded++
		}
		_ = handle.SetProgress(fullPercentageConstant)
	}
}

// TrackSlice is Track over the elements of items with their count as the hint.
func TrackSlice[T any](items []T, handle ProgressHandle) iter.Seq[T] {
	return Track(func(yield func(T) bool) {
		for _, item := range items {
			if !yield(item) {
				return
			}
		}
	}, handle, len(items))
}
