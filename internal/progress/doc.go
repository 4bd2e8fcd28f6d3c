// Package progress tracks live terminal progress indicators and redraws them
// together with queued text in one composed write per frame.
//
// Manager owns the registry of indicators and the pending-text queue.
// Register returns a Handle for indicators driven from the redraw goroutine;
// RegisterThreadSafe returns a ThreadHandle for indicators updated from
// worker goroutines. Releasing the last handle of an indicator finishes it,
// after which the next redraw keeps or erases its final frame according to
// its CloseMethod.
package progress
