// Package demo walks through every indicator kind on a live manager: a
// spinner, an iterator driven bar, two bars interleaved with queued text and
// a pair of bars advanced from separate goroutines.
package demo
