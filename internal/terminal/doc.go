// Package terminal exposes the terminal properties the progress engine and
// its indicators depend on: the current column count and a buffered output
// stream that delivers each frame in one write.
package terminal
