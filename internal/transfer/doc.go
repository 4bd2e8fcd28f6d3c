// Package transfer copies files while drawing a byte counting progress bar.
package transfer
