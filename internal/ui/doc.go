// Package ui turns plan job events into human-readable feedback: status
// lines printed above the live indicators and console log messages.
package ui
