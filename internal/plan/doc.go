// Package plan loads YAML job plans and runs them against a progress
// manager: every job gets an indicator, thread-safe jobs advance on worker
// goroutines and the remaining jobs advance on the redraw loop.
package plan
