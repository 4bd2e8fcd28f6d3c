// Package cli constructs the stati command-line interface. It wires the Cobra
// command hierarchy to the configuration loader, the zap logger and the demo,
// plan and copy commands, and exposes Execute helpers used by the binary.
package cli
