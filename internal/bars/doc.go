// Package bars provides the indicator renderers tracked by the progress
// manager: a percentage bar, a spinner, a customizable bar with a rate
// readout and a byte-counting bar, plus adapters that drive a handle from
// an iterator or from bytes flowing through a writer.
package bars
