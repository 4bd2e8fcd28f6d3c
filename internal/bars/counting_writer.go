package bars

import (
	"io"
	"sync/atomic"
)

// CountingWriter forwards writes to a destination and reports the
// cumulative byte count to a handle, typically one driving a ByteBar.
type CountingWriter struct {
	destination io.Writer
	handle      ProgressHandle
	written     atomic.Int64
}

// NewCountingWriter wraps destination.
func NewCountingWriter(destination io.Writer, handle ProgressHandle) *CountingWriter {
	return &CountingWriter{destination: destination, handle: handle}
}

// Write writes data to the destination and publishes the new total. A
// failed progress update does not fail the write.
func (writer *CountingWriter) Write(data []byte) (int, error) {
	bytesWritten, writeError := writer.destination.Write(data)
	total := writer.written.Add(int64(bytesWritten))
	if bytesWritten > 0 && writer.handle != nil {
		_ = writer.handle.SetProgress(int(total))
	}
	return bytesWritten, writeError
}

// Written returns the number of bytes written so far.
func (writer *CountingWriter) Written() int64 {
	return writer.written.Load()
}
