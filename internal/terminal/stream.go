package terminal

import (
	"bufio"
	"io"
	"sync"
)

// Stream buffers writes to a terminal until Flush so a composed frame
// reaches the terminal in a single write.
type Stream struct {
	writer   io.Writer
	buffered *bufio.Writer
	mutex    sync.Mutex
}

// NewStream wraps writer. Wrapping a Stream returns it unchanged.
func NewStream(writer io.Writer) *Stream {
	if existing, alreadyWrapped := writer.(*Stream); alreadyWrapped {
		return existing
	}
	return &Stream{writer: writer, buffered: bufio.NewWriter(writer)}
}

// Write buffers data.
func (stream *Stream) Write(data []byte) (int, error) {
	if stream == nil || stream.writer == nil {
		return 0, nil
	}

	stream.mutex.Lock()
	defer stream.mutex.Unlock()

	return stream.buffered.Write(data)
}

// Flush delivers buffered data and then flushes the underlying writer when
// it supports flushing.
func (stream *Stream) Flush() error {
	if stream == nil || stream.writer == nil {
		return nil
	}

	stream.mutex.Lock()
	defer stream.mutex.Unlock()

	if flushError := stream.buffered.Flush(); flushError != nil {
		return flushError
	}

	if flushableWriter, implementsFlush := stream.writer.(interface{ Flush() error }); implementsFlush {
		return flushableWriter.Flush()
	}

	return nil
}

// Buffered reports how many bytes await Flush.
func (stream *Stream) Buffered() int {
	if stream == nil || stream.writer == nil {
		return 0
	}

	stream.mutex.Lock()
	defer stream.mutex.Unlock()

	return stream.buffered.Buffered()
}
