package kfmt

import "io"

// earlyBufferSize is the capacity of the buffer that captures Printf output
// generated before an output sink is attached. It is sized to hold the
// contents of a full 80x25 text-mode console and must be a power of 2 so the
// buffer indices can wrap with a mask.
const earlyBufferSize = 2048

// ringBuffer is a fixed-size byte FIFO over a circular buffer. Writes never
// block; once the buffer fills up, the oldest unread bytes are dropped to
// make room for new ones.
type ringBuffer struct {
	data    [earlyBufferSize]byte
	readAt  int
	writeAt int
}

// Write appends p to the buffer, overwriting the oldest unread bytes when the
// buffer is full. It always reports len(p) bytes written.
func (rb *ringBuffer) Write(p []byte) (int, error) {
	for _, b := range p {
		rb.data[rb.writeAt] = b
		rb.writeAt = (rb.writeAt + 1) & (earlyBufferSize - 1)
		if rb.writeAt == rb.readAt {
			// The write just clobbered the oldest unread byte; move
			// the reader past it.
			rb.readAt = (rb.readAt + 1) & (earlyBufferSize - 1)
		}
	}

	return len(p), nil
}

// Read copies up to len(p) buffered bytes into p and returns the number of
// bytes copied. Reading an empty buffer returns io.EOF.
func (rb *ringBuffer) Read(p []byte) (int, error) {
	if rb.readAt == rb.writeAt {
		return 0, io.EOF
	}

	// The readable region either runs up to the writer or wraps at the end
	// of the buffer. Serve the contiguous part; the next call picks up the
	// remainder.
	end := rb.writeAt
	if rb.readAt > rb.writeAt {
		end = earlyBufferSize
	}

	n := copy(p, rb.data[rb.readAt:end])
	rb.readAt = (rb.readAt + n) & (earlyBufferSize - 1)

	return n, nil
}
