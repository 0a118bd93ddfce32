// Package accumulator collects a response body into one contiguous buffer
// and hands it out again through sequential reads.
package accumulator

import (
	"io"
	"strings"
)

// statusPrefixes are the status lines whose reason phrase is kept.
var statusPrefixes = []string{"HTTP/1.0 ", "HTTP/1.1 "}

// reasonOffset skips "HTTP/1.x NNN ".
const reasonOffset = 13

// Buffer is the body sink of a single fetch. It grows while the fetch runs
// and is only consumed, never modified, once the fetch is complete.
type Buffer struct {
	data   []byte
	off    int
	reason string
}

// New creates an empty buffer.
func New() *Buffer {
	return &Buffer{}
}

// Write appends one received chunk. It never fails; the returned count is
// always len(p), which tells the transport the chunk was accepted.
func (b *Buffer) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	b.data = append(b.data, p...)

	return len(p), nil
}

// HeaderLine inspects one received header line. Only HTTP/1.0 and HTTP/1.1
// status lines are used: their reason phrase is kept for diagnostics.
func (b *Buffer) HeaderLine(line string) {
	for _, prefix := range statusPrefixes {
		if !strings.HasPrefix(line, prefix) {
			continue
		}

		line = strings.TrimSuffix(line, "\r\n")
		if len(line) <= reasonOffset {
			b.reason = ""
			return
		}

		b.reason = line[reasonOffset:]

		return
	}
}

// Reason returns the reason phrase of the last status line seen.
func (b *Buffer) Reason() string {
	return b.reason
}

// Size returns the total number of bytes received.
func (b *Buffer) Size() int {
	return len(b.data)
}

// Len returns the number of bytes not yet read.
func (b *Buffer) Len() int {
	return len(b.data) - b.off
}

// Bytes returns the unread part of the buffer without consuming it.
func (b *Buffer) Bytes() []byte {
	return b.data[b.off:]
}

// ReadNext consumes up to n bytes from the front of the buffer. Once the
// buffer is drained it returns an empty slice.
func (b *Buffer) ReadNext(n int) []byte {
	if n <= 0 || b.Len() == 0 {
		return nil
	}

	if n > b.Len() {
		n = b.Len()
	}

	chunk := b.data[b.off : b.off+n]
	b.off += n

	return chunk
}

// Read implements io.Reader on top of ReadNext.
func (b *Buffer) Read(p []byte) (int, error) {
	if b.Len() == 0 {
		if len(p) == 0 {
			return 0, nil
		}

		return 0, io.EOF
	}

	return copy(p, b.ReadNext(len(p))), nil
}

// Release drops the buffer contents. The buffer reads as empty afterwards.
func (b *Buffer) Release() {
	b.data = nil
	b.off = 0
	b.reason = ""
}
