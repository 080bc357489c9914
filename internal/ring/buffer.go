// ABOUTME: Circular byte buffer between the network reader and the poll loop
// ABOUTME: Drops oldest data on overflow so a stalled consumer never blocks ingest
package ring

import "sync"

// Buffer is a fixed-size circular byte buffer. The network reader
// goroutine writes, the tick loop drains. When full, the oldest
// quarter is dropped so live audio keeps flowing.
type Buffer struct {
	mu      sync.Mutex
	buf     []byte
	r       int // read position
	n       int // bytes stored
	dropped uint64
}

// New creates a buffer of the given size.
func New(size int) *Buffer {
	if size <= 0 {
		size = 1
	}
	return &Buffer{buf: make([]byte, size)}
}

// Write stores p, discarding the oldest 25% whenever space runs out.
func (b *Buffer) Write(p []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for len(p) > 0 {
		space := len(b.buf) - b.n
		if space == 0 {
			drop := len(b.buf) / 4
			if drop == 0 {
				drop = 1
			}
			if drop > b.n {
				drop = b.n
			}
			b.r = (b.r + drop) % len(b.buf)
			b.n -= drop
			b.dropped += uint64(drop)
			space = len(b.buf) - b.n
		}

		chunk := len(p)
		if chunk > space {
			chunk = space
		}

		end := (b.r + b.n) % len(b.buf)
		right := len(b.buf) - end
		if right > chunk {
			right = chunk
		}
		copy(b.buf[end:end+right], p[:right])
		if right < chunk {
			copy(b.buf[0:chunk-right], p[right:chunk])
		}

		b.n += chunk
		p = p[chunk:]
	}
}

// ReadUpTo removes and returns at most max bytes. It never blocks; an
// empty buffer yields nil.
func (b *Buffer) ReadUpTo(max int) []byte {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.n == 0 || max <= 0 {
		return nil
	}
	n := b.n
	if n > max {
		n = max
	}

	out := make([]byte, n)
	right := len(b.buf) - b.r
	if right > n {
		right = n
	}
	copy(out, b.buf[b.r:b.r+right])
	if right < n {
		copy(out[right:], b.buf[:n-right])
	}

	b.r = (b.r + n) % len(b.buf)
	b.n -= n
	return out
}

// Len returns the bytes currently stored.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.n
}

// Dropped returns the total bytes discarded on overflow.
func (b *Buffer) Dropped() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped
}

// Reset empties the buffer.
func (b *Buffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.r = 0
	b.n = 0
}
