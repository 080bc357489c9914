// ABOUTME: In-memory audio peripheral for tests and silent operation
// ABOUTME: Fixed-capacity buffer that accepts short writes and drains on demand
package output

import (
	"sync"
	"time"

	"github.com/WaveCast/wavecast-go/pkg/audio"
)

const defaultLoopbackCapacity = 32 * 1024

// Loopback is a Peripheral that buffers audio in memory instead of
// playing it. Tests drain it explicitly; the player binary uses it on
// machines without a sound device.
type Loopback struct {
	mu       sync.Mutex
	capacity int
	pending  []byte
	played   []byte
	format   audio.Format
	closed   bool
}

// NewLoopback creates a loopback peripheral with the given buffer
// capacity (bytes). Zero selects a 32KiB default.
func NewLoopback(capacity int) *Loopback {
	if capacity <= 0 {
		capacity = defaultLoopbackCapacity
	}
	return &Loopback{capacity: capacity}
}

// Configure implements Peripheral.
func (l *Loopback) Configure(format audio.Format) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.format = format
	l.closed = false
	return nil
}

// Write copies bytes into the pending buffer up to the free space and
// returns the short count immediately; the loopback device never
// blocks, so the timeout is not consulted.
func (l *Loopback) Write(p []byte, _ time.Duration) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	free := l.capacity - len(l.pending)
	if free <= 0 {
		return 0, nil
	}
	n := len(p)
	if n > free {
		n = free
	}
	l.pending = append(l.pending, p[:n]...)
	return n, nil
}

// Drain simulates playback of up to n pending bytes and returns them.
func (l *Loopback) Drain(n int) []byte {
	l.mu.Lock()
	defer l.mu.Unlock()

	if n > len(l.pending) {
		n = len(l.pending)
	}
	out := make([]byte, n)
	copy(out, l.pending[:n])
	l.pending = l.pending[n:]
	l.played = append(l.played, out...)
	return out
}

// Played returns everything drained so far.
func (l *Loopback) Played() []byte {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]byte, len(l.played))
	copy(out, l.played)
	return out
}

// Buffered implements Peripheral.
func (l *Loopback) Buffered() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.pending)
}

// Capacity implements Peripheral.
func (l *Loopback) Capacity() int {
	return l.capacity
}

// Flush implements Peripheral.
func (l *Loopback) Flush() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pending = l.pending[:0]
	return nil
}

// Close implements Peripheral.
func (l *Loopback) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pending = nil
	l.closed = true
	return nil
}
