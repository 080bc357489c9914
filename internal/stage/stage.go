// ABOUTME: Fixed-capacity byte stage for the ingest/output hand-off
// ABOUTME: Compacts remaining bytes to the front after a partial consume
package stage

import "fmt"

// Stage is a fixed-capacity byte buffer with head/length bookkeeping.
// Storage is allocated once at construction and never grows; writes
// that do not fit return a short count instead of reallocating.
type Stage struct {
	data   []byte
	length int
}

// New creates a stage with the given capacity.
func New(capacity int) *Stage {
	if capacity <= 0 {
		capacity = 1
	}
	return &Stage{data: make([]byte, capacity)}
}

// Cap returns the fixed capacity.
func (s *Stage) Cap() int {
	return len(s.data)
}

// Len returns the number of valid bytes.
func (s *Stage) Len() int {
	return s.length
}

// Free returns the remaining writable capacity.
func (s *Stage) Free() int {
	return len(s.data) - s.length
}

// Write copies as many bytes from p as fit and returns the count
// written. It never errors; a full stage yields 0.
func (s *Stage) Write(p []byte) int {
	n := copy(s.data[s.length:], p)
	s.length += n
	return n
}

// ReadSlice returns the valid region without copying. The slice is
// invalidated by the next Write, Consume, Cut or Reset.
func (s *Stage) ReadSlice() []byte {
	return s.data[:s.length]
}

// Consume removes the first n bytes, shifting the remainder to the
// front. Consuming more than Len is a logic error and leaves the
// stage unchanged.
func (s *Stage) Consume(n int) error {
	if n < 0 || n > s.length {
		return fmt.Errorf("consume %d bytes with %d buffered", n, s.length)
	}
	if n == 0 {
		return nil
	}
	copy(s.data, s.data[n:s.length])
	s.length -= n
	return nil
}

// Cut removes the byte range [start, end), shifting the tail over it.
// Used to strip in-band metadata tokens out of the payload stream.
func (s *Stage) Cut(start, end int) error {
	if start < 0 || end < start || end > s.length {
		return fmt.Errorf("cut [%d,%d) with %d buffered", start, end, s.length)
	}
	if start == end {
		return nil
	}
	copy(s.data[start:], s.data[end:s.length])
	s.length -= end - start
	return nil
}

// Reset empties the stage. Capacity and storage are retained.
func (s *Stage) Reset() {
	s.length = 0
}
