// ABOUTME: Output sink wrapping an audio peripheral
// ABOUTME: Validates formats, applies backpressure timeouts and tracks statistics
package output

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/WaveCast/wavecast-go/pkg/audio"
)

// Sink errors. Open failures leave the sink in StatusFailed; Write on
// an unopened sink returns ErrNotReady.
var (
	ErrInvalidFormat  = errors.New("invalid output format")
	ErrPeripheralInit = errors.New("peripheral init failed")
	ErrNotReady       = errors.New("output not ready")
)

// Status describes the sink lifecycle.
type Status int

const (
	StatusStopped Status = iota
	StatusInitializing
	StatusReady
	StatusStreaming
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusStopped:
		return "stopped"
	case StatusInitializing:
		return "initializing"
	case StatusReady:
		return "ready"
	case StatusStreaming:
		return "streaming"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Stats holds cumulative write statistics.
type Stats struct {
	TotalBytesWritten uint64
	TotalWrites       uint64
	Overflows         uint64
	Underruns         uint64
	LastWrite         time.Time
}

// Sink owns a Peripheral and mediates all access to it. A Sink may be
// reused across connect cycles without reconstruction as long as the
// format does not change.
type Sink struct {
	mu sync.Mutex

	per        Peripheral
	format     audio.Format
	status     Status
	failReason error
	stats      Stats
}

// NewSink creates a sink around the given peripheral.
func NewSink(per Peripheral) *Sink {
	return &Sink{per: per, status: StatusStopped}
}

// Open validates the format and configures the peripheral. The format
// is immutable until Close.
func (s *Sink) Open(format audio.Format) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := format.Validate(); err != nil {
		s.status = StatusFailed
		s.failReason = fmt.Errorf("%w: %v", ErrInvalidFormat, err)
		return s.failReason
	}

	s.status = StatusInitializing
	if err := s.per.Configure(format); err != nil {
		s.status = StatusFailed
		s.failReason = fmt.Errorf("%w: %v", ErrPeripheralInit, err)
		return s.failReason
	}

	s.format = format
	s.status = StatusReady
	s.failReason = nil
	log.Printf("Audio output opened: %dHz, %d-bit, %d channels",
		format.SampleRate, format.BitsPerSample, format.Channels)
	return nil
}

// Write queues bytes on the peripheral, blocking at most timeout for
// space. A short count signals backpressure, not an error; it bumps
// the overflow counter. The first successful write moves the sink
// from ready to streaming.
//
// Payloads that are not a whole number of sample frames are written
// verbatim with a warning; alignment is advisory.
func (s *Sink) Write(p []byte, timeout time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusReady && s.status != StatusStreaming {
		return 0, ErrNotReady
	}
	if len(p) == 0 {
		return 0, nil
	}

	if !s.format.Aligned(len(p)) {
		log.Printf("Warning: %d byte payload not aligned to %d byte frames",
			len(p), s.format.FrameSize())
	}

	if s.status == StatusStreaming && s.per.Buffered() == 0 {
		s.stats.Underruns++
	}

	n, err := s.per.Write(p, timeout)
	if n > 0 {
		s.stats.TotalBytesWritten += uint64(n)
		s.stats.TotalWrites++
		s.stats.LastWrite = time.Now()
		if s.status == StatusReady {
			s.status = StatusStreaming
		}
	}
	if err != nil {
		return n, fmt.Errorf("peripheral write: %w", err)
	}
	if n < len(p) {
		s.stats.Overflows++
	}
	return n, nil
}

// Flush discards pending peripheral audio. Used on stop and error
// recovery so stale samples never play after a restart.
func (s *Sink) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusReady && s.status != StatusStreaming {
		return nil
	}
	return s.per.Flush()
}

// Close releases the peripheral. Safe to call repeatedly.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status == StatusStopped {
		return nil
	}
	err := s.per.Close()
	s.status = StatusStopped
	return err
}

// BufferUtilization returns peripheral buffer occupancy as a percent,
// clamped to [0,100].
func (s *Sink) BufferUtilization() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	capacity := s.per.Capacity()
	if capacity <= 0 {
		return 0
	}
	pct := s.per.Buffered() * 100 / capacity
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	return pct
}

// Status returns the current sink status.
func (s *Sink) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// FailReason returns the error that put the sink in StatusFailed.
func (s *Sink) FailReason() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failReason
}

// Stats returns a copy of the cumulative statistics.
func (s *Sink) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// Format returns the format the sink was opened with.
func (s *Sink) Format() audio.Format {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.format
}
