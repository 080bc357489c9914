// ABOUTME: Audio peripheral interface definition
// ABOUTME: Common contract for synchronous audio output backends
package output

import (
	"time"

	"github.com/WaveCast/wavecast-go/pkg/audio"
)

// Peripheral is a synchronous audio output device. Implementations own
// the device handle exclusively; callers go through Sink.
type Peripheral interface {
	// Configure prepares the device for the given format.
	Configure(format audio.Format) error

	// Write queues PCM bytes, blocking at most timeout for buffer
	// space. It returns the short count on partial acceptance.
	Write(p []byte, timeout time.Duration) (int, error)

	// Buffered returns the bytes queued but not yet played.
	Buffered() int

	// Capacity returns the device buffer size in bytes.
	Capacity() int

	// Flush discards pending audio so no stale samples play.
	Flush() error

	// Close releases the device. Implementations are idempotent.
	Close() error
}
