// ABOUTME: Oto-based audio peripheral implementation
// ABOUTME: Feeds a persistent oto player from a bounded queue with timed writes
package output

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/WaveCast/wavecast-go/pkg/audio"
	"github.com/ebitengine/oto/v3"
)

const otoWritePoll = 2 * time.Millisecond

// Oto plays audio through the platform device via ebitengine/oto. A
// persistent oto player pulls from a bounded in-process queue; Write
// fills the queue and blocks at most the caller's timeout when full.
type Oto struct {
	mu       sync.Mutex
	capacity int
	pending  []byte
	format   audio.Format

	otoCtx *oto.Context
	player *oto.Player
	ready  bool
	closed bool
}

// NewOto creates an oto peripheral with the given queue capacity
// (bytes). Zero selects a 32KiB default.
func NewOto(capacity int) *Oto {
	if capacity <= 0 {
		capacity = defaultLoopbackCapacity
	}
	return &Oto{capacity: capacity}
}

// Configure implements Peripheral. oto allows one context per process
// and only 16-bit output, so a format change after the first open is
// logged and the existing context kept, matching the library contract.
func (o *Oto) Configure(format audio.Format) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if format.BitsPerSample != 16 {
		log.Printf("Warning: oto only supports 16-bit output, ignoring requested bitDepth=%d",
			format.BitsPerSample)
	}

	if o.otoCtx != nil {
		if o.format.SampleRate != format.SampleRate || o.format.Channels != format.Channels {
			log.Printf("Warning: format change (%dHz %dch -> %dHz %dch) but oto doesn't support reinitialization, keeping existing context",
				o.format.SampleRate, o.format.Channels, format.SampleRate, format.Channels)
		}
		o.closed = false
		if err := o.otoCtx.Resume(); err != nil {
			return fmt.Errorf("resume oto context: %w", err)
		}
		return nil
	}

	op := &oto.NewContextOptions{
		SampleRate:   format.SampleRate,
		ChannelCount: format.Channels,
		Format:       oto.FormatSignedInt16LE,
	}

	ctx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return fmt.Errorf("failed to create oto context: %w", err)
	}
	<-readyChan

	o.otoCtx = ctx
	o.format = format
	o.closed = false

	// The player pulls from the queue through Read.
	o.player = o.otoCtx.NewPlayer(o)
	o.player.Play()
	o.ready = true

	return nil
}

// Read feeds the oto player. An empty queue yields silence so the
// device keeps running between ticks; the sink counts the underrun.
func (o *Oto) Read(p []byte) (int, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	n := copy(p, o.pending)
	o.pending = o.pending[n:]
	if n < len(p) {
		for i := n; i < len(p); i++ {
			p[i] = 0
		}
		n = len(p)
	}
	return n, nil
}

// Write implements Peripheral. It polls for queue space until the
// deadline and returns the short count on timeout.
func (o *Oto) Write(p []byte, timeout time.Duration) (int, error) {
	deadline := time.Now().Add(timeout)
	written := 0

	for {
		o.mu.Lock()
		if o.closed || !o.ready {
			o.mu.Unlock()
			return written, fmt.Errorf("oto peripheral not open")
		}
		free := o.capacity - len(o.pending)
		if free > 0 {
			n := len(p) - written
			if n > free {
				n = free
			}
			o.pending = append(o.pending, p[written:written+n]...)
			written += n
		}
		o.mu.Unlock()

		if written == len(p) || !time.Now().Before(deadline) {
			return written, nil
		}
		time.Sleep(otoWritePoll)
	}
}

// Buffered implements Peripheral.
func (o *Oto) Buffered() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.pending)
}

// Capacity implements Peripheral.
func (o *Oto) Capacity() int {
	return o.capacity
}

// Flush implements Peripheral by dropping the queue; the player keeps
// pulling silence until new audio arrives.
func (o *Oto) Flush() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.pending = o.pending[:0]
	return nil
}

// Close implements Peripheral. The oto context itself survives
// (one per process); the queue is dropped and the player suspended.
func (o *Oto) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return nil
	}
	o.pending = nil
	o.closed = true
	if o.otoCtx != nil {
		if err := o.otoCtx.Suspend(); err != nil {
			return fmt.Errorf("suspend oto context: %w", err)
		}
	}
	return nil
}
