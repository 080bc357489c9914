// ABOUTME: Streaming session state machine and tick loop
// ABOUTME: Manages connect/buffer/play transitions, retries and metadata extraction
package wavecast

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/WaveCast/wavecast-go/internal/stage"
	"github.com/WaveCast/wavecast-go/pkg/audio"
	"github.com/WaveCast/wavecast-go/pkg/icy"
	"github.com/google/uuid"
)

// State describes the session lifecycle.
type State int

const (
	StateStopped State = iota
	StateConnecting
	StateBuffering
	StatePlaying
	StatePaused
	StateError
)

func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateConnecting:
		return "connecting"
	case StateBuffering:
		return "buffering"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Session errors surfaced through OnError and the state accessor.
var (
	ErrHandshakeFailed = errors.New("stream handshake failed")
	ErrIngestLost      = errors.New("stream connection lost")
	ErrNoSource        = errors.New("no stream source configured")
)

const (
	defaultIngestCapacity = 4096
	defaultOutputCapacity = 8192
	defaultChunkBytes     = 512
	defaultFrameBytes     = 4 // 2 channels x 16-bit
	defaultRetryLimit     = 3
	defaultRetryBackoff   = 500 * time.Millisecond
	defaultRecoveryDelay  = time.Second
	defaultWriteTimeout   = 100 * time.Millisecond
	defaultVolume         = 75

	// Output stage occupancy required to leave Buffering, as a
	// divisor of capacity (25%).
	fillThresholdDiv = 4
)

// Config holds session configuration. Zero fields get defaults.
type Config struct {
	// Source is the network collaborator. Required.
	Source Source

	// Sink receives forwarded audio bytes. Required.
	Sink Sink

	// IngestCapacity and OutputCapacity size the two byte stages.
	IngestCapacity int
	OutputCapacity int

	// ChunkBytes bounds the bytes offered to the sink per tick.
	ChunkBytes int

	// FrameBytes is the sample frame size forwarded chunks align to.
	FrameBytes int

	// RetryLimit bounds connect attempts per Connect call.
	RetryLimit int

	// RetryBackoff delays consecutive connect attempts.
	RetryBackoff time.Duration

	// RecoveryDelay delays the automatic reconnect after a mid-stream
	// loss.
	RecoveryDelay time.Duration

	// WriteTimeout bounds how long one tick may wait on the sink.
	WriteTimeout time.Duration

	// Volume is the initial volume (0-100).
	Volume int

	// OnStateChange is called when the session state changes.
	OnStateChange func(State)

	// OnMetadata is called when an in-band metadata token is parsed.
	OnMetadata func(icy.TrackInfo)

	// OnError is called when errors occur.
	OnError func(error)
}

// Stats contains cumulative session statistics.
type Stats struct {
	BytesReceived  uint64
	BytesForwarded uint64
	MetadataCount  uint64
	Reconnects     uint64
}

// Session is the streaming pipeline state machine. It is created once
// and driven by Tick from a single goroutine; none of its methods
// block beyond the configured sink write timeout.
type Session struct {
	config Config
	id     string

	state     State
	sourceURI string

	ingest *stage.Stage
	out    *stage.Stage

	retryCount int
	retryAt    time.Time

	autoRecover bool
	recoverAt   time.Time

	volume  int
	scratch []byte

	// Bytes of the output stage's front frame already accepted by the
	// sink; the stage only ever drops whole frames so volume scaling
	// always starts on a sample boundary.
	partial int

	meta    icy.TrackInfo
	hasMeta bool

	bitrate     int
	sampleRate  int
	stationName string

	stats Stats

	ctx    context.Context
	cancel context.CancelFunc
}

// NewSession creates a session with the given configuration.
func NewSession(config Config) (*Session, error) {
	if config.Source == nil {
		return nil, ErrNoSource
	}
	if config.Sink == nil {
		return nil, errors.New("no audio sink configured")
	}
	if config.IngestCapacity <= 0 {
		config.IngestCapacity = defaultIngestCapacity
	}
	if config.OutputCapacity <= 0 {
		config.OutputCapacity = defaultOutputCapacity
	}
	if config.ChunkBytes <= 0 {
		config.ChunkBytes = defaultChunkBytes
	}
	if config.FrameBytes <= 0 {
		config.FrameBytes = defaultFrameBytes
	}
	if config.RetryLimit <= 0 {
		config.RetryLimit = defaultRetryLimit
	}
	if config.RetryBackoff == 0 {
		config.RetryBackoff = defaultRetryBackoff
	}
	if config.RecoveryDelay == 0 {
		config.RecoveryDelay = defaultRecoveryDelay
	}
	if config.WriteTimeout == 0 {
		config.WriteTimeout = defaultWriteTimeout
	}
	if config.Volume == 0 {
		config.Volume = defaultVolume
	}

	ctx, cancel := context.WithCancel(context.Background())

	s := &Session{
		config:  config,
		id:      uuid.New().String(),
		state:   StateStopped,
		ingest:  stage.New(config.IngestCapacity),
		out:     stage.New(config.OutputCapacity),
		volume:  clampVolume(config.Volume),
		scratch: make([]byte, config.ChunkBytes),
		ctx:     ctx,
		cancel:  cancel,
	}
	return s, nil
}

// Connect stores the stream address and begins the handshake on the
// following ticks. An active session is stopped first.
func (s *Session) Connect(uri string) error {
	if uri == "" {
		return errors.New("empty stream uri")
	}
	if s.state != StateStopped {
		s.Stop()
	}

	s.sourceURI = uri
	s.ingest.Reset()
	s.out.Reset()
	s.partial = 0
	s.retryCount = 0
	s.retryAt = time.Time{}
	s.autoRecover = false
	s.bitrate = 0
	s.sampleRate = 0
	s.stationName = ""

	log.Printf("Session %s: connecting to %s", s.id, uri)
	s.setState(StateConnecting)
	return nil
}

// Stop cancels streaming from any state. Both stages are emptied, the
// output peripheral flushed and the network handle released before
// Stop returns. Calling it repeatedly is harmless.
func (s *Session) Stop() {
	if s.state == StateStopped {
		return
	}

	if err := s.config.Sink.Flush(); err != nil {
		s.notifyError(fmt.Errorf("flush on stop: %w", err))
	}
	if err := s.config.Source.Close(); err != nil {
		s.notifyError(fmt.Errorf("close source: %w", err))
	}

	s.ingest.Reset()
	s.out.Reset()
	s.partial = 0
	s.meta = icy.TrackInfo{}
	s.hasMeta = false
	s.retryCount = 0
	s.autoRecover = false

	s.setState(StateStopped)
}

// Pause suspends output while ingest continues filling the stages.
func (s *Session) Pause() {
	if s.state == StatePlaying {
		s.setState(StatePaused)
	}
}

// Resume continues playback after Pause.
func (s *Session) Resume() {
	if s.state == StatePaused {
		s.setState(StatePlaying)
	}
}

// SetVolume sets the output volume, clamping out-of-range input.
func (s *Session) SetVolume(volume int) {
	s.volume = clampVolume(volume)
}

// Close stops the session and cancels its context.
func (s *Session) Close() {
	s.Stop()
	s.cancel()
}

// Tick advances the pipeline one step. The caller owns the cadence;
// one tick pulls available network bytes, extracts metadata, moves
// bytes between the stages and offers one bounded chunk to the sink.
func (s *Session) Tick() {
	switch s.state {
	case StateStopped:
		return
	case StateError:
		s.tickRecover()
	case StateConnecting:
		s.tickConnect()
	case StateBuffering, StatePlaying, StatePaused:
		s.tickStream()
	}
}

// tickRecover re-enters Connecting after a mid-stream loss once the
// recovery delay has passed. Handshake exhaustion does not recover
// automatically; it waits for an explicit Connect.
func (s *Session) tickRecover() {
	if !s.autoRecover || time.Now().Before(s.recoverAt) {
		return
	}
	s.autoRecover = false
	s.retryCount = 0
	s.retryAt = time.Time{}
	s.stats.Reconnects++
	log.Printf("Session %s: attempting automatic reconnect to %s", s.id, s.sourceURI)
	s.setState(StateConnecting)
}

// tickConnect performs one bounded handshake attempt per backoff
// window. The backoff is a deadline checked per tick, never a sleep.
func (s *Session) tickConnect() {
	if time.Now().Before(s.retryAt) {
		return
	}

	headers, err := s.config.Source.Connect(s.ctx, s.sourceURI)
	if err != nil {
		s.retryCount++
		if s.retryCount >= s.config.RetryLimit {
			s.notifyError(fmt.Errorf("%w after %d attempts: %v", ErrHandshakeFailed, s.retryCount, err))
			s.autoRecover = false
			s.setState(StateError)
			return
		}
		log.Printf("Session %s: handshake attempt %d/%d failed: %v",
			s.id, s.retryCount, s.config.RetryLimit, err)
		s.retryAt = time.Now().Add(s.config.RetryBackoff)
		return
	}

	s.applyStreamHeaders(headers)
	s.setState(StateBuffering)
}

// tickStream runs the per-tick pipeline: ingest pull, metadata scan,
// stage transfer, then output forward. The ordering is load-bearing:
// a metadata token must never reach the output stage.
func (s *Session) tickStream() {
	pulled := s.config.Source.PullAvailable(s.ingest.Free())
	if len(pulled) > 0 {
		s.ingest.Write(pulled)
		s.stats.BytesReceived += uint64(len(pulled))
	} else if !s.config.Source.IsAlive() {
		s.handleIngestLost()
		return
	}

	if s.ingest.Len() > 0 {
		s.scanMetadata()
	}

	// Bytes that may belong to a half-arrived metadata token stay in
	// the ingest stage until the closing marker shows up.
	view := s.ingest.ReadSlice()
	n := s.out.Write(view[:icy.SafeSpan(view)])
	if n > 0 {
		if err := s.ingest.Consume(n); err != nil {
			s.notifyError(fmt.Errorf("ingest consume: %w", err))
		}
	}

	if s.state == StateBuffering && s.out.Len() >= s.out.Cap()/fillThresholdDiv {
		log.Printf("Session %s: buffering complete, starting playback", s.id)
		s.setState(StatePlaying)
	}

	if s.state == StatePlaying {
		s.forwardChunk()
	}
}

// scanMetadata extracts a complete StreamTitle token from the ingest
// stage and strips it from the payload. Incomplete tokens stay in the
// stage for a later tick.
func (s *Session) scanMetadata() {
	info, start, end, ok := icy.FindToken(s.ingest.ReadSlice())
	if !ok {
		return
	}
	if err := s.ingest.Cut(start, end); err != nil {
		s.notifyError(fmt.Errorf("strip metadata token: %w", err))
		return
	}

	s.meta = info
	s.hasMeta = true
	s.stats.MetadataCount++
	log.Printf("Session %s: now playing: %s - %s", s.id, info.Artist, info.Title)

	if s.config.OnMetadata != nil {
		s.config.OnMetadata(info)
	}
}

// forwardChunk offers one frame-aligned chunk to the sink. The stage
// only drops whole frames: when the sink accepts a count that splits a
// frame, the leftover bytes of that frame are offered again next tick
// so samples never shift off their 16-bit boundaries.
func (s *Session) forwardChunk() {
	n := s.out.Len()
	if n > s.config.ChunkBytes {
		n = s.config.ChunkBytes
	}
	n -= n % s.config.FrameBytes
	if n == 0 {
		return
	}

	payload := s.out.ReadSlice()[:n]
	audio.ScaleVolume16(s.scratch[:n], payload, s.volume)

	wrote, err := s.config.Sink.Write(s.scratch[s.partial:n], s.config.WriteTimeout)
	if err != nil {
		// Peripheral failures are fatal until an external reset.
		s.notifyError(fmt.Errorf("sink write: %w", err))
		s.autoRecover = false
		s.setState(StateError)
		return
	}
	if wrote > 0 {
		delivered := s.partial + wrote
		whole := delivered - delivered%s.config.FrameBytes
		s.partial = delivered - whole
		if whole > 0 {
			if err := s.out.Consume(whole); err != nil {
				s.notifyError(fmt.Errorf("output consume: %w", err))
			}
		}
		s.stats.BytesForwarded += uint64(wrote)
	}
}

// handleIngestLost handles a dead mid-stream connection: flush, drop
// the handle and schedule an automatic reconnect to the same URI.
func (s *Session) handleIngestLost() {
	s.notifyError(fmt.Errorf("%w: %s", ErrIngestLost, s.sourceURI))

	if err := s.config.Sink.Flush(); err != nil {
		s.notifyError(fmt.Errorf("flush on ingest loss: %w", err))
	}
	if err := s.config.Source.Close(); err != nil {
		s.notifyError(fmt.Errorf("close source: %w", err))
	}

	// The flush discarded any partially delivered frame; it goes out
	// whole after the reconnect.
	s.partial = 0
	s.autoRecover = true
	s.recoverAt = time.Now().Add(s.config.RecoveryDelay)
	s.setState(StateError)
}

// applyStreamHeaders records advisory ICY negotiation fields.
func (s *Session) applyStreamHeaders(headers map[string]string) {
	get := func(key string) string {
		for k, v := range headers {
			if strings.EqualFold(k, key) {
				return v
			}
		}
		return ""
	}

	if v := get("icy-br"); v != "" {
		if br, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			s.bitrate = br
		}
	}
	if v := get("icy-sr"); v != "" {
		if sr, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			s.sampleRate = sr
		}
	}
	s.stationName = get("icy-name")

	log.Printf("Session %s: stream connected (station=%q bitrate=%d sampleRate=%d)",
		s.id, s.stationName, s.bitrate, s.sampleRate)
}

func (s *Session) setState(state State) {
	if s.state == state {
		return
	}
	s.state = state
	if s.config.OnStateChange != nil {
		s.config.OnStateChange(state)
	}
}

func (s *Session) notifyError(err error) {
	if s.config.OnError != nil {
		s.config.OnError(err)
	} else {
		log.Printf("Session %s error: %v", s.id, err)
	}
}

func clampVolume(volume int) int {
	if volume < 0 {
		return 0
	}
	if volume > 100 {
		return 100
	}
	return volume
}

// ID returns the session's unique identifier.
func (s *Session) ID() string { return s.id }

// State returns the current session state.
func (s *Session) State() State { return s.state }

// URI returns the configured stream address.
func (s *Session) URI() string { return s.sourceURI }

// Volume returns the current volume (0-100).
func (s *Session) Volume() int { return s.volume }

// RetryCount returns the connect attempts made since the last Connect.
func (s *Session) RetryCount() int { return s.retryCount }

// BufferUtilization returns output stage occupancy as a percent.
func (s *Session) BufferUtilization() int {
	return s.out.Len() * 100 / s.out.Cap()
}

// Bitrate returns the advertised stream bitrate (kbps, 0 if unknown).
func (s *Session) Bitrate() int { return s.bitrate }

// SampleRate returns the advertised sample rate (Hz, 0 if unknown).
func (s *Session) SampleRate() int { return s.sampleRate }

// StationName returns the advertised station name.
func (s *Session) StationName() string { return s.stationName }

// CurrentArtist returns the artist from the latest metadata token.
func (s *Session) CurrentArtist() string { return s.meta.Artist }

// CurrentTitle returns the title from the latest metadata token.
func (s *Session) CurrentTitle() string { return s.meta.Title }

// HasMetadata reports whether any metadata token has been parsed.
func (s *Session) HasMetadata() bool { return s.hasMeta }

// Stats returns a copy of the cumulative statistics.
func (s *Session) Stats() Stats { return s.stats }
