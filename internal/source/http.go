// ABOUTME: HTTP stream source implementation for ICY internet radio
// ABOUTME: Background reader fills a ring buffer the tick loop drains non-blocking
package source

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/WaveCast/wavecast-go/internal/ring"
)

const (
	defaultBufferBytes    = 32 * 1024
	defaultConnectTimeout = 15 * time.Second
	defaultReadChunk      = 4096
)

// HTTPConfig configures an HTTP stream source.
type HTTPConfig struct {
	UserAgent      string
	ConnectTimeout time.Duration
	BufferBytes    int
	Headers        map[string]string
}

// HTTPSource implements wavecast.Source over a chunked HTTP GET. A
// reader goroutine drains the response body into a ring buffer so
// PullAvailable returns immediately with whatever has arrived.
type HTTPSource struct {
	cfg    HTTPConfig
	client *http.Client
	buffer *ring.Buffer

	mu     sync.Mutex
	body   io.ReadCloser
	cancel context.CancelFunc
	gen    uint64
	alive  atomic.Bool
}

// NewHTTP creates an HTTP source.
func NewHTTP(cfg HTTPConfig) *HTTPSource {
	if cfg.ConnectTimeout == 0 {
		cfg.ConnectTimeout = defaultConnectTimeout
	}
	if cfg.BufferBytes <= 0 {
		cfg.BufferBytes = defaultBufferBytes
	}

	transport := &http.Transport{
		DisableCompression:    true,
		ExpectContinueTimeout: 1 * time.Second,
		ResponseHeaderTimeout: cfg.ConnectTimeout,
	}

	return &HTTPSource{
		cfg: cfg,
		client: &http.Client{
			Transport: transport,
			Timeout:   0, // streaming body, no total timeout
		},
		buffer: ring.New(cfg.BufferBytes),
	}
}

// Connect performs one stream handshake and starts the background
// reader. Any previous connection is released first.
func (h *HTTPSource) Connect(ctx context.Context, uri string) (map[string]string, error) {
	h.Close()

	// The stream context outlives Connect: it governs the body reads.
	// The handshake itself is bounded by the transport's response
	// header timeout.
	streamCtx, cancel := context.WithCancel(ctx)

	req, err := http.NewRequestWithContext(streamCtx, http.MethodGet, uri, nil)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Icy-MetaData", "1")
	req.Header.Set("Accept", "*/*")
	if h.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", h.cfg.UserAgent)
	}
	for k, v := range h.cfg.Headers {
		req.Header.Set(k, v)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("http request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		cancel()
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	headers := make(map[string]string, len(resp.Header))
	for k, vs := range resp.Header {
		if len(vs) > 0 {
			headers[strings.ToLower(k)] = vs[0]
		}
	}

	h.mu.Lock()
	h.body = resp.Body
	h.cancel = cancel
	h.gen++
	gen := h.gen
	h.mu.Unlock()

	h.buffer.Reset()
	h.alive.Store(true)
	go h.readLoop(streamCtx, resp.Body, gen)

	return headers, nil
}

// readLoop drains the response body into the ring buffer until the
// stream ends or the connection is closed. The generation check stops
// a reader outliving its connection from marking a newer one dead.
func (h *HTTPSource) readLoop(ctx context.Context, body io.ReadCloser, gen uint64) {
	defer func() {
		h.mu.Lock()
		if h.gen == gen {
			h.alive.Store(false)
		}
		h.mu.Unlock()
	}()

	buf := make([]byte, defaultReadChunk)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		n, err := body.Read(buf)
		if n > 0 {
			h.buffer.Write(buf[:n])
		}
		if err != nil {
			if err != io.EOF && ctx.Err() == nil {
				log.Printf("Stream read ended: %v", err)
			}
			return
		}
	}
}

// PullAvailable implements wavecast.Source.
func (h *HTTPSource) PullAvailable(max int) []byte {
	return h.buffer.ReadUpTo(max)
}

// IsAlive implements wavecast.Source. A dead reader with buffered
// bytes still pending counts as alive until the buffer drains.
func (h *HTTPSource) IsAlive() bool {
	return h.alive.Load() || h.buffer.Len() > 0
}

// Close implements wavecast.Source.
func (h *HTTPSource) Close() error {
	h.mu.Lock()
	body := h.body
	cancel := h.cancel
	h.body = nil
	h.cancel = nil
	h.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if body != nil {
		body.Close()
	}
	h.alive.Store(false)
	h.buffer.Reset()
	return nil
}

// Dropped returns the bytes discarded because the tick loop fell
// behind the stream.
func (h *HTTPSource) Dropped() uint64 {
	return h.buffer.Dropped()
}
