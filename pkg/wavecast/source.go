// ABOUTME: Collaborator interfaces consumed by the session
// ABOUTME: Defines the network source and audio sink contracts
package wavecast

import (
	"context"
	"time"
)

// Source is the network collaborator feeding the session. The
// reference implementation lives in internal/source; custom sources
// only need these four operations.
type Source interface {
	// Connect performs one stream handshake and returns the response
	// headers (icy-br, icy-sr, icy-name and friends) as an opaque map.
	Connect(ctx context.Context, uri string) (map[string]string, error)

	// PullAvailable returns at most max bytes without blocking; nil or
	// empty when nothing is ready.
	PullAvailable(max int) []byte

	// IsAlive reports whether the stream connection is still open.
	IsAlive() bool

	// Close releases the connection. Idempotent.
	Close() error
}

// Sink receives PCM-shaped bytes from the session. *output.Sink
// satisfies it.
type Sink interface {
	Write(p []byte, timeout time.Duration) (int, error)
	Flush() error
}
