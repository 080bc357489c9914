// ABOUTME: Tests for the HTTP stream source
// ABOUTME: Verifies handshake headers, non-blocking pulls and liveness tracking
package source

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/WaveCast/wavecast-go/pkg/wavecast"
)

func TestHTTPSourceImplementsSource(t *testing.T) {
	var _ wavecast.Source = (*HTTPSource)(nil)
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestConnectAndPull(t *testing.T) {
	payload := bytes.Repeat([]byte{0xAA}, 1024)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Icy-MetaData") != "1" {
			t.Errorf("expected Icy-MetaData: 1 header")
		}
		if r.Header.Get("User-Agent") != "wavecast-test/1.0" {
			t.Errorf("unexpected user agent %q", r.Header.Get("User-Agent"))
		}
		w.Header().Set("Content-Type", "audio/mpeg")
		w.Header().Set("icy-name", "Test FM")
		w.Header().Set("icy-br", "128")
		w.WriteHeader(http.StatusOK)
		w.Write(payload)
	}))
	defer server.Close()

	src := NewHTTP(HTTPConfig{UserAgent: "wavecast-test/1.0"})
	defer src.Close()

	headers, err := src.Connect(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if headers["icy-name"] != "Test FM" {
		t.Errorf("expected icy-name header, got %v", headers)
	}
	if headers["icy-br"] != "128" {
		t.Errorf("expected icy-br header, got %v", headers)
	}

	var got []byte
	waitFor(t, time.Second, func() bool {
		got = append(got, src.PullAvailable(4096)...)
		return len(got) == len(payload)
	})
	if !bytes.Equal(got, payload) {
		t.Error("pulled bytes differ from payload")
	}
}

func TestPullAvailableBounded(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(bytes.Repeat([]byte{0xBB}, 256))
	}))
	defer server.Close()

	src := NewHTTP(HTTPConfig{})
	defer src.Close()

	if _, err := src.Connect(context.Background(), server.URL); err != nil {
		t.Fatalf("connect: %v", err)
	}

	if src.PullAvailable(0) != nil {
		t.Error("max 0 must return nil")
	}
	waitFor(t, time.Second, func() bool {
		chunk := src.PullAvailable(100)
		if chunk == nil {
			return false
		}
		if len(chunk) > 100 {
			t.Fatalf("pull returned %d bytes, max was 100", len(chunk))
		}
		return true
	})
}

func TestConnectNonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer server.Close()

	src := NewHTTP(HTTPConfig{})
	if _, err := src.Connect(context.Background(), server.URL); err == nil {
		t.Fatal("expected error on 404")
	}
	if src.IsAlive() {
		t.Error("failed connect must not report alive")
	}
}

func TestConnectRefused(t *testing.T) {
	src := NewHTTP(HTTPConfig{})
	if _, err := src.Connect(context.Background(), "http://127.0.0.1:1/stream"); err == nil {
		t.Fatal("expected connection error")
	}
}

func TestIsAliveAfterStreamEnd(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("short stream"))
	}))
	defer server.Close()

	src := NewHTTP(HTTPConfig{})
	defer src.Close()

	if _, err := src.Connect(context.Background(), server.URL); err != nil {
		t.Fatalf("connect: %v", err)
	}

	// Once the body ends and the buffer drains, the source is dead.
	waitFor(t, time.Second, func() bool {
		src.PullAvailable(4096)
		return !src.IsAlive()
	})
}

func TestCloseIdempotent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(bytes.Repeat([]byte{0xCC}, 64))
	}))
	defer server.Close()

	src := NewHTTP(HTTPConfig{})
	if _, err := src.Connect(context.Background(), server.URL); err != nil {
		t.Fatalf("connect: %v", err)
	}

	if err := src.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := src.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	if src.IsAlive() {
		t.Error("closed source must not report alive")
	}
	if src.PullAvailable(64) != nil {
		t.Error("closed source must not return bytes")
	}
}

func TestReconnectNotKilledByPreviousReader(t *testing.T) {
	// The reader goroutine of a replaced connection winds down after
	// the next Connect has already succeeded; it must not mark the
	// fresh connection dead.
	block := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.(http.Flusher).Flush()
		select {
		case <-block:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(block)

	src := NewHTTP(HTTPConfig{})
	defer src.Close()

	if _, err := src.Connect(context.Background(), server.URL); err != nil {
		t.Fatalf("connect: %v", err)
	}
	if _, err := src.Connect(context.Background(), server.URL); err != nil {
		t.Fatalf("reconnect: %v", err)
	}

	// Give the replaced reader time to exit, then hold the liveness
	// assertion over a window in which it would have flipped the flag.
	deadline := time.Now().Add(200 * time.Millisecond)
	for time.Now().Before(deadline) {
		if !src.IsAlive() {
			t.Fatal("fresh connection reported dead after reconnect")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestReconnectReusesSource(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(bytes.Repeat([]byte{0xDD}, 32))
	}))
	defer server.Close()

	src := NewHTTP(HTTPConfig{})
	defer src.Close()

	for i := 0; i < 2; i++ {
		if _, err := src.Connect(context.Background(), server.URL); err != nil {
			t.Fatalf("connect %d: %v", i, err)
		}
		waitFor(t, time.Second, func() bool { return len(src.PullAvailable(64)) > 0 })
	}
}
