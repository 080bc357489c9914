// ABOUTME: Tests for the circular byte buffer
// ABOUTME: Verifies drain ordering, wrap-around and drop-oldest overflow
package ring

import (
	"bytes"
	"testing"
)

func TestWriteReadRoundTrip(t *testing.T) {
	b := New(16)
	b.Write([]byte("hello"))

	if b.Len() != 5 {
		t.Fatalf("expected 5 buffered, got %d", b.Len())
	}
	if got := b.ReadUpTo(10); !bytes.Equal(got, []byte("hello")) {
		t.Errorf("expected hello, got %q", got)
	}
	if got := b.ReadUpTo(10); got != nil {
		t.Errorf("expected nil from empty buffer, got %q", got)
	}
}

func TestReadUpToBounded(t *testing.T) {
	b := New(16)
	b.Write([]byte("abcdefgh"))

	if got := b.ReadUpTo(3); !bytes.Equal(got, []byte("abc")) {
		t.Errorf("expected abc, got %q", got)
	}
	if got := b.ReadUpTo(100); !bytes.Equal(got, []byte("defgh")) {
		t.Errorf("expected defgh, got %q", got)
	}
}

func TestWrapAround(t *testing.T) {
	b := New(8)
	b.Write([]byte("abcdef"))
	b.ReadUpTo(4)
	b.Write([]byte("ghij")) // wraps past the end

	if got := b.ReadUpTo(8); !bytes.Equal(got, []byte("efghij")) {
		t.Errorf("expected efghij, got %q", got)
	}
}

func TestOverflowDropsOldest(t *testing.T) {
	b := New(8)
	b.Write([]byte("12345678"))
	b.Write([]byte("AB"))

	if b.Dropped() == 0 {
		t.Error("expected dropped bytes to be counted")
	}
	got := b.ReadUpTo(8)
	if !bytes.HasSuffix(got, []byte("AB")) {
		t.Errorf("newest data must survive overflow, got %q", got)
	}
	if bytes.HasPrefix(got, []byte("12")) {
		t.Errorf("oldest data should have been dropped, got %q", got)
	}
}

func TestReset(t *testing.T) {
	b := New(8)
	b.Write([]byte("abc"))
	b.Reset()

	if b.Len() != 0 {
		t.Errorf("expected empty after reset, got %d", b.Len())
	}
	b.Write([]byte("xy"))
	if got := b.ReadUpTo(8); !bytes.Equal(got, []byte("xy")) {
		t.Errorf("expected xy after reset, got %q", got)
	}
}
