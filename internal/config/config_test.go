// ABOUTME: Tests for the settings store
// ABOUTME: Verifies defaults, YAML round-trip and missing-backend handling
package config

import (
	"io/fs"
	"path/filepath"
	"testing"
)

type memBackend struct {
	data []byte
	err  error
}

func (m *memBackend) Load() ([]byte, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.data, nil
}

func (m *memBackend) Save(data []byte) error {
	m.data = data
	return nil
}

func TestDefaultsWhenBackendEmpty(t *testing.T) {
	store := NewStore(&memBackend{err: fs.ErrNotExist})

	if err := store.Load(); err != nil {
		t.Fatalf("missing settings must not error: %v", err)
	}
	got := store.Settings()
	if got.StreamURL != DefaultStreamURL {
		t.Errorf("expected default URL, got %q", got.StreamURL)
	}
	if got.Volume != DefaultVolume {
		t.Errorf("expected default volume %d, got %d", DefaultVolume, got.Volume)
	}
	if got.DeviceName != DefaultDeviceName {
		t.Errorf("expected default device name, got %q", got.DeviceName)
	}
}

func TestLoadParsesYAML(t *testing.T) {
	backend := &memBackend{data: []byte(`
stream_url: "http://radio.example/live"
volume: 40
device_name: kitchen
auto_start: false
`)}
	store := NewStore(backend)

	if err := store.Load(); err != nil {
		t.Fatalf("load: %v", err)
	}
	got := store.Settings()
	if got.StreamURL != "http://radio.example/live" {
		t.Errorf("unexpected URL %q", got.StreamURL)
	}
	if got.Volume != 40 {
		t.Errorf("expected volume 40, got %d", got.Volume)
	}
	if got.AutoStart {
		t.Error("expected auto_start false")
	}
}

func TestLoadRejectsGarbageVolume(t *testing.T) {
	store := NewStore(&memBackend{data: []byte("volume: 250\n")})

	if err := store.Load(); err != nil {
		t.Fatalf("load: %v", err)
	}
	if store.Settings().Volume != DefaultVolume {
		t.Errorf("out-of-range volume must fall back to default, got %d", store.Settings().Volume)
	}
}

func TestLoadBadYAML(t *testing.T) {
	store := NewStore(&memBackend{data: []byte("\t:not yaml")})
	if err := store.Load(); err == nil {
		t.Error("expected parse error")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	backend := &memBackend{err: fs.ErrNotExist}
	store := NewStore(backend)
	store.Load()

	s := store.Settings()
	s.StreamURL = "http://radio.example/other"
	s.Volume = 12
	store.Update(s)

	if err := store.Save(); err != nil {
		t.Fatalf("save: %v", err)
	}

	backend.err = nil
	reloaded := NewStore(backend)
	if err := reloaded.Load(); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got := reloaded.Settings(); got.StreamURL != s.StreamURL || got.Volume != 12 {
		t.Errorf("round-trip mismatch: %+v", got)
	}
}

func TestFileBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wavecast.yaml")
	store := NewStore(FileBackend{Path: path})

	if err := store.Load(); err != nil {
		t.Fatalf("load with missing file: %v", err)
	}
	if err := store.Save(); err != nil {
		t.Fatalf("save: %v", err)
	}

	again := NewStore(FileBackend{Path: path})
	if err := again.Load(); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if again.Settings() != store.Settings() {
		t.Errorf("file round-trip mismatch: %+v vs %+v", again.Settings(), store.Settings())
	}
}
