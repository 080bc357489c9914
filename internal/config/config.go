// ABOUTME: Settings store with an injectable persistence backend
// ABOUTME: YAML serialization of stream address, volume and device identity
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// Defaults applied when the backend holds no settings.
const (
	DefaultStreamURL  = "http://ice1.somafm.com/groovesalad-128-mp3"
	DefaultVolume     = 75
	DefaultDeviceName = "wavecast"
)

// Settings are the persisted appliance settings.
type Settings struct {
	StreamURL  string `yaml:"stream_url"`
	Volume     int    `yaml:"volume"`
	DeviceName string `yaml:"device_name"`
	AutoStart  bool   `yaml:"auto_start"`
}

// Backend persists raw settings bytes. Injectable so tests and other
// storage media do not need the filesystem.
type Backend interface {
	Load() ([]byte, error)
	Save([]byte) error
}

// FileBackend stores settings in a file.
type FileBackend struct {
	Path string
}

func (f FileBackend) Load() ([]byte, error) {
	return os.ReadFile(f.Path)
}

func (f FileBackend) Save(data []byte) error {
	return os.WriteFile(f.Path, data, 0o644)
}

// Store reads settings once at startup and writes them back on save.
type Store struct {
	backend  Backend
	settings Settings
}

// NewStore creates a store with defaults applied.
func NewStore(backend Backend) *Store {
	return &Store{backend: backend, settings: defaults()}
}

func defaults() Settings {
	return Settings{
		StreamURL:  DefaultStreamURL,
		Volume:     DefaultVolume,
		DeviceName: DefaultDeviceName,
		AutoStart:  true,
	}
}

// Load reads settings from the backend. A missing file is not an
// error; defaults remain in place.
func (s *Store) Load() error {
	data, err := s.backend.Load()
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load settings: %w", err)
	}

	loaded := defaults()
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return fmt.Errorf("parse settings: %w", err)
	}
	if loaded.StreamURL == "" {
		loaded.StreamURL = DefaultStreamURL
	}
	if loaded.Volume < 0 || loaded.Volume > 100 {
		loaded.Volume = DefaultVolume
	}
	if loaded.DeviceName == "" {
		loaded.DeviceName = DefaultDeviceName
	}

	s.settings = loaded
	return nil
}

// Save writes the current settings to the backend.
func (s *Store) Save() error {
	data, err := yaml.Marshal(s.settings)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := s.backend.Save(data); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

// Settings returns a copy of the current settings.
func (s *Store) Settings() Settings {
	return s.settings
}

// Update replaces the current settings.
func (s *Store) Update(settings Settings) {
	s.settings = settings
}
