// ABOUTME: Audio output package wrapping synchronous playback peripherals
// ABOUTME: Provides the Sink wrapper, oto backend and in-memory loopback backend
// Package output wraps a synchronous audio peripheral behind a Sink
// that validates formats, applies write timeouts and tracks
// write/overflow/underrun statistics.
//
// Two Peripheral backends ship with the package: Oto plays through the
// platform audio device via ebitengine/oto, Loopback buffers in memory
// for tests and machines without a sound device.
package output
