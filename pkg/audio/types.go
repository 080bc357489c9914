// ABOUTME: Audio type definitions
// ABOUTME: Defines output formats and 16-bit sample volume scaling
package audio

import (
	"encoding/binary"
	"fmt"
)

// Format describes a PCM output format.
type Format struct {
	SampleRate    int
	BitsPerSample int
	Channels      int
}

// Validate checks the format against the ranges the output peripheral accepts.
func (f Format) Validate() error {
	if f.SampleRate < 8000 || f.SampleRate > 192000 {
		return fmt.Errorf("sample rate %d out of range [8000,192000]", f.SampleRate)
	}
	switch f.BitsPerSample {
	case 8, 16, 24, 32:
	default:
		return fmt.Errorf("unsupported bits per sample: %d", f.BitsPerSample)
	}
	if f.Channels != 1 && f.Channels != 2 {
		return fmt.Errorf("unsupported channel count: %d", f.Channels)
	}
	return nil
}

// FrameSize returns the byte size of one sample frame (all channels).
func (f Format) FrameSize() int {
	return f.Channels * f.BitsPerSample / 8
}

// BytesPerSecond returns the PCM data rate for this format.
func (f Format) BytesPerSecond() int {
	return f.SampleRate * f.FrameSize()
}

// Aligned reports whether a payload length is a whole number of frames.
func (f Format) Aligned(n int) bool {
	fs := f.FrameSize()
	return fs > 0 && n%fs == 0
}

// ScaleVolume16 copies src into dst applying linear volume scaling to
// little-endian 16-bit samples. Volume 100 is a plain copy, volume 0
// yields silence. dst must be at least len(src) bytes; a trailing odd
// byte is copied unscaled.
func ScaleVolume16(dst, src []byte, volume int) {
	if volume >= 100 {
		copy(dst, src)
		return
	}

	multiplier := VolumeMultiplier(volume)
	n := len(src) / 2 * 2
	for i := 0; i < n; i += 2 {
		sample := int16(binary.LittleEndian.Uint16(src[i:]))
		scaled := int16(float64(sample) * multiplier)
		binary.LittleEndian.PutUint16(dst[i:], uint16(scaled))
	}
	if n < len(src) {
		dst[n] = src[n]
	}
}

// VolumeMultiplier calculates the linear multiplier for a 0-100 volume.
func VolumeMultiplier(volume int) float64 {
	if volume <= 0 {
		return 0.0
	}
	if volume >= 100 {
		return 1.0
	}
	return float64(volume) / 100.0
}
