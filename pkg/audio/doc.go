// ABOUTME: Audio fundamentals package providing core types and utilities
// ABOUTME: Defines Format and software volume helpers shared by sink and session
// Package audio provides fundamental audio types for the streaming pipeline.
//
// The pipeline moves encoded stream bytes opaquely; this package only
// describes the PCM shape the output peripheral is configured for and
// implements linear software volume scaling of 16-bit samples.
package audio
