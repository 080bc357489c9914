// ABOUTME: High-level streaming session API
// ABOUTME: Poll-driven state machine moving stream bytes to an audio sink
// Package wavecast implements the internet-radio streaming pipeline.
//
// A Session pulls bytes from a Source (an HTTP stream collaborator),
// extracts in-band ICY metadata, stages bytes through two fixed
// buffers and forwards frame-aligned chunks to an audio Sink. The
// session has no internal goroutine: an external driver calls Tick at
// a fixed cadence and every operation returns without blocking beyond
// the sink's write timeout.
package wavecast
