// Package pcm provides types and utilities for working with raw linear PCM audio streams.
//
// The package defines the Format descriptor used across the renderer (sample rate,
// bit depth, interleaved channel count) together with the size and duration math a
// block-based streaming pipeline needs.
//
// Key types:
//   - Format: Describes a raw PCM stream and converts between bytes, frames and durations
//   - CycleSizer: Yields per-cycle block sizes, spreading fractional frames across cycles
//
// Example usage:
//
//	// CD audio, 10ms render cycles
//	format := pcm.L16Stereo44k1
//	sizer := pcm.NewCycleSizer(format, 10*time.Millisecond)
//
//	// Size of the next block to request
//	n := sizer.NextBytes()
//
//	// Bytes needed for one second of audio
//	rate := format.BytesRate()
package pcm
