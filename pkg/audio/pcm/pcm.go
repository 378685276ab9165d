package pcm

import (
	"errors"
	"fmt"
	"time"
)

// Common stereo formats. The renderer treats these as presets only;
// any rate/depth/channel combination that passes Validate is accepted.
var (
	// L16Stereo44k1 is CD audio: audio/L16; rate=44100; channels=2.
	L16Stereo44k1 = Format{SampleRate: 44100, BitDepth: 16, Channels: 2}
	// L16Stereo48 is audio/L16; rate=48000; channels=2.
	L16Stereo48 = Format{SampleRate: 48000, BitDepth: 16, Channels: 2}
	// L24Stereo96 is audio/L24; rate=96000; channels=2.
	L24Stereo96 = Format{SampleRate: 96000, BitDepth: 24, Channels: 2}
	// L24Stereo192 is audio/L24; rate=192000; channels=2.
	L24Stereo192 = Format{SampleRate: 192000, BitDepth: 24, Channels: 2}
	// L32Stereo192 is audio/L32; rate=192000; channels=2.
	L32Stereo192 = Format{SampleRate: 192000, BitDepth: 32, Channels: 2}
)

// Format describes raw linear PCM: sample rate in Hz, bit depth per
// sample, and interleaved channel count.
type Format struct {
	SampleRate int `json:"sample_rate" yaml:"sample_rate"`
	BitDepth   int `json:"bit_depth" yaml:"bit_depth"`
	Channels   int `json:"channels" yaml:"channels"`
}

// Validate reports whether the format is usable for streaming.
func (f Format) Validate() error {
	if f.SampleRate <= 0 {
		return fmt.Errorf("pcm: invalid sample rate %d", f.SampleRate)
	}
	switch f.BitDepth {
	case 16, 24, 32:
	default:
		return fmt.Errorf("pcm: invalid bit depth %d", f.BitDepth)
	}
	if f.Channels <= 0 {
		return errors.New("pcm: channel count must be positive")
	}
	return nil
}

// FrameBytes returns the size of one frame (one sample across all
// channels) in bytes.
func (f Format) FrameBytes() int {
	return f.Channels * f.BitDepth / 8
}

// Frames returns the number of whole frames in the given number of bytes.
func (f Format) Frames(bytes int64) int64 {
	return bytes / int64(f.FrameBytes())
}

// FramesInDuration returns the number of frames in the given duration,
// truncated toward zero.
func (f Format) FramesInDuration(d time.Duration) int64 {
	return int64(time.Duration(f.SampleRate) * d / time.Second)
}

// BytesInDuration returns the number of bytes in the given duration,
// truncated to whole frames.
func (f Format) BytesInDuration(d time.Duration) int64 {
	return f.FramesInDuration(d) * int64(f.FrameBytes())
}

// Duration returns the playback duration of the given number of bytes.
func (f Format) Duration(bytes int64) time.Duration {
	return time.Duration(f.Frames(bytes)) * time.Second / time.Duration(f.SampleRate)
}

// BitsRate returns the bit rate of the stream.
func (f Format) BitsRate() int {
	return f.SampleRate * f.Channels * f.BitDepth
}

// BytesRate returns the byte rate of the stream.
func (f Format) BytesRate() int {
	return f.BitsRate() / 8
}

// String returns the MIME-style representation of the format.
func (f Format) String() string {
	return fmt.Sprintf("audio/L%d; rate=%d; channels=%d", f.BitDepth, f.SampleRate, f.Channels)
}
