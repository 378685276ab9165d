// Package audio is an umbrella for the audio-related sub-packages:
//
//   - pcm: raw linear PCM format math (frame sizes, byte rates,
//     per-cycle block sizing)
//
// Example usage:
//
//	import "github.com/SwissMontainsBear/DirettaRendererUPnP-X/pkg/audio/pcm"
//
//	format := pcm.L16Stereo44k1
//	sizer := pcm.NewCycleSizer(format, time.Millisecond)
//	size := sizer.NextBytes()
package audio
