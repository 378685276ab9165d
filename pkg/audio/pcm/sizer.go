package pcm

import "time"

// CycleSizer yields the block size of each successive render cycle.
//
// Cycle periods rarely hold a whole number of frames (44100 Hz at 1ms
// is 44.1 frames), so the sizer carries the fractional remainder from
// cycle to cycle: most cycles get the floor count and every few cycles
// one extra frame lands. Over any whole second the frame counts sum to
// exactly the sample rate.
type CycleSizer struct {
	fmt   Format
	cycle time.Duration
	rem   int64
}

// NewCycleSizer returns a sizer for the given format and cycle period.
func NewCycleSizer(f Format, cycle time.Duration) *CycleSizer {
	return &CycleSizer{fmt: f, cycle: cycle}
}

// Format returns the stream format the sizer was built for.
func (s *CycleSizer) Format() Format { return s.fmt }

// Cycle returns the cycle period.
func (s *CycleSizer) Cycle() time.Duration { return s.cycle }

// NextFrames returns the frame count of the next cycle.
func (s *CycleSizer) NextFrames() int {
	num := int64(s.fmt.SampleRate)*int64(s.cycle) + s.rem
	s.rem = num % int64(time.Second)
	return int(num / int64(time.Second))
}

// NextBytes returns the byte size of the next cycle's block.
func (s *CycleSizer) NextBytes() int {
	return s.NextFrames() * s.fmt.FrameBytes()
}

// MaxBytes returns the largest block size the sizer can ever yield,
// the ceiling frame count times the frame size. Useful for sizing a
// preallocated buffer up front.
func (s *CycleSizer) MaxBytes() int {
	num := int64(s.fmt.SampleRate) * int64(s.cycle)
	frames := num / int64(time.Second)
	if num%int64(time.Second) != 0 {
		frames++
	}
	return int(frames) * s.fmt.FrameBytes()
}
