package hostbuf

import "fmt"

// MaxSlotBytes is the hard ceiling on a single slot's capacity.
//
// One second of 32-bit stereo PCM at 384kHz is about 3MB; a block size
// anywhere near the ceiling is a corrupted request, not audio, and
// EnsureCapacity refuses it with ErrAllocationFailed before make can
// take the process down.
const MaxSlotBytes = 64 << 20

// Slot owns one contiguous byte region and its bookkeeping: the logical
// size (length of the exposed view), the capacity it can grow to without
// reallocating, and a generation counter that increments on every
// reallocation.
//
// The generation counter is the diagnostic for stale-pointer bugs: a
// view handed out before a reallocation points into memory the slot no
// longer owns, and the generation delta pins down exactly when that
// happened.
//
// The zero Slot is ready to use.
type Slot struct {
	buf []byte
	gen uint64
}

// EnsureCapacity grows the slot's capacity to at least n bytes,
// preserving the current contents. It never shrinks. A no-op when the
// capacity is already sufficient; otherwise the region is reallocated
// and the generation counter increments.
func (s *Slot) EnsureCapacity(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: capacity %d", ErrInvalidSize, n)
	}
	if n > MaxSlotBytes {
		return fmt.Errorf("%w: %d bytes, ceiling %d", ErrAllocationFailed, n, MaxSlotBytes)
	}
	if n <= cap(s.buf) {
		return nil
	}
	next := make([]byte, len(s.buf), n)
	copy(next, s.buf)
	s.buf = next
	s.gen++
	return nil
}

// SetLogicalSize sets the length of the exposed view to n bytes. When n
// exceeds the current capacity the slot is left untouched and
// ErrCapacityExceeded is returned. Bytes exposed beyond the previous
// logical size are zeroed.
func (s *Slot) SetLogicalSize(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: logical size %d", ErrInvalidSize, n)
	}
	if n > cap(s.buf) {
		return fmt.Errorf("%w: logical size %d, capacity %d", ErrCapacityExceeded, n, cap(s.buf))
	}
	prev := len(s.buf)
	s.buf = s.buf[:n]
	if n > prev {
		clear(s.buf[prev:])
	}
	return nil
}

// Data returns the current view: logical-size bytes backed by the
// slot's region. The view stays valid until the next reallocation.
func (s *Slot) Data() []byte { return s.buf }

// Len returns the logical size in bytes.
func (s *Slot) Len() int { return len(s.buf) }

// Cap returns the capacity in bytes.
func (s *Slot) Cap() int { return cap(s.buf) }

// Generation returns the reallocation count.
func (s *Slot) Generation() uint64 { return s.gen }
