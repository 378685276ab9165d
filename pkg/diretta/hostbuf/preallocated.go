package hostbuf

import "fmt"

// preallocated reserves its whole capacity at construction and never
// reallocates afterwards: every grant is a view into the same block, so
// the base address is stable for the life of the session.
type preallocated struct {
	slot Slot
	max  int
}

func newPreallocated(maxBytes int) (*preallocated, error) {
	if maxBytes <= 0 {
		return nil, fmt.Errorf("%w: preallocated capacity %d", ErrInvalidSize, maxBytes)
	}
	p := &preallocated{max: maxBytes}
	if err := p.slot.EnsureCapacity(maxBytes); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *preallocated) NextBuffer(size int, online bool) ([]byte, error) {
	if size > p.max {
		return nil, fmt.Errorf("%w: block %d, preallocated max %d", ErrCapacityExceeded, size, p.max)
	}
	if err := p.slot.SetLogicalSize(size); err != nil {
		return nil, err
	}
	return p.slot.Data(), nil
}

func (p *preallocated) Generation() uint64 { return p.slot.Generation() }
