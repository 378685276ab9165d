package hostbuf

// growOnly reuses one slot for every grant, growing it when a larger
// block is requested.
//
// A reallocation while the stream is online is the expensive path: the
// old block is copied while the cycle clock is running. Online grows
// therefore reserve 25% headroom so further size oscillation is
// absorbed without another move. Offline grows stay exact.
type growOnly struct {
	slot Slot
}

func (p *growOnly) NextBuffer(size int, online bool) ([]byte, error) {
	want := size
	if online && size > p.slot.Cap() && size <= MaxSlotBytes {
		want = min(size+size/4, MaxSlotBytes)
	}
	if err := p.slot.EnsureCapacity(want); err != nil {
		return nil, err
	}
	if err := p.slot.SetLogicalSize(size); err != nil {
		return nil, err
	}
	return p.slot.Data(), nil
}

func (p *growOnly) Generation() uint64 { return p.slot.Generation() }
