package hostbuf

// doubleBuffer alternates grants between two slots. The inactive slot
// is grown and sized while the active one is on loan, so consecutive
// grants never share memory and a grow never moves bytes the target is
// still reading.
type doubleBuffer struct {
	slots  [2]Slot
	active int
}

func (p *doubleBuffer) NextBuffer(size int, online bool) ([]byte, error) {
	next := p.active ^ 1
	s := &p.slots[next]
	if err := s.EnsureCapacity(size); err != nil {
		return nil, err
	}
	if err := s.SetLogicalSize(size); err != nil {
		return nil, err
	}
	// Flip only after the new slot is sized; a failed grant leaves the
	// previous one active.
	p.active = next
	return s.Data(), nil
}

func (p *doubleBuffer) Generation() uint64 {
	return p.slots[0].Generation() + p.slots[1].Generation()
}
