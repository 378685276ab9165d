package hostbuf

// Kind selects a buffering policy variant.
type Kind string

// Policy variants.
const (
	// KindGrowOnly reuses a single block, growing it in place when a
	// larger one is requested. Capacity never shrinks.
	KindGrowOnly Kind = "grow-only"
	// KindDoubleBuffer alternates between two blocks so consecutive
	// grants never share memory.
	KindDoubleBuffer Kind = "double-buffer"
	// KindPreallocated reserves the maximum block once up front and
	// never reallocates afterwards.
	KindPreallocated Kind = "preallocated"
)

// IsValid returns true if the kind names a known policy.
func (k Kind) IsValid() bool {
	switch k {
	case KindGrowOnly, KindDoubleBuffer, KindPreallocated:
		return true
	}
	return false
}

// Policy hands out the backing buffer for each block grant.
//
// NextBuffer returns a view of exactly size bytes for grant i. The view
// handed out for grant i-1 becomes dead the moment NextBuffer is called
// again: a policy may reuse, grow or swap backing memory between
// grants, but never while a view is on loan. The online flag is the
// streaming hint from the control path; a policy may use it to tune
// allocation behavior but not to fail a grant.
//
// On error nothing changes: the previous grant's view, logical sizes
// and generations all stay as they were.
type Policy interface {
	NextBuffer(size int, online bool) ([]byte, error)
	// Generation returns the total reallocation count across the
	// policy's slots.
	Generation() uint64
}
