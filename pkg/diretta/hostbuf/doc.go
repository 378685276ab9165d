// Package hostbuf manages the buffers handed to a streaming audio target.
//
// The target link asks for a buffer on every render cycle and keeps reading
// from it until it asks for the next one: the view granted for block i must
// stay valid and untouched until block i+1 is requested or the session's
// disconnect sequence completes, whichever comes first. hostbuf owns that
// lifecycle so the link and the renderer never have to.
//
// Three policies cover the deployment spectrum:
//
//   - KindGrowOnly: one block reused for every grant, grown in place when a
//     larger size arrives. Smallest footprint.
//
//   - KindDoubleBuffer: two blocks alternating between grants, so the block
//     on loan is never the one being resized.
//
//   - KindPreallocated: the maximum block reserved once up front; every
//     grant is a view into the same memory and the base address never moves.
//
// Example usage:
//
//	m, err := hostbuf.New(hostbuf.Config{Policy: hostbuf.KindDoubleBuffer})
//
//	// each render cycle
//	view, err := m.Acquire(sizer.NextBytes())
//	// fill view; it stays valid until the next Acquire
//
//	// when the target reports its disconnect sequence complete
//	m.Release()
package hostbuf
