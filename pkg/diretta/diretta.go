// Package diretta carries PCM blocks from a renderer to a network
// audio target.
//
// A [Link] owns the cycle cadence: it asks its [Handler] for one block
// per cycle and transmits it for the whole cycle window. The returned
// view is read throughout that window, so the handler must keep it
// valid and unmodified until the next block is requested or
// [Handler.DisconnectComplete] fires, whichever comes first.
//
// Two links are provided: [UDPLink] sends RTP-framed packet trains over
// a net.Conn, and [PipeLink] is an in-process target that additionally
// verifies the view-stability contract with checksums.
package diretta

import (
	"context"
	"errors"
	"time"
)

// Wire constants shared by [UDPLink] and the test target.
const (
	// PayloadTypePCM marks packets carrying raw PCM block data.
	PayloadTypePCM = 96
	// PayloadTypeBye marks the disconnect train.
	PayloadTypeBye = 97
	// PayloadTypeHello marks the session-open packet; its payload is
	// the session ID.
	PayloadTypeHello = 98
)

// DefaultCycle is the block cadence used when a link config leaves
// Cycle zero.
const DefaultCycle = 10 * time.Millisecond

// DefaultMTU bounds the RTP payload size per packet.
const DefaultMTU = 1400

// ErrViewMutated reports that a leased view changed while the link was
// still entitled to read it.
var ErrViewMutated = errors.New("diretta: leased view mutated before next request")

// ErrShortView reports a view whose length does not match the
// requested block size.
var ErrShortView = errors.New("diretta: view length does not match requested size")

// Handler supplies PCM blocks to a link.
//
// NextBlock returns a view holding exactly size bytes for the next
// cycle. The view must stay valid and byte-for-byte stable until the
// following NextBlock call or DisconnectComplete, whichever comes
// first. Returning io.EOF ends the session cleanly; any other error
// tears it down.
type Handler interface {
	NextBlock(size int) ([]byte, error)

	// DisconnectComplete signals that the link is done with the last
	// view and will never touch it again.
	DisconnectComplete()
}

// Link drives one connected target session.
type Link interface {
	// Run issues per-cycle block requests against h until the
	// context is canceled, the handler reports io.EOF, or the
	// transport fails. DisconnectComplete is called exactly once on
	// every exit path.
	Run(ctx context.Context, h Handler) error
}
