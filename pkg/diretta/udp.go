package diretta

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net"
	"time"

	"github.com/pion/rtp"

	"github.com/SwissMontainsBear/DirettaRendererUPnP-X/pkg/audio/pcm"
)

const byeRepeat = 3

// UDPConfig configures a UDPLink.
type UDPConfig struct {
	// Conn is the packet transport, usually a connected *net.UDPConn.
	// Required. The link does not close it.
	Conn net.Conn

	// Format is the session's PCM format. Required.
	Format pcm.Format

	// Cycle is the block cadence. Defaults to DefaultCycle.
	Cycle time.Duration

	// MTU bounds the RTP payload per packet. Defaults to DefaultMTU.
	MTU int

	// SessionID is announced in the hello packet.
	SessionID string

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// UDPLink transmits each leased view as a train of RTP packets spread
// across the cycle window. The view is read packet by packet for the
// whole cycle, which is exactly why the handler must keep it stable
// until the next request.
type UDPLink struct {
	conn   net.Conn
	format pcm.Format
	cycle  time.Duration
	mtu    int
	sid    string
	logger *slog.Logger

	ssrc uint32
	seq  uint16
	ts   uint32
}

// NewUDPLink creates a UDP link over cfg.Conn.
func NewUDPLink(cfg UDPConfig) (*UDPLink, error) {
	if cfg.Conn == nil {
		return nil, errors.New("diretta: Conn is required")
	}
	if err := cfg.Format.Validate(); err != nil {
		return nil, err
	}
	cycle := cfg.Cycle
	if cycle <= 0 {
		cycle = DefaultCycle
	}
	if cfg.Format.FramesInDuration(cycle) < 1 {
		return nil, fmt.Errorf("diretta: cycle %v is shorter than one frame of %s", cycle, cfg.Format)
	}
	mtu := cfg.MTU
	if mtu <= 0 {
		mtu = DefaultMTU
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &UDPLink{
		conn:   cfg.Conn,
		format: cfg.Format,
		cycle:  cycle,
		mtu:    mtu,
		sid:    cfg.SessionID,
		logger: logger,
		ssrc:   rand.Uint32(),
		seq:    uint16(rand.Uint32()),
	}, nil
}

// Run streams blocks from h until the context is canceled, the handler
// reports io.EOF, or a write fails. The disconnect train is sent and
// DisconnectComplete is called on every exit path.
func (l *UDPLink) Run(ctx context.Context, h Handler) error {
	if err := l.sendHello(); err != nil {
		return l.disconnect(h, fmt.Errorf("diretta: hello: %w", err))
	}

	sizer := pcm.NewCycleSizer(l.format, l.cycle)
	for {
		select {
		case <-ctx.Done():
			return l.disconnect(h, ctx.Err())
		default:
		}

		size := sizer.NextBytes()
		view, err := h.NextBlock(size)
		if err != nil {
			if errors.Is(err, io.EOF) {
				l.logger.Debug("diretta: stream complete")
				return l.disconnect(h, nil)
			}
			return l.disconnect(h, err)
		}
		if len(view) != size {
			return l.disconnect(h, fmt.Errorf("%w: got %d, want %d", ErrShortView, len(view), size))
		}

		if err := l.sendBlock(ctx, view); err != nil {
			return l.disconnect(h, err)
		}
	}
}

// sendHello announces the session before the first block.
func (l *UDPLink) sendHello() error {
	pkt := &rtp.Packet{
		Header: rtp.Header{
			Version:        2,
			PayloadType:    PayloadTypeHello,
			SequenceNumber: l.seq,
			Timestamp:      l.ts,
			SSRC:           l.ssrc,
		},
		Payload: []byte(l.sid),
	}
	l.seq++
	buf, err := pkt.Marshal()
	if err != nil {
		return err
	}
	_, err = l.conn.Write(buf)
	return err
}

// sendBlock slices the view into MTU-bounded packets and paces them
// across the cycle window. The marker bit is set on the last packet of
// the block.
func (l *UDPLink) sendBlock(ctx context.Context, view []byte) error {
	packets := (len(view) + l.mtu - 1) / l.mtu
	gap := l.cycle / time.Duration(packets+1)

	for off := 0; off < len(view); off += l.mtu {
		end := min(off+l.mtu, len(view))
		pkt := &rtp.Packet{
			Header: rtp.Header{
				Version:        2,
				PayloadType:    PayloadTypePCM,
				SequenceNumber: l.seq,
				Timestamp:      l.ts,
				SSRC:           l.ssrc,
				Marker:         end == len(view),
			},
			Payload: view[off:end],
		}
		l.seq++

		buf, err := pkt.Marshal()
		if err != nil {
			return err
		}
		if _, err := l.conn.Write(buf); err != nil {
			return err
		}

		if gap > 0 {
			select {
			case <-time.After(gap):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	l.ts += uint32(l.format.Frames(int64(len(view))))
	return nil
}

// disconnect sends the bye train, signals the handler, and returns the
// session's cause of death (nil for a clean end of stream).
func (l *UDPLink) disconnect(h Handler, cause error) error {
	for i := 0; i < byeRepeat; i++ {
		pkt := &rtp.Packet{
			Header: rtp.Header{
				Version:        2,
				PayloadType:    PayloadTypeBye,
				SequenceNumber: l.seq,
				Timestamp:      l.ts,
				SSRC:           l.ssrc,
			},
		}
		l.seq++
		buf, err := pkt.Marshal()
		if err != nil {
			break
		}
		if _, err := l.conn.Write(buf); err != nil {
			l.logger.Debug("diretta: bye send failed", "err", err)
			break
		}
	}
	h.DisconnectComplete()
	return cause
}

var _ Link = (*UDPLink)(nil)
