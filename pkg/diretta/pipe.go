package diretta

import (
	"context"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/SwissMontainsBear/DirettaRendererUPnP-X/pkg/audio/pcm"
)

// PipeConfig configures a PipeLink.
type PipeConfig struct {
	// Format is the session's PCM format. Required.
	Format pcm.Format

	// Cycle is the block cadence. Defaults to DefaultCycle.
	Cycle time.Duration

	// Sink optionally receives every block during its hold window.
	// Write is handed the live view; the sink must not retain or
	// modify it.
	Sink io.Writer

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// PipeLink is an in-process target for tests and loopback playback.
//
// It holds every view across its full cycle, checksums it when
// granted, and re-verifies the checksum right before the next request
// and again before DisconnectComplete. A handler that recycles a view
// too early turns into an ErrViewMutated from Run.
type PipeLink struct {
	format pcm.Format
	cycle  time.Duration
	sink   io.Writer
	logger *slog.Logger

	mu     sync.Mutex
	blocks uint64
	bytes  int64
}

// NewPipeLink creates an in-process link.
func NewPipeLink(cfg PipeConfig) (*PipeLink, error) {
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
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &PipeLink{
		format: cfg.Format,
		cycle:  cycle,
		sink:   cfg.Sink,
		logger: logger,
	}, nil
}

// Blocks returns the number of blocks consumed so far.
func (p *PipeLink) Blocks() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.blocks
}

// Bytes returns the number of PCM bytes consumed so far.
func (p *PipeLink) Bytes() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.bytes
}

// Run consumes blocks from h until the context is canceled or the
// handler reports io.EOF. DisconnectComplete is called exactly once on
// every exit path.
func (p *PipeLink) Run(ctx context.Context, h Handler) error {
	sizer := pcm.NewCycleSizer(p.format, p.cycle)

	var held []byte
	var heldSum uint32

	verify := func() error {
		if held != nil && crc32.ChecksumIEEE(held) != heldSum {
			return ErrViewMutated
		}
		return nil
	}
	finish := func(cause error) error {
		if err := verify(); err != nil && cause == nil {
			cause = err
		}
		h.DisconnectComplete()
		return cause
	}

	for {
		select {
		case <-ctx.Done():
			return finish(ctx.Err())
		default:
		}

		// The previous view must be intact up to the moment the next
		// block is requested.
		if err := verify(); err != nil {
			return finish(err)
		}

		size := sizer.NextBytes()
		view, err := h.NextBlock(size)
		if err != nil {
			held = nil
			if errors.Is(err, io.EOF) {
				return finish(nil)
			}
			return finish(err)
		}
		if len(view) != size {
			held = nil
			return finish(fmt.Errorf("%w: got %d, want %d", ErrShortView, len(view), size))
		}

		heldSum = crc32.ChecksumIEEE(view)
		held = view

		if p.sink != nil {
			if _, err := p.sink.Write(view); err != nil {
				return finish(err)
			}
		}

		p.mu.Lock()
		p.blocks++
		p.bytes += int64(len(view))
		p.mu.Unlock()

		select {
		case <-time.After(p.cycle):
		case <-ctx.Done():
			return finish(ctx.Err())
		}
	}
}

var _ Link = (*PipeLink)(nil)
