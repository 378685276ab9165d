package render

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/SwissMontainsBear/DirettaRendererUPnP-X/pkg/audio/pcm"
	"github.com/SwissMontainsBear/DirettaRendererUPnP-X/pkg/diretta"
	"github.com/SwissMontainsBear/DirettaRendererUPnP-X/pkg/diretta/hostbuf"
	"github.com/SwissMontainsBear/DirettaRendererUPnP-X/pkg/journal"
	"github.com/SwissMontainsBear/DirettaRendererUPnP-X/pkg/jsontime"
	"github.com/SwissMontainsBear/DirettaRendererUPnP-X/pkg/source"
)

var errNotRunning = errors.New("render: engine is not running")

// Config assembles one render session.
type Config struct {
	// Source supplies the PCM bytes. Required.
	Source source.Source

	// Format is the session's PCM format. Required.
	Format pcm.Format

	// Manager owns the block buffers. Required.
	Manager *hostbuf.Manager

	// Link carries blocks to the target. Required.
	Link diretta.Link

	// Journal records session events. Optional.
	Journal *journal.Writer

	// SessionID defaults to a fresh uuid.
	SessionID string

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Status is a point-in-time snapshot of a session for the monitor.
type Status struct {
	Session    string         `json:"session"`
	State      State          `json:"state"`
	Source     string         `json:"source"`
	Format     pcm.Format     `json:"format"`
	Policy     hostbuf.Kind   `json:"policy"`
	Online     bool           `json:"online"`
	Blocks     uint64         `json:"blocks"`
	Bytes      int64          `json:"bytes"`
	Padded     int64          `json:"padded"`
	Generation uint64         `json:"generation"`
	Buffer     hostbuf.Stats  `json:"buffer"`
	Dropped    uint64         `json:"journal_dropped,omitempty"`
	Err        string         `json:"error,omitempty"`
	Time       jsontime.Milli `json:"time"`
}

// Engine drives one streaming session. It implements diretta.Handler:
// every NextBlock acquires a view from the manager, fills it from the
// source, and zero-pads any shortfall so the target always hears a
// full block; silence is the renderer's failure mode, never a short
// buffer. DisconnectComplete releases the grant.
//
// An Engine is single-session: create a new one per stream.
type Engine struct {
	src     source.Source
	format  pcm.Format
	mgr     *hostbuf.Manager
	link    diretta.Link
	jw      *journal.Writer
	session string
	logger  *slog.Logger

	mu       sync.Mutex
	state    State
	lastErr  error
	blocks   uint64
	bytesIn  int64
	padded   int64
	lastGen  uint64
	lastBase *byte
	stream   io.ReadCloser
	eof      bool
}

// New assembles an engine from cfg.
func New(cfg Config) (*Engine, error) {
	if cfg.Source == nil {
		return nil, errors.New("render: Source is required")
	}
	if err := cfg.Format.Validate(); err != nil {
		return nil, err
	}
	if cfg.Manager == nil {
		return nil, errors.New("render: Manager is required")
	}
	if cfg.Link == nil {
		return nil, errors.New("render: Link is required")
	}
	session := cfg.SessionID
	if session == "" {
		session = uuid.NewString()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		src:     cfg.Source,
		format:  cfg.Format,
		mgr:     cfg.Manager,
		link:    cfg.Link,
		jw:      cfg.Journal,
		session: session,
		logger:  logger,
		state:   StateIdle,
	}, nil
}

// SessionID returns the session identifier.
func (e *Engine) SessionID() string { return e.session }

// Run opens the source, marks the manager online, and drives the link
// until the stream ends, the context is canceled, or something fails.
// A canceled context is a deliberate stop and returns nil.
func (e *Engine) Run(ctx context.Context) error {
	e.setState(StateConnecting)

	stream, err := e.src.Open(ctx)
	if err != nil {
		e.fault(err)
		return err
	}
	e.mu.Lock()
	e.stream = stream
	e.mu.Unlock()
	defer stream.Close()

	if e.jw != nil {
		sess := journal.Session{
			ID:     e.session,
			Source: e.src.URI(),
			Format: e.format.String(),
			Policy: string(e.mgr.Policy()),
		}
		if err := e.jw.Begin(ctx, sess); err != nil {
			e.fault(err)
			return err
		}
	}

	e.mgr.SetOnline(true)
	e.record(journal.Event{Kind: journal.KindOnline, Online: true})
	defer func() {
		e.mgr.SetOnline(false)
		e.record(journal.Event{Kind: journal.KindOnline, Online: false})
	}()

	e.logger.Info("render: session start",
		"session", e.session,
		"source", e.src.URI(),
		"format", e.format.String(),
		"policy", e.mgr.Policy(),
	)

	err = e.link.Run(ctx, e)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			e.logger.Info("render: session stopped", "session", e.session)
			return nil
		}
		e.fault(err)
		return err
	}

	e.logger.Info("render: session complete",
		"session", e.session,
		"blocks", e.Status().Blocks,
	)
	return nil
}

// NextBlock implements diretta.Handler.
func (e *Engine) NextBlock(size int) ([]byte, error) {
	e.mu.Lock()
	stream, eof := e.stream, e.eof
	e.mu.Unlock()
	if stream == nil {
		return nil, errNotRunning
	}
	if eof {
		return nil, io.EOF
	}

	view, err := e.mgr.Acquire(size)
	if err != nil {
		e.fault(err)
		return nil, err
	}

	n, rerr := io.ReadFull(stream, view)
	if rerr != nil && !errors.Is(rerr, io.EOF) && !errors.Is(rerr, io.ErrUnexpectedEOF) {
		e.fault(rerr)
		return nil, rerr
	}
	if n == 0 && rerr != nil {
		// The source ended exactly on a block boundary.
		e.mu.Lock()
		e.eof = true
		e.mu.Unlock()
		return nil, io.EOF
	}

	if e.blockCount() == 0 {
		e.setState(StateStreaming)
	}

	gen := e.mgr.Generation()
	e.mu.Lock()
	grew := e.blocks > 0 && gen != e.lastGen
	e.lastGen = gen
	base := &view[0]
	baseMoved := e.lastBase != nil && base != e.lastBase
	e.lastBase = base
	e.blocks++
	block := e.blocks
	e.bytesIn += int64(n)
	e.mu.Unlock()

	if grew {
		e.record(journal.Event{Kind: journal.KindGrow, Block: block, Size: size, Generation: gen})
	}
	e.record(journal.Event{
		Kind:       journal.KindAcquire,
		Block:      block,
		Size:       size,
		Generation: gen,
		BaseMoved:  baseMoved,
	})

	if rerr != nil {
		// Partial final block: pad with silence and drain.
		clear(view[n:])
		e.mu.Lock()
		e.padded += int64(size - n)
		e.eof = true
		e.mu.Unlock()
		e.setState(StateDraining)
	}
	return view, nil
}

// DisconnectComplete implements diretta.Handler. The link is done with
// the last view; the grant is released and the session settles.
func (e *Engine) DisconnectComplete() {
	if err := e.mgr.Release(); err != nil {
		e.logger.Error("render: release", "session", e.session, "err", err)
	}
	e.record(journal.Event{Kind: journal.KindRelease})

	e.mu.Lock()
	faulted := e.state == StateFaulted
	e.mu.Unlock()
	if !faulted {
		e.setState(StateStopped)
	}
}

// Status returns a snapshot of the session.
func (e *Engine) Status() Status {
	e.mu.Lock()
	st := Status{
		Session:    e.session,
		State:      e.state,
		Source:     e.src.URI(),
		Format:     e.format,
		Policy:     e.mgr.Policy(),
		Blocks:     e.blocks,
		Bytes:      e.bytesIn,
		Padded:     e.padded,
		Generation: e.lastGen,
		Time:       jsontime.NowEpochMilli(),
	}
	if e.lastErr != nil {
		st.Err = e.lastErr.Error()
	}
	e.mu.Unlock()

	st.Online = e.mgr.Online()
	st.Buffer = e.mgr.Stats()
	if e.jw != nil {
		st.Dropped = e.jw.Dropped()
	}
	return st
}

func (e *Engine) blockCount() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.blocks
}

func (e *Engine) setState(s State) {
	e.mu.Lock()
	if e.state == s {
		e.mu.Unlock()
		return
	}
	e.state = s
	e.mu.Unlock()

	e.logger.Debug("render: state", "session", e.session, "state", s.String())
	e.record(journal.Event{Kind: journal.KindState, State: s.String()})
}

// fault records the first error and pins the state to Faulted.
func (e *Engine) fault(err error) {
	e.mu.Lock()
	first := e.lastErr == nil
	if first {
		e.lastErr = err
	}
	e.mu.Unlock()

	if first {
		e.logger.Error("render: session fault", "session", e.session, "err", err)
		e.record(journal.Event{Kind: journal.KindError, Err: err.Error()})
	}
	e.setState(StateFaulted)
}

func (e *Engine) record(ev journal.Event) {
	if e.jw == nil {
		return
	}
	ev.Session = e.session
	e.jw.Append(ev)
}

var _ diretta.Handler = (*Engine)(nil)
