package journal

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/SwissMontainsBear/DirettaRendererUPnP-X/pkg/jsontime"
	"github.com/SwissMontainsBear/DirettaRendererUPnP-X/pkg/kv"
)

const (
	defaultQueueSize  = 256
	defaultBatchSize  = 32
	defaultFlushEvery = 250 * time.Millisecond
	flushTimeout      = 5 * time.Second
)

// WriterOptions configures a Writer.
type WriterOptions struct {
	// Store receives the batched events. Required.
	Store kv.Store

	// Logger reports flush failures. Defaults to slog.Default().
	Logger *slog.Logger

	// QueueSize bounds the append queue. When the queue is full events
	// are dropped and counted instead of blocking the caller.
	// Defaults to 256.
	QueueSize int

	// BatchSize is the number of queued events that triggers a flush.
	// Defaults to 32.
	BatchSize int

	// FlushEvery flushes a partial batch after this interval.
	// Defaults to 250ms.
	FlushEvery time.Duration
}

// Writer appends events to a kv.Store from a dedicated goroutine.
//
// Append never blocks: events go through a bounded queue and are
// written in batches. When the queue is full the event is dropped and
// counted, which keeps journaling strictly off the block grant path.
type Writer struct {
	store      kv.Store
	logger     *slog.Logger
	batchSize  int
	flushEvery time.Duration

	ch   chan Event
	quit chan struct{}
	done chan struct{}

	closed  atomic.Bool
	dropped atomic.Uint64

	// next assigns per-session sequence numbers. Owned by the writer
	// goroutine, no locking.
	next map[string]uint64
}

// NewWriter starts a journal writer. Close releases it.
func NewWriter(opts WriterOptions) (*Writer, error) {
	if opts.Store == nil {
		return nil, errors.New("journal: Store is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	queue := opts.QueueSize
	if queue <= 0 {
		queue = defaultQueueSize
	}
	batch := opts.BatchSize
	if batch <= 0 {
		batch = defaultBatchSize
	}
	every := opts.FlushEvery
	if every <= 0 {
		every = defaultFlushEvery
	}

	w := &Writer{
		store:      opts.Store,
		logger:     logger,
		batchSize:  batch,
		flushEvery: every,
		ch:         make(chan Event, queue),
		quit:       make(chan struct{}),
		done:       make(chan struct{}),
		next:       make(map[string]uint64),
	}
	go w.loop()
	return w, nil
}

// Begin writes the session metadata record. Unlike Append this is
// synchronous: a session that cannot be recorded should fail loudly
// before any audio flows.
func (w *Writer) Begin(ctx context.Context, s Session) error {
	if s.ID == "" {
		return errors.New("journal: session ID is required")
	}
	if s.Started.IsZero() {
		s.Started = jsontime.NowEpochMilli()
	}
	data, err := msgpack.Marshal(s)
	if err != nil {
		return err
	}
	return w.store.Set(ctx, sessionKey(s.ID), data)
}

// Append queues an event for writing. The event's Time is stamped now
// if unset; Seq is assigned by the writer goroutine. If the queue is
// full or the writer is closed the event is dropped and counted.
func (w *Writer) Append(ev Event) {
	if w.closed.Load() {
		w.dropped.Add(1)
		return
	}
	if ev.Time.IsZero() {
		ev.Time = jsontime.NowEpochMilli()
	}
	select {
	case w.ch <- ev:
	default:
		w.dropped.Add(1)
	}
}

// Dropped returns the number of events lost to a full queue.
func (w *Writer) Dropped() uint64 {
	return w.dropped.Load()
}

// Close flushes queued events and stops the writer goroutine.
// Subsequent Appends are dropped. Close is idempotent.
func (w *Writer) Close() error {
	if !w.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(w.quit)
	<-w.done
	return nil
}

func (w *Writer) loop() {
	defer close(w.done)

	ticker := time.NewTicker(w.flushEvery)
	defer ticker.Stop()

	batch := make([]Event, 0, w.batchSize)
	for {
		select {
		case ev := <-w.ch:
			batch = append(batch, ev)
			if len(batch) >= w.batchSize {
				w.flush(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				w.flush(batch)
				batch = batch[:0]
			}
		case <-w.quit:
			// Drain whatever is queued, then write the final batch.
			for {
				select {
				case ev := <-w.ch:
					batch = append(batch, ev)
				default:
					w.flush(batch)
					return
				}
			}
		}
	}
}

func (w *Writer) flush(batch []Event) {
	if len(batch) == 0 {
		return
	}

	entries := make([]kv.Entry, 0, len(batch))
	for i := range batch {
		ev := &batch[i]
		w.next[ev.Session]++
		ev.Seq = w.next[ev.Session]

		data, err := msgpack.Marshal(ev)
		if err != nil {
			w.logger.Error("journal: encode event", "kind", ev.Kind, "err", err)
			continue
		}
		entries = append(entries, kv.Entry{Key: eventKey(ev.Session, ev.Seq), Value: data})
	}
	if len(entries) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()
	if err := w.store.BatchSet(ctx, entries); err != nil {
		w.logger.Error("journal: flush", "events", len(entries), "err", err)
	}
}
