package journal

import (
	"context"
	"iter"
	"slices"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/SwissMontainsBear/DirettaRendererUPnP-X/pkg/kv"
)

// Events replays a session's events in sequence order.
func Events(ctx context.Context, store kv.Store, session string) iter.Seq2[Event, error] {
	return func(yield func(Event, error) bool) {
		for entry, err := range store.List(ctx, eventPrefix(session)) {
			if err != nil {
				yield(Event{}, err)
				return
			}
			var ev Event
			if err := msgpack.Unmarshal(entry.Value, &ev); err != nil {
				if !yield(Event{}, err) {
					return
				}
				continue
			}
			if !yield(ev, nil) {
				return
			}
		}
	}
}

// Tail returns the last n events of a session in sequence order.
func Tail(ctx context.Context, store kv.Store, session string, n int) ([]Event, error) {
	if n <= 0 {
		return nil, nil
	}
	var out []Event
	for entry, err := range store.ListReverse(ctx, eventPrefix(session)) {
		if err != nil {
			return nil, err
		}
		var ev Event
		if err := msgpack.Unmarshal(entry.Value, &ev); err != nil {
			return nil, err
		}
		out = append(out, ev)
		if len(out) == n {
			break
		}
	}
	slices.Reverse(out)
	return out, nil
}

// Sessions lists all recorded sessions in key order.
func Sessions(ctx context.Context, store kv.Store) iter.Seq2[Session, error] {
	return func(yield func(Session, error) bool) {
		for entry, err := range store.List(ctx, sessionPrefix()) {
			if err != nil {
				yield(Session{}, err)
				return
			}
			var s Session
			if err := msgpack.Unmarshal(entry.Value, &s); err != nil {
				if !yield(Session{}, err) {
					return
				}
				continue
			}
			if !yield(s, nil) {
				return
			}
		}
	}
}

// LoadSession fetches one session's metadata record.
// Returns kv.ErrNotFound if the session was never recorded.
func LoadSession(ctx context.Context, store kv.Store, id string) (Session, error) {
	data, err := store.Get(ctx, sessionKey(id))
	if err != nil {
		return Session{}, err
	}
	var s Session
	if err := msgpack.Unmarshal(data, &s); err != nil {
		return Session{}, err
	}
	return s, nil
}

// DeleteSession removes a session's metadata and all of its events.
func DeleteSession(ctx context.Context, store kv.Store, id string) error {
	if err := store.DeletePrefix(ctx, eventPrefix(id)); err != nil {
		return err
	}
	return store.Delete(ctx, sessionKey(id))
}
