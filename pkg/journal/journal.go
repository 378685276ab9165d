// Package journal records buffer lifecycle events for streaming sessions.
//
// Events describe what happened to the host-side block buffer while a
// session was live: grants, growth while online, base address moves,
// state transitions and errors. They are appended through a [Writer]
// whose bounded queue keeps journaling off the audio path, batched into
// a [kv.Store], and read back with [Events], [Tail] or [Sessions].
//
// # Key layout
//
//	journal:session:{id}        → msgpack Session
//	journal:event:{id}:{seq}    → msgpack Event
//
// Sequence numbers are assigned per session by the writer in arrival
// order and zero padded in the key, so a prefix scan replays a session
// chronologically.
package journal

import (
	"github.com/SwissMontainsBear/DirettaRendererUPnP-X/pkg/jsontime"
)

// Kind identifies what a journal event describes.
type Kind string

const (
	// KindAcquire records a buffer grant for one block.
	KindAcquire Kind = "acquire"
	// KindRelease records the end-of-session buffer release.
	KindRelease Kind = "release"
	// KindGrow records a slot growth observed while granting.
	KindGrow Kind = "grow"
	// KindState records a render engine state transition.
	KindState Kind = "state"
	// KindOnline records a streaming online/offline flip.
	KindOnline Kind = "online"
	// KindError records a failed operation.
	KindError Kind = "error"
)

// IsValid reports whether k is a known event kind.
func (k Kind) IsValid() bool {
	switch k {
	case KindAcquire, KindRelease, KindGrow, KindState, KindOnline, KindError:
		return true
	}
	return false
}

// Event is a single journal record. Seq is assigned by the writer;
// everything else is filled by the emitter. Fields that do not apply
// to a kind stay zero and are omitted from the encoding.
type Event struct {
	Session string         `json:"session" msgpack:"session"`
	Seq     uint64         `json:"seq" msgpack:"seq"`
	Time    jsontime.Milli `json:"time" msgpack:"time"`
	Kind    Kind           `json:"kind" msgpack:"kind"`

	// Block is the engine's block counter for acquire and grow events.
	Block uint64 `json:"block,omitempty" msgpack:"block,omitempty"`
	// Size is the requested block size in bytes.
	Size int `json:"size,omitempty" msgpack:"size,omitempty"`
	// Generation is the slot generation after the grant.
	Generation uint64 `json:"generation,omitempty" msgpack:"generation,omitempty"`
	// BaseMoved reports that the granted view starts at a different
	// address than the previous one.
	BaseMoved bool `json:"base_moved,omitempty" msgpack:"base_moved,omitempty"`
	// State is the engine state name for state events.
	State string `json:"state,omitempty" msgpack:"state,omitempty"`
	// Online is the hint value for online events.
	Online bool `json:"online,omitempty" msgpack:"online,omitempty"`
	// Err is the error text for error events.
	Err string `json:"error,omitempty" msgpack:"error,omitempty"`
}

// Session is the metadata record written once when a session starts.
type Session struct {
	ID      string         `json:"id" msgpack:"id"`
	Started jsontime.Milli `json:"started" msgpack:"started"`
	Source  string         `json:"source,omitempty" msgpack:"source,omitempty"`
	Format  string         `json:"format,omitempty" msgpack:"format,omitempty"`
	Policy  string         `json:"policy,omitempty" msgpack:"policy,omitempty"`
}
