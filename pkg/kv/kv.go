// Package kv provides the key-value store under the renderer's journal.
// Keys are hierarchical string slices (e.g. ["journal", sessionID, seq])
// encoded with a configurable separator (default ':').
//
// Two implementations: a BadgerDB-backed store for the daemon and an
// in-memory store for tests. Both iterate prefixes in lexicographic
// order, so fixed-width key segments give chronological replay for free.
package kv

import (
	"bytes"
	"context"
	"errors"
	"iter"
	"strconv"
	"strings"
)

// Sentinel errors.
var (
	// ErrNotFound is returned when a key does not exist in the store.
	ErrNotFound = errors.New("kv: not found")
)

// errEmptyPrefix guards DeletePrefix against wiping the whole store.
var errEmptyPrefix = errors.New("kv: refusing to delete an empty prefix")

// Key is a hierarchical path represented as a slice of string segments.
// Key{"journal", "s1", "00000001"} encodes to "journal:s1:00000001" with
// the default separator.
//
// Segments must not contain the configured separator character.
type Key []string

// String returns the key as a human-readable string using ':' as the
// separator. For display only; stores use Options for encoding.
func (k Key) String() string {
	return strings.Join(k, ":")
}

// Child returns a new key with extra segments appended.
func (k Key) Child(segments ...string) Key {
	child := make(Key, 0, len(k)+len(segments))
	child = append(child, k...)
	return append(child, segments...)
}

// Entry is a key-value pair returned by iteration and used by BatchSet.
type Entry struct {
	Key   Key
	Value []byte
}

// Store is the interface for a key-value store with path-based keys.
type Store interface {
	// Get retrieves the value for a key. Returns ErrNotFound if not present.
	Get(ctx context.Context, key Key) ([]byte, error)

	// Set stores a key-value pair. Overwrites any existing value.
	Set(ctx context.Context, key Key, value []byte) error

	// Delete removes a key. No error if the key does not exist.
	Delete(ctx context.Context, key Key) error

	// List iterates over all entries below the given prefix in
	// lexicographic order by encoded key.
	List(ctx context.Context, prefix Key) iter.Seq2[Entry, error]

	// ListReverse iterates the same range as List in reverse order.
	// Taking the first n entries yields the tail of a journal prefix.
	ListReverse(ctx context.Context, prefix Key) iter.Seq2[Entry, error]

	// BatchSet atomically stores multiple key-value pairs.
	BatchSet(ctx context.Context, entries []Entry) error

	// DeletePrefix removes every entry below the given prefix.
	DeletePrefix(ctx context.Context, prefix Key) error

	// Close releases any resources held by the store.
	Close() error
}

// DefaultSeparator is the default separator byte used to encode key segments.
const DefaultSeparator byte = ':'

// Options configures store behavior.
type Options struct {
	// Separator is the byte used to join key segments when encoding to
	// storage. Default is ':' if zero.
	Separator byte
}

func (o *Options) sep() byte {
	if o != nil && o.Separator != 0 {
		return o.Separator
	}
	return DefaultSeparator
}

// encode converts a Key to its byte representation using the separator.
// A segment containing the separator is a programming error and panics.
func (o *Options) encode(k Key) []byte {
	s := o.sep()
	n := 0
	for i, seg := range k {
		if strings.IndexByte(seg, s) >= 0 {
			panic("kv: key segment " + strconv.Quote(seg) + " contains separator")
		}
		if i > 0 {
			n++
		}
		n += len(seg)
	}
	buf := make([]byte, n)
	pos := 0
	for i, seg := range k {
		if i > 0 {
			buf[pos] = s
			pos++
		}
		pos += copy(buf[pos:], seg)
	}
	return buf
}

// decode converts a byte representation back to a Key.
func (o *Options) decode(b []byte) Key {
	parts := bytes.Split(b, []byte{o.sep()})
	k := make(Key, len(parts))
	for i, p := range parts {
		k[i] = string(p)
	}
	return k
}

// scanPrefix returns the byte prefix that bounds iteration below a key:
// the encoded key plus a trailing separator, so "a:b" never matches
// "a:bc". An empty key scans everything.
func (o *Options) scanPrefix(k Key) []byte {
	p := o.encode(k)
	if len(p) == 0 {
		return nil
	}
	return append(p, o.sep())
}
