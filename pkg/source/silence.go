package source

import (
	"context"
	"io"
)

// Silence produces zero samples, endlessly or for a fixed byte count.
// It is the built-in test signal: a target fed silence exercises the
// whole buffer and transport path without any media.
type Silence struct {
	limit int64 // 0 means unbounded
	uri   string
}

// NewSilence creates a silence source emitting limit bytes of zeros.
// A limit of 0 means the stream never ends.
func NewSilence(limit int64) *Silence {
	return &Silence{limit: limit, uri: "silence:"}
}

// Open returns the zero stream.
func (s *Silence) Open(_ context.Context) (io.ReadCloser, error) {
	var r io.Reader = zeroReader{}
	if s.limit > 0 {
		r = io.LimitReader(r, s.limit)
	}
	return io.NopCloser(r), nil
}

// URI returns the silence URI.
func (s *Silence) URI() string {
	return s.uri
}

// zeroReader fills every read with zero bytes and never returns EOF.
type zeroReader struct{}

func (zeroReader) Read(p []byte) (int, error) {
	clear(p)
	return len(p), nil
}

var _ Source = (*Silence)(nil)
