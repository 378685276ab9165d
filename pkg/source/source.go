// Package source resolves audio source URIs into PCM byte streams.
//
// A [Source] hands the render engine an io.ReadCloser producing raw
// interleaved PCM. Backends are selected by URI scheme via [Resolve]:
//
//	file:///music/track.pcm    local file (bare paths work too)
//	s3://bucket/key            S3 or any S3-compatible object store
//	https://host/track.pcm     HTTP(S) GET
//	silence:                   endless zero samples
//	silence:10s                zero samples for a duration
//
// Backends do not parse containers or decode codecs; the stream is
// assumed to already match the session's PCM format.
package source

import (
	"context"
	"errors"
	"io"
)

// ErrUnsupportedScheme is returned by Resolve for URI schemes no
// backend handles.
var ErrUnsupportedScheme = errors.New("source: unsupported scheme")

// Source is a resolvable PCM byte stream.
//
// Open may be called more than once; each call returns an independent
// stream positioned at the start. Implementations must be safe for
// concurrent use.
type Source interface {
	// Open returns the PCM byte stream. The caller must close it.
	// If the underlying object does not exist, an error wrapping
	// os.ErrNotExist is returned.
	Open(ctx context.Context) (io.ReadCloser, error)

	// URI returns the location this source was resolved from.
	URI() string
}
