package source

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/SwissMontainsBear/DirettaRendererUPnP-X/pkg/audio/pcm"
)

// Options configures backend construction in [Resolve].
type Options struct {
	// Format sizes duration-limited silence sources. Required only
	// for URIs like "silence:10s".
	Format pcm.Format

	// S3 is the client for s3:// URIs. When nil a plain anonymous
	// client for S3Region is built; private buckets need an injected
	// client carrying credentials.
	S3 S3Client

	// S3Region is the region for the default S3 client.
	// Defaults to "us-east-1".
	S3Region string

	// HTTPClient serves http:// and https:// URIs.
	// Defaults to http.DefaultClient.
	HTTPClient *http.Client
}

// Resolve picks a backend for uri by scheme. Bare paths resolve as
// local files.
func Resolve(uri string, opts Options) (Source, error) {
	if uri == "" {
		return nil, errors.New("source: empty URI")
	}

	u, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("source: parse %q: %w", uri, err)
	}

	switch u.Scheme {
	case "", "file":
		path := u.Path
		if u.Scheme == "" {
			path = uri
		}
		if u.Host != "" && u.Host != "localhost" {
			return nil, fmt.Errorf("source: file URI with host %q", u.Host)
		}
		if path == "" {
			return nil, fmt.Errorf("source: %q has no path", uri)
		}
		return NewFile(path), nil

	case "s3":
		bucket := u.Host
		key := strings.TrimPrefix(u.Path, "/")
		if bucket == "" || key == "" {
			return nil, fmt.Errorf("source: %q needs s3://bucket/key", uri)
		}
		client := opts.S3
		if client == nil {
			region := opts.S3Region
			if region == "" {
				region = "us-east-1"
			}
			client = s3.New(s3.Options{Region: region})
		}
		return NewS3(client, bucket, key), nil

	case "http", "https":
		return NewHTTP(opts.HTTPClient, uri), nil

	case "silence":
		if u.Opaque == "" {
			return NewSilence(0), nil
		}
		d, err := time.ParseDuration(u.Opaque)
		if err != nil {
			return nil, fmt.Errorf("source: parse silence duration %q: %w", u.Opaque, err)
		}
		if err := opts.Format.Validate(); err != nil {
			return nil, fmt.Errorf("source: %q needs a valid PCM format: %w", uri, err)
		}
		src := NewSilence(opts.Format.BytesInDuration(d))
		src.uri = uri
		return src, nil

	default:
		return nil, fmt.Errorf("%w %q", ErrUnsupportedScheme, u.Scheme)
	}
}
