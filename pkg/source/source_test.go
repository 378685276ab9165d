package source

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"github.com/SwissMontainsBear/DirettaRendererUPnP-X/pkg/audio/pcm"
)

// ---------------------------------------------------------------------------
// mock S3 client
// ---------------------------------------------------------------------------

// apiError implements smithy.APIError for test assertions.
type apiError struct {
	code string
	msg  string
}

func (e *apiError) Error() string                 { return e.msg }
func (e *apiError) ErrorCode() string             { return e.code }
func (e *apiError) ErrorMessage() string          { return e.msg }
func (e *apiError) ErrorFault() smithy.ErrorFault { return smithy.FaultClient }

var errNoSuchKey = &apiError{code: "NoSuchKey", msg: "no such key"}

// mockS3 is a thread-safe in-memory S3 backend for testing.
type mockS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	getErr  error
}

func newMockS3() *mockS3 {
	return &mockS3{objects: make(map[string][]byte)}
}

func (m *mockS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[*in.Bucket+"/"+*in.Key]
	if !ok {
		return nil, errNoSuchKey
	}
	return &s3.GetObjectOutput{
		Body: io.NopCloser(bytes.NewReader(data)),
	}, nil
}

// ---------------------------------------------------------------------------
// backend tests
// ---------------------------------------------------------------------------

func TestFileOpen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "track.pcm")
	want := []byte{1, 2, 3, 4}
	if err := os.WriteFile(path, want, 0o644); err != nil {
		t.Fatal(err)
	}

	src := NewFile(path)
	r, err := src.Open(ctx)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()
	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestFileOpenNotExist(t *testing.T) {
	src := NewFile(filepath.Join(t.TempDir(), "missing.pcm"))
	_, err := src.Open(context.Background())
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected os.ErrNotExist, got %v", err)
	}
}

func TestS3Open(t *testing.T) {
	ctx := context.Background()
	mock := newMockS3()
	mock.objects["music/track.pcm"] = []byte("pcm data")

	src := NewS3(mock, "music", "track.pcm")
	r, err := src.Open(ctx)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()
	got, _ := io.ReadAll(r)
	if string(got) != "pcm data" {
		t.Fatalf("got %q", got)
	}
	if src.URI() != "s3://music/track.pcm" {
		t.Errorf("URI = %q", src.URI())
	}
}

func TestS3OpenNotExist(t *testing.T) {
	src := NewS3(newMockS3(), "music", "missing.pcm")
	_, err := src.Open(context.Background())
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected os.ErrNotExist, got %v", err)
	}
}

func TestS3OpenOtherError(t *testing.T) {
	mock := newMockS3()
	mock.getErr = errors.New("network timeout")
	src := NewS3(mock, "music", "track.pcm")

	_, err := src.Open(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, os.ErrNotExist) {
		t.Fatal("should not be ErrNotExist for generic errors")
	}
}

func TestIsS3NotFound(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"NoSuchKey", errNoSuchKey, true},
		{"NotFound", &apiError{code: "NotFound", msg: "not found"}, true},
		{"other api error", &apiError{code: "AccessDenied", msg: "denied"}, false},
		{"plain error", errors.New("timeout"), false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isS3NotFound(tt.err); got != tt.want {
				t.Fatalf("isS3NotFound(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestHTTPOpen(t *testing.T) {
	want := []byte("pcm over http")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(want)
	}))
	defer srv.Close()

	src := NewHTTP(nil, srv.URL+"/track.pcm")
	r, err := src.Open(context.Background())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()
	got, _ := io.ReadAll(r)
	if !bytes.Equal(got, want) {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestHTTPOpenNotFound(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	src := NewHTTP(nil, srv.URL+"/missing.pcm")
	_, err := src.Open(context.Background())
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected os.ErrNotExist, got %v", err)
	}
}

func TestHTTPOpenServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	src := NewHTTP(nil, srv.URL)
	_, err := src.Open(context.Background())
	if err == nil {
		t.Fatal("expected error for 500")
	}
	if errors.Is(err, os.ErrNotExist) {
		t.Fatal("500 should not map to ErrNotExist")
	}
}

func TestSilenceUnbounded(t *testing.T) {
	src := NewSilence(0)
	r, err := src.Open(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	buf := make([]byte, 4096)
	for i := range buf {
		buf[i] = 0xff
	}
	n, err := io.ReadFull(r, buf)
	if err != nil || n != len(buf) {
		t.Fatalf("ReadFull: n=%d err=%v", n, err)
	}
	for i, b := range buf {
		if b != 0 {
			t.Fatalf("byte %d = %#x, want 0", i, b)
		}
	}
}

func TestSilenceLimited(t *testing.T) {
	src := NewSilence(100)
	r, err := src.Open(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 100 {
		t.Fatalf("read %d bytes, want 100", len(got))
	}
}

// ---------------------------------------------------------------------------
// Resolve tests
// ---------------------------------------------------------------------------

func TestResolve(t *testing.T) {
	tests := []struct {
		uri  string
		want string // backend type name
	}{
		{"file:///music/track.pcm", "*source.File"},
		{"/music/track.pcm", "*source.File"},
		{"relative/track.pcm", "*source.File"},
		{"s3://bucket/key.pcm", "*source.S3"},
		{"http://host/track.pcm", "*source.HTTP"},
		{"https://host/track.pcm", "*source.HTTP"},
		{"silence:", "*source.Silence"},
	}
	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			src, err := Resolve(tt.uri, Options{})
			if err != nil {
				t.Fatalf("Resolve: %v", err)
			}
			if got := typeName(src); got != tt.want {
				t.Fatalf("Resolve(%q) = %s, want %s", tt.uri, got, tt.want)
			}
		})
	}
}

func typeName(v any) string {
	switch v.(type) {
	case *File:
		return "*source.File"
	case *S3:
		return "*source.S3"
	case *HTTP:
		return "*source.HTTP"
	case *Silence:
		return "*source.Silence"
	default:
		return "unknown"
	}
}

func TestResolveUnsupportedScheme(t *testing.T) {
	_, err := Resolve("ftp://host/file", Options{})
	if !errors.Is(err, ErrUnsupportedScheme) {
		t.Fatalf("expected ErrUnsupportedScheme, got %v", err)
	}
}

func TestResolveEmpty(t *testing.T) {
	if _, err := Resolve("", Options{}); err == nil {
		t.Fatal("expected error for empty URI")
	}
}

func TestResolveS3NeedsBucketAndKey(t *testing.T) {
	for _, uri := range []string{"s3://bucket", "s3://bucket/", "s3:///key"} {
		if _, err := Resolve(uri, Options{}); err == nil {
			t.Errorf("Resolve(%q) should fail", uri)
		}
	}
}

func TestResolveS3InjectedClient(t *testing.T) {
	mock := newMockS3()
	mock.objects["b/k"] = []byte("x")

	src, err := Resolve("s3://b/k", Options{S3: mock})
	if err != nil {
		t.Fatal(err)
	}
	r, err := src.Open(context.Background())
	if err != nil {
		t.Fatalf("Open via injected client: %v", err)
	}
	r.Close()
}

func TestResolveSilenceDuration(t *testing.T) {
	f := pcm.L16Stereo44k1
	src, err := Resolve("silence:100ms", Options{Format: f})
	if err != nil {
		t.Fatal(err)
	}
	r, err := src.Open(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatal(err)
	}
	want := f.BytesInDuration(100 * time.Millisecond)
	if int64(len(got)) != want {
		t.Fatalf("read %d bytes, want %d", len(got), want)
	}
	if src.URI() != "silence:100ms" {
		t.Errorf("URI = %q", src.URI())
	}
}

func TestResolveSilenceDurationNeedsFormat(t *testing.T) {
	if _, err := Resolve("silence:10s", Options{}); err == nil {
		t.Fatal("expected error without a format")
	}
}

func TestResolveSilenceBadDuration(t *testing.T) {
	if _, err := Resolve("silence:xyz", Options{Format: pcm.L16Stereo44k1}); err == nil {
		t.Fatal("expected error for bad duration")
	}
}
