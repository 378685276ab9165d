package source

import (
	"context"
	"io"
	"os"
)

// File reads PCM from a local file.
type File struct {
	path string
}

// NewFile creates a file-backed source for the given filesystem path.
func NewFile(path string) *File {
	return &File{path: path}
}

// Open opens the file for reading.
func (f *File) Open(_ context.Context) (io.ReadCloser, error) {
	return os.Open(f.path)
}

// URI returns the file URI.
func (f *File) URI() string {
	return "file://" + f.path
}

var _ Source = (*File)(nil)
