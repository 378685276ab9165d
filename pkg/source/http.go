package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
)

// HTTP streams PCM from an HTTP(S) URL with a plain GET.
type HTTP struct {
	client *http.Client
	url    string
}

// NewHTTP creates an HTTP-backed source. A nil client uses
// http.DefaultClient.
func NewHTTP(client *http.Client, url string) *HTTP {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTP{client: client, url: url}
}

// Open issues the GET and returns the response body.
// A 404 maps to an error wrapping os.ErrNotExist; any other non-2xx
// status is an error.
func (h *HTTP) Open(ctx context.Context) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusNotFound {
		resp.Body.Close()
		return nil, fmt.Errorf("source: %s: %w", h.url, os.ErrNotExist)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, fmt.Errorf("source: %s: unexpected status %s", h.url, resp.Status)
	}
	return resp.Body, nil
}

// URI returns the URL.
func (h *HTTP) URI() string {
	return h.url
}

var _ Source = (*HTTP)(nil)
