package diretta

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/SwissMontainsBear/DirettaRendererUPnP-X/pkg/audio/pcm"
	"github.com/SwissMontainsBear/DirettaRendererUPnP-X/pkg/diretta/hostbuf"
)

// blockHandler serves blocks from a real buffer manager, filling each
// view with a per-block pattern and keeping a copy for comparison.
type blockHandler struct {
	mgr       *hostbuf.Manager
	remaining int

	block       uint64
	emitted     []byte
	disconnects int
}

func newBlockHandler(t *testing.T, policy hostbuf.Kind, prealloc int, blocks int) *blockHandler {
	t.Helper()
	mgr, err := hostbuf.New(hostbuf.Config{Policy: policy, PreallocBytes: prealloc})
	if err != nil {
		t.Fatalf("hostbuf.New: %v", err)
	}
	return &blockHandler{mgr: mgr, remaining: blocks}
}

func (h *blockHandler) NextBlock(size int) ([]byte, error) {
	if h.remaining == 0 {
		return nil, io.EOF
	}
	h.remaining--

	view, err := h.mgr.Acquire(size)
	if err != nil {
		return nil, err
	}
	h.block++
	for i := range view {
		view[i] = byte(h.block) ^ byte(i)
	}
	h.emitted = append(h.emitted, view...)
	return view, nil
}

func (h *blockHandler) DisconnectComplete() {
	h.disconnects++
	h.mgr.Release()
}

func TestPipeLinkDelivers(t *testing.T) {
	h := newBlockHandler(t, hostbuf.KindDoubleBuffer, 0, 25)
	var sink bytes.Buffer

	link, err := NewPipeLink(PipeConfig{
		Format: pcm.L16Stereo44k1,
		Cycle:  time.Millisecond,
		Sink:   &sink,
	})
	if err != nil {
		t.Fatalf("NewPipeLink: %v", err)
	}

	if err := link.Run(context.Background(), h); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if link.Blocks() != 25 {
		t.Errorf("Blocks = %d, want 25", link.Blocks())
	}
	if link.Bytes() != int64(len(h.emitted)) {
		t.Errorf("Bytes = %d, want %d", link.Bytes(), len(h.emitted))
	}
	if !bytes.Equal(sink.Bytes(), h.emitted) {
		t.Error("sink content does not match emitted blocks")
	}
	if h.disconnects != 1 {
		t.Errorf("DisconnectComplete called %d times, want 1", h.disconnects)
	}
}

// mutatingSink corrupts one block's view during its hold window.
type mutatingSink struct {
	after int
	n     int
}

func (s *mutatingSink) Write(p []byte) (int, error) {
	s.n++
	if s.n == s.after {
		p[0] ^= 0xff
	}
	return len(p), nil
}

func TestPipeLinkDetectsMutation(t *testing.T) {
	h := newBlockHandler(t, hostbuf.KindGrowOnly, 0, 10)

	link, err := NewPipeLink(PipeConfig{
		Format: pcm.L16Stereo44k1,
		Cycle:  time.Millisecond,
		Sink:   &mutatingSink{after: 3},
	})
	if err != nil {
		t.Fatalf("NewPipeLink: %v", err)
	}

	err = link.Run(context.Background(), h)
	if !errors.Is(err, ErrViewMutated) {
		t.Fatalf("Run error = %v, want ErrViewMutated", err)
	}
	if h.disconnects != 1 {
		t.Errorf("DisconnectComplete called %d times, want 1", h.disconnects)
	}
}

// shortHandler returns views one byte shorter than requested.
type shortHandler struct {
	disconnects int
}

func (h *shortHandler) NextBlock(size int) ([]byte, error) {
	return make([]byte, size-1), nil
}

func (h *shortHandler) DisconnectComplete() { h.disconnects++ }

func TestPipeLinkRejectsShortView(t *testing.T) {
	h := &shortHandler{}
	link, err := NewPipeLink(PipeConfig{Format: pcm.L16Stereo48, Cycle: time.Millisecond})
	if err != nil {
		t.Fatalf("NewPipeLink: %v", err)
	}

	err = link.Run(context.Background(), h)
	if !errors.Is(err, ErrShortView) {
		t.Fatalf("Run error = %v, want ErrShortView", err)
	}
	if h.disconnects != 1 {
		t.Errorf("DisconnectComplete called %d times, want 1", h.disconnects)
	}
}

func TestPipeLinkContextCancel(t *testing.T) {
	h := newBlockHandler(t, hostbuf.KindGrowOnly, 0, 1<<30)

	link, err := NewPipeLink(PipeConfig{Format: pcm.L16Stereo44k1, Cycle: time.Millisecond})
	if err != nil {
		t.Fatalf("NewPipeLink: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err = link.Run(ctx, h)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Run error = %v, want context.DeadlineExceeded", err)
	}
	if h.disconnects != 1 {
		t.Errorf("DisconnectComplete called %d times, want 1", h.disconnects)
	}
	if link.Blocks() == 0 {
		t.Error("no blocks consumed before cancel")
	}
}

func TestNewPipeLinkValidation(t *testing.T) {
	if _, err := NewPipeLink(PipeConfig{}); err == nil {
		t.Fatal("zero format should fail validation")
	}
	_, err := NewPipeLink(PipeConfig{Format: pcm.L16Stereo44k1, Cycle: time.Microsecond})
	if err == nil {
		t.Fatal("sub-frame cycle should fail validation")
	}
}
