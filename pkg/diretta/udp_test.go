package diretta

import (
	"bytes"
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/pion/rtp"

	"github.com/SwissMontainsBear/DirettaRendererUPnP-X/pkg/audio/pcm"
	"github.com/SwissMontainsBear/DirettaRendererUPnP-X/pkg/diretta/hostbuf"
)

// wireRecorder collects everything a UDPLink sends, packet by packet.
type wireRecorder struct {
	hello   []byte
	packets []rtp.Packet
	byes    int
	seqs    []uint16
	done    chan struct{}
}

func record(conn net.Conn) *wireRecorder {
	rec := &wireRecorder{done: make(chan struct{})}
	go func() {
		defer close(rec.done)
		buf := make([]byte, 4096)
		for {
			n, err := conn.Read(buf)
			if err != nil {
				return
			}
			var pkt rtp.Packet
			if err := pkt.Unmarshal(append([]byte(nil), buf[:n]...)); err != nil {
				return
			}
			rec.seqs = append(rec.seqs, pkt.SequenceNumber)
			switch pkt.PayloadType {
			case PayloadTypeHello:
				rec.hello = pkt.Payload
			case PayloadTypeBye:
				rec.byes++
			case PayloadTypePCM:
				rec.packets = append(rec.packets, pkt)
			}
		}
	}()
	return rec
}

func TestUDPLinkStreams(t *testing.T) {
	client, server := net.Pipe()
	defer server.Close()
	rec := record(server)

	h := newBlockHandler(t, hostbuf.KindGrowOnly, 0, 5)
	format := pcm.L16Stereo44k1

	link, err := NewUDPLink(UDPConfig{
		Conn:      client,
		Format:    format,
		Cycle:     500 * time.Microsecond,
		MTU:       100,
		SessionID: "sess-1",
	})
	if err != nil {
		t.Fatalf("NewUDPLink: %v", err)
	}

	if err := link.Run(context.Background(), h); err != nil {
		t.Fatalf("Run: %v", err)
	}
	client.Close()
	select {
	case <-rec.done:
	case <-time.After(2 * time.Second):
		t.Fatal("recorder did not finish")
	}

	if string(rec.hello) != "sess-1" {
		t.Errorf("hello payload = %q, want %q", rec.hello, "sess-1")
	}
	if rec.byes != byeRepeat {
		t.Errorf("bye packets = %d, want %d", rec.byes, byeRepeat)
	}
	if h.disconnects != 1 {
		t.Errorf("DisconnectComplete called %d times, want 1", h.disconnects)
	}

	// Sequence numbers are continuous across hello, data and bye.
	for i := 1; i < len(rec.seqs); i++ {
		if rec.seqs[i] != rec.seqs[i-1]+1 {
			t.Fatalf("seq gap at %d: %d then %d", i, rec.seqs[i-1], rec.seqs[i])
		}
	}

	// Marker bits delimit exactly one train per block.
	markers := 0
	var wire []byte
	for _, pkt := range rec.packets {
		if pkt.Marker {
			markers++
		}
		wire = append(wire, pkt.Payload...)
	}
	if markers != 5 {
		t.Errorf("marker packets = %d, want 5", markers)
	}
	if !bytes.Equal(wire, h.emitted) {
		t.Errorf("reassembled %d bytes do not match %d emitted", len(wire), len(h.emitted))
	}

	// Packets within a block share a timestamp; the timestamp advances
	// by the block's frame count.
	ts := rec.packets[0].Timestamp
	var blockBytes int
	for _, pkt := range rec.packets {
		if pkt.Timestamp != ts {
			t.Fatalf("timestamp advanced mid-block: %d then %d", ts, pkt.Timestamp)
		}
		blockBytes += len(pkt.Payload)
		if pkt.Marker {
			want := ts + uint32(format.Frames(int64(blockBytes)))
			ts = want
			blockBytes = 0
		}
	}
}

func TestUDPLinkSplitsAtMTU(t *testing.T) {
	client, server := net.Pipe()
	defer server.Close()
	rec := record(server)

	// 48k stereo 16-bit at 1ms is 192 bytes per block; MTU 64 forces
	// exactly 3 packets per block.
	h := newBlockHandler(t, hostbuf.KindDoubleBuffer, 0, 4)
	link, err := NewUDPLink(UDPConfig{
		Conn:   client,
		Format: pcm.L16Stereo48,
		Cycle:  time.Millisecond,
		MTU:    64,
	})
	if err != nil {
		t.Fatalf("NewUDPLink: %v", err)
	}

	if err := link.Run(context.Background(), h); err != nil {
		t.Fatalf("Run: %v", err)
	}
	client.Close()
	<-rec.done

	if len(rec.packets) != 12 {
		t.Fatalf("data packets = %d, want 12", len(rec.packets))
	}
	for i, pkt := range rec.packets {
		if len(pkt.Payload) != 64 {
			t.Errorf("packet %d payload = %d bytes, want 64", i, len(pkt.Payload))
		}
		wantMarker := i%3 == 2
		if pkt.Marker != wantMarker {
			t.Errorf("packet %d marker = %v, want %v", i, pkt.Marker, wantMarker)
		}
	}
}

// failConn fails every write. Only Write is ever called by the link.
type failConn struct {
	net.Conn
}

func (failConn) Write([]byte) (int, error) {
	return 0, errors.New("wire down")
}

func TestUDPLinkWriteFailure(t *testing.T) {
	h := newBlockHandler(t, hostbuf.KindGrowOnly, 0, 5)

	link, err := NewUDPLink(UDPConfig{Conn: failConn{}, Format: pcm.L16Stereo44k1})
	if err != nil {
		t.Fatalf("NewUDPLink: %v", err)
	}

	err = link.Run(context.Background(), h)
	if err == nil {
		t.Fatal("Run should fail when the conn is down")
	}
	if h.disconnects != 1 {
		t.Errorf("DisconnectComplete called %d times, want 1", h.disconnects)
	}
}

func TestNewUDPLinkValidation(t *testing.T) {
	if _, err := NewUDPLink(UDPConfig{Format: pcm.L16Stereo48}); err == nil {
		t.Error("nil conn should fail")
	}
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()
	if _, err := NewUDPLink(UDPConfig{Conn: client}); err == nil {
		t.Error("zero format should fail")
	}
}
