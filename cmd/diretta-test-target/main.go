// Diretta test target
//
// A fake Diretta target for end-to-end testing: listens on UDP,
// reassembles RTP block trains, verifies sequence continuity and logs
// periodic stats. Optionally captures the received PCM to a file.
//
// Usage:
//   go run . [options]
//
// Options:
//   -port=4804      UDP listen port
//   -out=           capture received PCM to this file
//   -interval=1s    stats log interval

package main

import (
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/pion/rtp"

	"github.com/SwissMontainsBear/DirettaRendererUPnP-X/pkg/diretta"
)

// TestTarget collects and verifies the renderer's block trains.
type TestTarget struct {
	mu         sync.Mutex
	session    string
	seq        uint16
	packets    uint64
	bad        uint64
	blocks     uint64
	byes       uint64
	gaps       uint64
	bytes      int64
	blockBytes int
	minBlock   int
	maxBlock   int
	inBye      bool
	out        *os.File
	started    time.Time
}

// NewTestTarget creates a new test target.
func NewTestTarget(out *os.File) *TestTarget {
	return &TestTarget{out: out, started: time.Now()}
}

// HandlePacket processes one datagram from the renderer.
func (t *TestTarget) HandlePacket(addr net.Addr, data []byte) {
	var pkt rtp.Packet
	if err := pkt.Unmarshal(data); err != nil {
		t.mu.Lock()
		t.bad++
		t.mu.Unlock()
		log.Printf("[TARGET] Bad packet from %s: %v", addr, err)
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.packets > 0 {
		if expected := t.seq + 1; pkt.SequenceNumber != expected {
			t.gaps += uint64(pkt.SequenceNumber - expected)
			log.Printf("[TARGET] Sequence gap: got %d, expected %d", pkt.SequenceNumber, expected)
		}
	}
	t.seq = pkt.SequenceNumber
	t.packets++

	switch pkt.PayloadType {
	case diretta.PayloadTypeHello:
		t.session = string(pkt.Payload)
		t.inBye = false
		t.blockBytes = 0
		log.Printf("[TARGET] Session %s started from %s (ssrc=%08x)", t.session, addr, pkt.SSRC)

	case diretta.PayloadTypePCM:
		t.inBye = false
		t.blockBytes += len(pkt.Payload)
		t.bytes += int64(len(pkt.Payload))
		if t.out != nil {
			if _, err := t.out.Write(pkt.Payload); err != nil {
				log.Printf("[TARGET] Capture write failed: %v", err)
				t.out = nil
			}
		}
		if pkt.Marker {
			t.blocks++
			if t.blockBytes > t.maxBlock {
				t.maxBlock = t.blockBytes
			}
			if t.minBlock == 0 || t.blockBytes < t.minBlock {
				t.minBlock = t.blockBytes
			}
			t.blockBytes = 0
		}

	case diretta.PayloadTypeBye:
		t.byes++
		if !t.inBye {
			t.inBye = true
			log.Printf("[TARGET] Session %s ended: %d blocks, %d bytes, %d gaps",
				t.session, t.blocks, t.bytes, t.gaps)
		}

	default:
		log.Printf("[TARGET] Unknown payload type %d (%d bytes)", pkt.PayloadType, len(pkt.Payload))
	}
}

// statsLoop logs throughput while blocks are arriving.
func (t *TestTarget) statsLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var lastBytes int64
	var lastBlocks uint64
	for range ticker.C {
		t.mu.Lock()
		bytes, blocks, gaps := t.bytes, t.blocks, t.gaps
		t.mu.Unlock()
		if bytes == lastBytes && blocks == lastBlocks {
			continue
		}
		rate := float64(bytes-lastBytes) / interval.Seconds() / 1024
		log.Printf("[TARGET] %d blocks, %d bytes, %.1f KB/s, %d gaps", blocks, bytes, rate, gaps)
		lastBytes, lastBlocks = bytes, blocks
	}
}

// PrintSummary prints a summary of the received stream.
func (t *TestTarget) PrintSummary() {
	t.mu.Lock()
	defer t.mu.Unlock()

	fmt.Println("\n=== Target Summary ===")
	fmt.Printf("Session:      %s\n", t.session)
	fmt.Printf("Packets:      %d (%d bad, %d byes)\n", t.packets, t.bad, t.byes)
	fmt.Printf("Blocks:       %d\n", t.blocks)
	fmt.Printf("Bytes:        %d\n", t.bytes)
	if t.blocks > 0 {
		fmt.Printf("Block sizes:  %d..%d bytes\n", t.minBlock, t.maxBlock)
	}
	fmt.Printf("Seq gaps:     %d\n", t.gaps)
	fmt.Printf("Uptime:       %s\n", time.Since(t.started).Round(time.Second))
}

func main() {
	port := flag.Int("port", 4804, "UDP listen port")
	out := flag.String("out", "", "capture received PCM to this file")
	interval := flag.Duration("interval", time.Second, "stats log interval")
	flag.Parse()

	var capture *os.File
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			log.Fatalf("create capture file: %v", err)
		}
		defer f.Close()
		capture = f
		log.Printf("[TARGET] Capturing PCM to %s", *out)
	}

	target := NewTestTarget(capture)

	conn, err := net.ListenPacket("udp", fmt.Sprintf(":%d", *port))
	if err != nil {
		log.Fatalf("listen: %v", err)
	}
	defer conn.Close()
	log.Printf("[TARGET] Listening on %s", conn.LocalAddr())

	// Handle signals for graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\nShutting down...")
		target.PrintSummary()
		os.Exit(0)
	}()

	go target.statsLoop(*interval)

	buf := make([]byte, 65536)
	for {
		n, addr, err := conn.ReadFrom(buf)
		if err != nil {
			log.Fatalf("read: %v", err)
		}
		target.HandlePacket(addr, buf[:n])
	}
}
