package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/SwissMontainsBear/DirettaRendererUPnP-X/pkg/audio/pcm"
	"github.com/SwissMontainsBear/DirettaRendererUPnP-X/pkg/cli"
	"github.com/SwissMontainsBear/DirettaRendererUPnP-X/pkg/diretta"
	"github.com/SwissMontainsBear/DirettaRendererUPnP-X/pkg/diretta/hostbuf"
	"github.com/SwissMontainsBear/DirettaRendererUPnP-X/pkg/journal"
	"github.com/SwissMontainsBear/DirettaRendererUPnP-X/pkg/render"
	"github.com/SwissMontainsBear/DirettaRendererUPnP-X/pkg/source"
)

var (
	flagPlaySource   string
	flagPlayTarget   string
	flagPlayLoopback bool
	flagPlayOut      string
	flagPlayRate     int
	flagPlayBits     int
	flagPlayChannels int
	flagPlayCycle    time.Duration
	flagPlayPolicy   string
	flagPlayPrealloc int
	flagPlayMTU      int
	flagPlayJournal  string
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Stream a single source to a target and exit",
	Long: `Stream a single source to a Diretta target and exit.

With --loopback the stream stays in-process: blocks run through the
full lease cycle against a pipe link instead of the network, optionally
dumping the delivered PCM to --out. Useful for smoke tests and for
checking a source decodes to the expected length.

Examples:
  direttarenderer play --source file:///music/track.pcm --target 192.168.1.40:4804
  direttarenderer play --source silence:10s --target 192.168.1.40:4804 --policy preallocated --prealloc 8192
  direttarenderer play --source s3://music/track.pcm --loopback --out /tmp/track.pcm`,
	RunE: runPlay,
}

func init() {
	playCmd.Flags().StringVar(&flagPlaySource, "source", "", "source URI (required)")
	playCmd.Flags().StringVar(&flagPlayTarget, "target", "", "UDP address of the Diretta target")
	playCmd.Flags().BoolVar(&flagPlayLoopback, "loopback", false, "render to an in-process pipe instead of a target")
	playCmd.Flags().StringVar(&flagPlayOut, "out", "", "write delivered PCM to this file (loopback only)")
	playCmd.Flags().IntVar(&flagPlayRate, "rate", 44100, "sample rate in Hz")
	playCmd.Flags().IntVar(&flagPlayBits, "bits", 16, "bit depth (16, 24, 32)")
	playCmd.Flags().IntVar(&flagPlayChannels, "channels", 2, "channel count")
	playCmd.Flags().DurationVar(&flagPlayCycle, "cycle", diretta.DefaultCycle, "link cycle period")
	playCmd.Flags().StringVar(&flagPlayPolicy, "policy", string(hostbuf.KindDoubleBuffer), "buffer policy (grow-only, double-buffer, preallocated)")
	playCmd.Flags().IntVar(&flagPlayPrealloc, "prealloc", 0, "preallocated capacity in bytes (preallocated policy)")
	playCmd.Flags().IntVar(&flagPlayMTU, "mtu", diretta.DefaultMTU, "max bytes per link datagram")
	playCmd.Flags().StringVar(&flagPlayJournal, "journal", "", "badger directory for the session journal (default in-memory)")
	rootCmd.AddCommand(playCmd)
}

func runPlay(cmd *cobra.Command, args []string) error {
	if flagPlaySource == "" {
		return errors.New("--source is required")
	}
	if flagPlayTarget == "" && !flagPlayLoopback {
		return errors.New("either --target or --loopback is required")
	}
	if flagPlayTarget != "" && flagPlayLoopback {
		return errors.New("--target and --loopback are mutually exclusive")
	}
	if flagPlayOut != "" && !flagPlayLoopback {
		return errors.New("--out needs --loopback")
	}
	logger := slog.Default()

	format := pcm.Format{
		SampleRate: flagPlayRate,
		BitDepth:   flagPlayBits,
		Channels:   flagPlayChannels,
	}
	if err := format.Validate(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("interrupted")
		cancel()
	}()

	store, err := openStore(flagPlayJournal, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	jw, err := journal.NewWriter(journal.WriterOptions{Store: store, Logger: logger})
	if err != nil {
		return err
	}
	defer jw.Close()

	src, err := source.Resolve(flagPlaySource, source.Options{Format: format})
	if err != nil {
		return err
	}

	mgr, err := hostbuf.New(hostbuf.Config{
		Policy:        hostbuf.Kind(flagPlayPolicy),
		PreallocBytes: flagPlayPrealloc,
		Logger:        logger,
	})
	if err != nil {
		return err
	}

	sessionID := uuid.NewString()
	link, closeLink, err := buildPlayLink(format, sessionID, logger)
	if err != nil {
		return err
	}
	defer closeLink()

	engine, err := render.New(render.Config{
		Source:    src,
		Format:    format,
		Manager:   mgr,
		Link:      link,
		Journal:   jw,
		SessionID: sessionID,
		Logger:    logger,
	})
	if err != nil {
		return err
	}

	started := time.Now()
	runErr := engine.Run(ctx)

	st := engine.Status()
	fmt.Printf("session   %s\n", st.Session)
	fmt.Printf("state     %s\n", st.State)
	fmt.Printf("blocks    %d\n", st.Blocks)
	fmt.Printf("bytes     %s\n", cli.FormatBytes(st.Bytes))
	fmt.Printf("audio     %s\n", cli.FormatDuration(format.Duration(st.Bytes+st.Padded)))
	fmt.Printf("elapsed   %s\n", cli.FormatDuration(time.Since(started)))
	if st.Padded > 0 {
		fmt.Printf("padded    %s\n", cli.FormatBytes(st.Padded))
	}
	if st.Buffer.Grows > 0 {
		fmt.Printf("grows     %d (%d while streaming)\n", st.Buffer.Grows, st.Buffer.OnlineGrows)
	}
	if st.Err != "" {
		fmt.Printf("error     %s\n", st.Err)
	}
	return runErr
}

// buildPlayLink wires either the UDP link to the target or an
// in-process pipe, optionally teeing the pipe into --out.
func buildPlayLink(format pcm.Format, sessionID string, logger *slog.Logger) (diretta.Link, func(), error) {
	if flagPlayLoopback {
		var sink io.Writer
		cleanup := func() {}
		if flagPlayOut != "" {
			f, err := os.Create(flagPlayOut)
			if err != nil {
				return nil, nil, err
			}
			sink = f
			cleanup = func() { f.Close() }
		}
		link, err := diretta.NewPipeLink(diretta.PipeConfig{
			Format: format,
			Cycle:  flagPlayCycle,
			Sink:   sink,
			Logger: logger,
		})
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		return link, cleanup, nil
	}

	conn, err := net.Dial("udp", flagPlayTarget)
	if err != nil {
		return nil, nil, err
	}
	link, err := diretta.NewUDPLink(diretta.UDPConfig{
		Conn:      conn,
		Format:    format,
		Cycle:     flagPlayCycle,
		MTU:       flagPlayMTU,
		SessionID: sessionID,
		Logger:    logger,
	})
	if err != nil {
		conn.Close()
		return nil, nil, err
	}
	return link, func() { conn.Close() }, nil
}
