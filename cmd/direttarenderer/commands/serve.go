package commands

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/SwissMontainsBear/DirettaRendererUPnP-X/pkg/diretta"
	"github.com/SwissMontainsBear/DirettaRendererUPnP-X/pkg/diretta/hostbuf"
	"github.com/SwissMontainsBear/DirettaRendererUPnP-X/pkg/journal"
	"github.com/SwissMontainsBear/DirettaRendererUPnP-X/pkg/monitor"
	"github.com/SwissMontainsBear/DirettaRendererUPnP-X/pkg/render"
	"github.com/SwissMontainsBear/DirettaRendererUPnP-X/pkg/source"
)

var flagServeConfig string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the renderer daemon",
	Long: `Run the renderer daemon from a YAML config.

The daemon streams the configured source to the target, journals every
buffer event and serves live status on the monitor socket until the
source ends or the process is interrupted.

Config file example:

  source: file:///music/track.pcm
  target: 192.168.1.40:4804
  format:
    sample_rate: 44100
    bit_depth: 16
    channels: 2
  cycle: 10ms
  buffer:
    policy: double-buffer
  journal_dir: /var/lib/direttarenderer/journal
  monitor_addr: 127.0.0.1:7979`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&flagServeConfig, "config", "f", "", "config file path (YAML)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	if flagServeConfig == "" {
		return errors.New("--config is required")
	}
	cfg, err := LoadConfig(flagServeConfig)
	if err != nil {
		return err
	}
	logger := slog.Default()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("shutting down")
		cancel()
	}()

	store, err := openStore(cfg.JournalDir, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	jw, err := journal.NewWriter(journal.WriterOptions{Store: store, Logger: logger})
	if err != nil {
		return err
	}
	defer jw.Close()

	src, err := source.Resolve(cfg.Source, source.Options{Format: cfg.Format})
	if err != nil {
		return err
	}

	cfg.Buffer.Logger = logger
	mgr, err := hostbuf.New(cfg.Buffer)
	if err != nil {
		return err
	}

	conn, err := net.Dial("udp", cfg.Target)
	if err != nil {
		return err
	}
	defer conn.Close()

	sessionID := uuid.NewString()
	link, err := diretta.NewUDPLink(diretta.UDPConfig{
		Conn:      conn,
		Format:    cfg.Format,
		Cycle:     cfg.CyclePeriod(),
		MTU:       cfg.MTU,
		SessionID: sessionID,
		Logger:    logger,
	})
	if err != nil {
		return err
	}

	engine, err := render.New(render.Config{
		Source:    src,
		Format:    cfg.Format,
		Manager:   mgr,
		Link:      link,
		Journal:   jw,
		SessionID: sessionID,
		Logger:    logger,
	})
	if err != nil {
		return err
	}

	if cfg.MonitorAddr != "" {
		mon, err := monitor.NewServer(monitor.ServerOptions{
			Status: engine.Status,
			Store:  store,
			Logger: logger,
		})
		if err != nil {
			return err
		}
		defer mon.Close()
		go func() {
			if err := mon.ListenAndServe(cfg.MonitorAddr); err != nil {
				logger.Error("monitor: serve", "addr", cfg.MonitorAddr, "error", err)
			}
		}()
		logger.Info("monitor listening", "addr", cfg.MonitorAddr)
	}

	logger.Info("starting session",
		"session", sessionID,
		"source", cfg.Source,
		"target", cfg.Target,
		"format", cfg.Format.String(),
		"cycle", cfg.CyclePeriod(),
		"policy", cfg.Buffer.Policy)

	err = engine.Run(ctx)

	st := engine.Status()
	logger.Info("session finished",
		"state", st.State,
		"blocks", st.Blocks,
		"bytes", st.Bytes,
		"padded", st.Padded,
		"grows", st.Buffer.Grows,
		"base_moves", st.Buffer.BaseMoves,
		"journal_dropped", st.Dropped)
	return err
}
