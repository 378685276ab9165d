package commands

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/SwissMontainsBear/DirettaRendererUPnP-X/pkg/audio/pcm"
	"github.com/SwissMontainsBear/DirettaRendererUPnP-X/pkg/diretta"
	"github.com/SwissMontainsBear/DirettaRendererUPnP-X/pkg/diretta/hostbuf"
	"github.com/SwissMontainsBear/DirettaRendererUPnP-X/pkg/jsontime"
	"github.com/SwissMontainsBear/DirettaRendererUPnP-X/pkg/kv"
)

// Config drives the serve daemon.
//
// Example:
//
//	source: file:///music/track.pcm
//	target: 192.168.1.40:4804
//	format:
//	  sample_rate: 44100
//	  bit_depth: 16
//	  channels: 2
//	cycle: 10ms
//	buffer:
//	  policy: double-buffer
//	journal_dir: /var/lib/direttarenderer/journal
//	monitor_addr: 127.0.0.1:7979
type Config struct {
	// Source is the PCM source URI (file://, s3://, http(s)://, silence:).
	Source string `yaml:"source"`

	// Target is the UDP address of the Diretta target.
	Target string `yaml:"target"`

	// Format describes the raw PCM stream.
	Format pcm.Format `yaml:"format"`

	// Cycle is the link cycle period. Defaults to 10ms.
	Cycle *jsontime.Duration `yaml:"cycle,omitempty"`

	// Buffer selects and sizes the host buffer policy.
	Buffer hostbuf.Config `yaml:"buffer"`

	// MTU caps the size of a single link datagram. Defaults to 1400.
	MTU int `yaml:"mtu,omitempty"`

	// JournalDir is the badger directory for the session journal.
	// Empty keeps the journal in memory.
	JournalDir string `yaml:"journal_dir,omitempty"`

	// MonitorAddr is the listen address of the monitor socket. Empty
	// disables the monitor.
	MonitorAddr string `yaml:"monitor_addr,omitempty"`
}

// DefaultConfig returns the config the daemon runs with before the
// file is applied.
func DefaultConfig() Config {
	return Config{
		Format: pcm.L16Stereo44k1,
		Buffer: hostbuf.Config{Policy: hostbuf.KindDoubleBuffer},
	}
}

// LoadConfig reads and validates a YAML config file, applying defaults
// for anything the file leaves out.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports whether the config can run a session.
func (c Config) Validate() error {
	if c.Source == "" {
		return errors.New("source is required")
	}
	if c.Target == "" {
		return errors.New("target is required")
	}
	if err := c.Format.Validate(); err != nil {
		return err
	}
	if err := c.Buffer.Validate(); err != nil {
		return err
	}
	if c.MTU < 0 {
		return fmt.Errorf("mtu must not be negative, got %d", c.MTU)
	}
	return nil
}

// CyclePeriod returns the configured cycle, or the link default.
func (c Config) CyclePeriod() time.Duration {
	if d := c.Cycle.Duration(); d > 0 {
		return d
	}
	return diretta.DefaultCycle
}

// openStore opens the journal store: badger at dir, or in-memory when
// dir is empty.
func openStore(dir string, logger *slog.Logger) (kv.Store, error) {
	if dir == "" {
		return kv.NewMemory(nil), nil
	}
	return kv.NewBadger(kv.BadgerOptions{Dir: dir, Logger: logger})
}
