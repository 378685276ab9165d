package commands

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose  bool
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "direttarenderer",
	Short: "Diretta network audio renderer",
	Long: `direttarenderer - stream raw PCM to Diretta targets.

The renderer pulls PCM from a source (file, http, s3 or generated
silence), leases every block from a growth-aware host buffer and paces
the blocks onto the link in fixed cycles. Each lease, growth and state
change is journaled and can be watched live over the monitor socket.

Sources are plain URIs:
  file:///music/track.pcm     local file
  http://nas/track.pcm        HTTP stream
  s3://bucket/key             S3 object
  silence:                    endless zeros
  silence:10s                 ten seconds of zeros

Examples:
  # Stream one file to a target and exit
  direttarenderer play --source file:///music/track.pcm --target 192.168.1.40:4804

  # Run the daemon with a config file
  direttarenderer serve --config /etc/direttarenderer.yaml

  # Watch a running daemon
  direttarenderer monitor --addr 127.0.0.1:7979`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging()
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logging)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
}

func setupLogging() {
	level := slog.LevelInfo
	switch logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// IsVerbose returns whether verbose mode is enabled.
func IsVerbose() bool {
	return verbose
}
