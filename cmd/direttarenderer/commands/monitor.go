package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/SwissMontainsBear/DirettaRendererUPnP-X/pkg/cli"
	"github.com/SwissMontainsBear/DirettaRendererUPnP-X/pkg/journal"
	"github.com/SwissMontainsBear/DirettaRendererUPnP-X/pkg/monitor"
	"github.com/SwissMontainsBear/DirettaRendererUPnP-X/pkg/render"
)

const eventBacklog = 64

var (
	flagMonitorAddr  string
	flagMonitorWidth int
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Attach to a running daemon and watch it live",
	Long: `Attach to a running daemon's monitor socket and render its status.

The daemon pushes a frame per interval: the engine snapshot plus any
journal events recorded since the last frame. The view redraws on every
frame until the daemon goes away or the monitor is interrupted.

Example:
  direttarenderer monitor --addr 127.0.0.1:7979`,
	RunE: runMonitor,
}

func init() {
	monitorCmd.Flags().StringVar(&flagMonitorAddr, "addr", "127.0.0.1:7979", "monitor socket address")
	monitorCmd.Flags().IntVar(&flagMonitorWidth, "width", 72, "panel width in columns")
	rootCmd.AddCommand(monitorCmd)
}

func runMonitor(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client, err := monitor.Dial(ctx, flagMonitorAddr)
	if err != nil {
		return err
	}
	defer client.Close()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		client.Close()
		cancel()
	}()

	styles := cli.NewStyles(cli.DefaultTheme)
	var events []string
	var prev monitor.Frame
	havePrev := false

	for frame, err := range client.Frames() {
		if err != nil {
			return err
		}
		for _, ev := range frame.Events {
			events = append(events, formatEvent(ev))
		}
		if len(events) > eventBacklog {
			events = events[len(events)-eventBacklog:]
		}

		fmt.Print("\033[H\033[2J")
		fmt.Println(renderStatus(&styles, frame, prev, havePrev, events))
		prev, havePrev = frame, true
	}
	return nil
}

func renderStatus(styles *cli.Styles, frame, prev monitor.Frame, havePrev bool, events []string) string {
	st := frame.Status
	rows := []cli.Row{
		{Label: "session", Value: st.Session},
		{Label: "state", Value: st.State.String(), Accent: stateAccent(styles, st.State)},
		{Label: "source", Value: st.Source},
		{Label: "format", Value: st.Format.String()},
		{Label: "policy", Value: string(st.Policy)},
		{Label: "online", Value: fmt.Sprintf("%v", st.Online)},
		{Label: "blocks", Value: fmt.Sprintf("%d", st.Blocks)},
		{Label: "bytes", Value: cli.FormatBytes(st.Bytes)},
	}
	if havePrev {
		if dt := frame.Time.Sub(prev.Time); dt > 0 {
			rate := float64(st.Bytes-prev.Status.Bytes) / dt.Seconds()
			rows = append(rows, cli.Row{Label: "rate", Value: cli.FormatRate(rate)})
		}
	}
	if st.Padded > 0 {
		rows = append(rows, cli.Row{Label: "padded", Value: cli.FormatBytes(st.Padded), Accent: &styles.Warn})
	}
	rows = append(rows,
		cli.Row{Label: "grows", Value: fmt.Sprintf("%d (%d online)", st.Buffer.Grows, st.Buffer.OnlineGrows)},
		cli.Row{Label: "base moves", Value: fmt.Sprintf("%d", st.Buffer.BaseMoves)},
	)
	if st.Dropped > 0 {
		rows = append(rows, cli.Row{Label: "dropped", Value: fmt.Sprintf("%d", st.Dropped), Accent: &styles.Warn})
	}
	if st.Err != "" {
		rows = append(rows, cli.Row{Label: "error", Value: st.Err, Accent: &styles.Bad})
	}

	panel := cli.Panel{
		Styles:    *styles,
		Title:     "direttarenderer",
		Status:    st.State.String(),
		Rows:      rows,
		Events:    events,
		MaxEvents: 12,
		Help:      "ctrl-c to detach",
	}
	return panel.Render(flagMonitorWidth)
}

func stateAccent(styles *cli.Styles, state render.State) *lipgloss.Style {
	switch {
	case state == render.StateStreaming:
		return &styles.Good
	case state == render.StateFaulted:
		return &styles.Bad
	case state.IsActive():
		return &styles.Warn
	}
	return nil
}

func formatEvent(ev journal.Event) string {
	ts := ev.Time.Time().Format("15:04:05.000")
	switch ev.Kind {
	case journal.KindAcquire:
		s := fmt.Sprintf("%s acquire block=%d size=%d", ts, ev.Block, ev.Size)
		if ev.BaseMoved {
			s += " moved"
		}
		return s
	case journal.KindGrow:
		return fmt.Sprintf("%s grow block=%d size=%d gen=%d", ts, ev.Block, ev.Size, ev.Generation)
	case journal.KindRelease:
		return ts + " release"
	case journal.KindState:
		return fmt.Sprintf("%s state %s", ts, ev.State)
	case journal.KindOnline:
		return fmt.Sprintf("%s online %v", ts, ev.Online)
	case journal.KindError:
		return fmt.Sprintf("%s error %s", ts, ev.Err)
	default:
		return fmt.Sprintf("%s %s", ts, ev.Kind)
	}
}
