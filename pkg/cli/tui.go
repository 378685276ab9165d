package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme defines the color scheme for the monitor view.
type Theme struct {
	Primary lipgloss.Color // Main accent color
	Dim     lipgloss.Color // Dimmed/help text color
	Good    lipgloss.Color // Healthy state color
	Warn    lipgloss.Color // Draining/transient state color
	Bad     lipgloss.Color // Fault color
}

// DefaultTheme is the default bright green theme.
var DefaultTheme = Theme{
	Primary: lipgloss.Color("#00ff9f"),
	Dim:     lipgloss.Color("#6e7681"),
	Good:    lipgloss.Color("#00ff9f"),
	Warn:    lipgloss.Color("#e3b341"),
	Bad:     lipgloss.Color("#f85149"),
}

// Styles holds all styles derived from a theme.
type Styles struct {
	Title  lipgloss.Style
	Label  lipgloss.Style
	Value  lipgloss.Style
	Border lipgloss.Style
	Help   lipgloss.Style
	Good   lipgloss.Style
	Warn   lipgloss.Style
	Bad    lipgloss.Style
}

// NewStyles creates styles from a theme.
func NewStyles(t Theme) Styles {
	return Styles{
		Title:  lipgloss.NewStyle().Bold(true).Foreground(t.Primary).Padding(0, 1),
		Label:  lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		Value:  lipgloss.NewStyle(),
		Border: lipgloss.NewStyle().Foreground(t.Primary),
		Help:   lipgloss.NewStyle().Foreground(t.Dim),
		Good:   lipgloss.NewStyle().Foreground(t.Good),
		Warn:   lipgloss.NewStyle().Foreground(t.Warn),
		Bad:    lipgloss.NewStyle().Bold(true).Foreground(t.Bad),
	}
}

// Row is one label/value line in a panel. Accent, when set, colors the
// value; the zero style leaves it plain.
type Row struct {
	Label  string
	Value  string
	Accent *lipgloss.Style
}

// Panel renders a bordered status panel: a title bar with a status tag,
// aligned label/value rows, and an optional trailing event log.
type Panel struct {
	Styles Styles
	Title  string
	Status string
	Rows   []Row
	// Events holds recent log lines, oldest first. Only the last
	// MaxEvents lines are rendered.
	Events    []string
	MaxEvents int
	Help      string
}

const defaultPanelWidth = 72

// Render renders the panel to a string at the given terminal width.
func (p Panel) Render(width int) string {
	if width < 20 {
		width = defaultPanelWidth
	}

	bc := p.Styles.Border
	maxContentWidth := width - 4

	var lines []string

	// Top border
	lines = append(lines, bc.Render("╭"+strings.Repeat("─", width-2)+"╮"))

	// Title line: │ title [status]    │
	title := p.Styles.Title.Render(p.Title)
	status := p.Styles.Help.Render("[" + p.Status + "]")
	padding := max(0, width-5-lipgloss.Width(title)-lipgloss.Width(status))
	lines = append(lines, bc.Render("│")+" "+title+" "+status+
		strings.Repeat(" ", padding)+" "+bc.Render("│"))

	lines = append(lines, p.emptyLine(width))

	// Label/value rows, labels padded to a common width.
	labelWidth := 0
	for _, row := range p.Rows {
		labelWidth = max(labelWidth, len(row.Label))
	}
	for _, row := range p.Rows {
		label := p.Styles.Label.Render(row.Label) +
			strings.Repeat(" ", labelWidth-len(row.Label))
		value := row.Value
		if maxContentWidth > labelWidth+3 && lipgloss.Width(value) > maxContentWidth-labelWidth-2 {
			value = truncateString(value, maxContentWidth-labelWidth-3) + "…"
		}
		if row.Accent != nil {
			value = row.Accent.Render(value)
		} else {
			value = p.Styles.Value.Render(value)
		}
		text := label + "  " + value
		pad := max(0, maxContentWidth-lipgloss.Width(text))
		lines = append(lines, bc.Render("│")+" "+text+strings.Repeat(" ", pad)+" "+bc.Render("│"))
	}

	if len(p.Events) > 0 {
		lines = append(lines, p.renderEvents(bc, width, maxContentWidth)...)
	}

	// Bottom border
	lines = append(lines, bc.Render("╰"+strings.Repeat("─", width-2)+"╯"))

	if p.Help != "" {
		lines = append(lines, p.Styles.Help.Render(p.Help))
	}

	return strings.Join(lines, "\n")
}

// renderEvents renders the event log under a separator with an embedded
// label: ├─events──────┤
func (p Panel) renderEvents(bc lipgloss.Style, width, maxContentWidth int) []string {
	var lines []string

	labelText := p.Styles.Label.Render("events")
	padding := max(0, width-3-lipgloss.Width(labelText))
	lines = append(lines, bc.Render("├")+bc.Render("─")+labelText+
		bc.Render(strings.Repeat("─", padding))+bc.Render("┤"))

	limit := p.MaxEvents
	if limit <= 0 {
		limit = 8
	}
	events := p.Events
	if len(events) > limit {
		events = events[len(events)-limit:]
	}
	for _, text := range events {
		if maxContentWidth > 1 && lipgloss.Width(text) > maxContentWidth {
			text = truncateString(text, maxContentWidth-1) + "…"
		}
		pad := max(0, maxContentWidth-lipgloss.Width(text))
		lines = append(lines, bc.Render("│")+" "+p.Styles.Help.Render(text)+
			strings.Repeat(" ", pad)+" "+bc.Render("│"))
	}
	return lines
}

func (p Panel) emptyLine(width int) string {
	bc := p.Styles.Border
	return bc.Render("│") + strings.Repeat(" ", width-2) + bc.Render("│")
}

// truncateString safely truncates a string to the given width,
// handling multi-byte characters correctly.
func truncateString(s string, width int) string {
	if width <= 0 {
		return ""
	}
	runes := []rune(s)
	currentWidth := 0
	for i, r := range runes {
		w := lipgloss.Width(string(r))
		if currentWidth+w > width {
			return string(runes[:i])
		}
		currentWidth += w
	}
	return s
}
