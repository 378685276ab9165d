// Package cli provides terminal UI helpers for the renderer commands:
// a lipgloss theme, a bordered status panel and human-unit formatting.
//
// The monitor command composes a [Panel] from live status frames:
//
//	styles := cli.NewStyles(cli.DefaultTheme)
//	panel := cli.Panel{
//		Styles: styles,
//		Title:  "direttarenderer",
//		Status: "streaming",
//		Rows: []cli.Row{
//			{Label: "session", Value: id},
//			{Label: "bytes", Value: cli.FormatBytes(n)},
//		},
//	}
//	fmt.Println(panel.Render(width))
package cli
