// Package main is the entry point for the direttarenderer CLI.
//
// Usage:
//
//	direttarenderer [flags] <command> [args]
//
// Commands:
//
//	serve    - Run the renderer daemon from a YAML config
//	play     - Stream a single source to a target and exit
//	monitor  - Attach to a running daemon's monitor socket
//	version  - Show version information
package main

import (
	"fmt"
	"os"

	"github.com/SwissMontainsBear/DirettaRendererUPnP-X/cmd/direttarenderer/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
