// ABOUTME: Help display for the syncview CLI with grouped flags, examples, and environment status.
// ABOUTME: Provides printHelp for usage output and envStatus for environment override detection.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/2389-research/syncview/config"
)

// printHelp writes a formatted help message to w, including usage patterns,
// grouped flags, examples, and environment status.
func printHelp(w io.Writer, ver string) {
	fmt.Fprintf(w, "syncview %s: synchronized zoom dashboard for solver statistics\n", ver)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  syncview <payload.json>                 Open the terminal dashboard")
	fmt.Fprintln(w, "  syncview -server [-port 2389] <payload>  Serve the HTTP API")
	fmt.Fprintln(w, "  syncview -server -tui <payload.json>    Both, driving one engine")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Mode Flags:")
	fmt.Fprintln(w, "  -tui                  Run the terminal dashboard (default when -server is not given)")
	fmt.Fprintln(w, "  -server               Start HTTP server mode")
	fmt.Fprintln(w, "  -port <port>          Server port (default: from config, 2389)")
	fmt.Fprintln(w, "  -watch                Reload the payload whenever the file changes")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Config Flags:")
	fmt.Fprintln(w, "  -config <file>        YAML config (default: $XDG_CONFIG_HOME/syncview/config.yaml)")
	fmt.Fprintln(w, "  -data-dir <dir>       Data directory (default: $XDG_DATA_HOME/syncview)")
	fmt.Fprintln(w, "  -log-file <file>      Also write logs to this file")
	fmt.Fprintln(w, "  -verbose              Debug logging")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Other:")
	fmt.Fprintln(w, "  -version              Print version and exit")
	fmt.Fprintln(w, "  -help                 Show this help")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Keys (terminal dashboard):")
	fmt.Fprintln(w, "  tab/shift+tab focus   +/- zoom   left/right pan   0 reset panel")
	fmt.Fprintln(w, "  r reset column        [/] roll period   q quit")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Examples:")
	fmt.Fprintln(w, "  syncview run.json")
	fmt.Fprintln(w, "  syncview -watch run.json")
	fmt.Fprintln(w, "  syncview -server -port 8080 run.json")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Environment:")
	fmt.Fprintf(w, "  %-21s %s\n", config.EnvAddr, envStatus(config.EnvAddr))
	fmt.Fprintf(w, "  %-21s %s\n", config.EnvLogLevel, envStatus(config.EnvLogLevel))
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Docs: https://github.com/2389-research/syncview")
}

// envStatus returns "[set]" if the named environment variable is non-empty,
// or "[not set]" otherwise.
func envStatus(key string) string {
	if os.Getenv(key) != "" {
		return "[set]"
	}
	return "[not set]"
}
