// Package cli implements the kintree command-line interface.
//
// Commands read a positioned tree document (the JSON produced by the layout
// stage), apply highlight requests and either write rendered artifacts, print
// ancestry paths, compute camera transforms, or serve the engine over HTTP.
// The CLI is built using cobra and logs through charmbracelet/log.
//
// # Commands
//
// The main commands are:
//   - render: Generate SVG, PNG, JSON or DOT output with highlights applied
//   - path: Print one ancestry chain, or two chains and their common ancestor
//   - fit: Compute the camera transform that frames a node or the whole tree
//   - serve: Expose the engine over HTTP with Prometheus metrics
//   - cache: Manage the artifact cache
//   - config: Write or print the TOML configuration
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging.
//
// # Example
//
//	c := cli.New(os.Stderr, cli.LogInfo)
//	if err := c.RootCommand().ExecuteContext(ctx); err != nil {
//	    os.Exit(1)
//	}
package cli

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates a new logger with timestamp formatting.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress tracks the start time of an operation and logs completion with elapsed duration.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg along with the elapsed time since progress was created.
// Example output: "Rendered 2 artifacts (12ms)"
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}
