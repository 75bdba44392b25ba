/*
PURPOSE:
  Provides a structured logger for Forest Bench.
  Wraps slog for consistent output.

REQUIREMENTS:
  User-specified:
  - "Sane" CLI output. Not spammy.

  Implementation-discovered:
  - Needs Debug/Info/Warn/Error levels selectable from the CLI.
  - JSON handler for non-interactive use (serve behind a collector).

ARCHITECTURE INTEGRATION:
  - Used everywhere.

ERROR HANDLING:
  - Configure rejects unknown levels and formats.

IMPLEMENTATION RULES:
  - Use `log/slog` (Go 1.21+).

USAGE:
  output.Logger.Info("message", "key", "value")
  output.Configure(os.Stderr, "debug", "json")

SELF-HEALING INSTRUCTIONS:
  - Ensure Go 1.21+ is used.

RELATED FILES:
  - internal/cli/root.go

MAINTENANCE:
  - None.
*/

package output

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

var Logger *slog.Logger

func init() {
	// Default generic logger until the CLI applies --log-level / --log-format.
	Logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
}

// SetLogger allows overriding the default logger (e.g. for testing or config changes)
func SetLogger(l *slog.Logger) {
	Logger = l
}

// Configure replaces Logger with a handler writing to w.
// Format is "text" or "json".
func Configure(w io.Writer, level, format string) error {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	opts := &slog.HandlerOptions{Level: lvl}

	switch strings.ToLower(format) {
	case "", "text":
		SetLogger(slog.New(slog.NewTextHandler(w, opts)))
	case "json":
		SetLogger(slog.New(slog.NewJSONHandler(w, opts)))
	default:
		return fmt.Errorf("invalid log format %q (want text or json)", format)
	}
	return nil
}

// Discard returns a logger that drops everything. Handy in tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
