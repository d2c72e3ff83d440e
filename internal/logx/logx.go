package logx

import (
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Config selects the log level and output shape.
type Config struct {
	Level   string
	Console bool
}

const consoleTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// ParseLevel maps a config level name to a zerolog level. Unknown or empty
// names fall back to info.
func ParseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// New builds a logger writing to w: human-readable when cfg.Console is set,
// JSON lines otherwise.
func New(cfg Config, w io.Writer) zerolog.Logger {
	out := w
	if cfg.Console {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: consoleTimeFormat, NoColor: true}
	}
	return zerolog.New(out).
		Level(ParseLevel(cfg.Level)).
		With().
		Timestamp().
		Str("component", "backfill").
		Logger()
}

// Elapsed rounds d to whole milliseconds for log fields.
func Elapsed(d time.Duration) time.Duration {
	return d.Round(time.Millisecond)
}
