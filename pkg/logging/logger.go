// Package logging configures zerolog for the admin table tools.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/Sternrassler/admin-datatable/pkg/query"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogLevel represents the logging level.
type LogLevel string

const (
	// LevelDebug logs debug messages and above.
	LevelDebug LogLevel = "debug"

	// LevelInfo logs info messages and above.
	LevelInfo LogLevel = "info"

	// LevelWarn logs warning messages and above.
	LevelWarn LogLevel = "warn"

	// LevelError logs error messages only.
	LevelError LogLevel = "error"

	// LevelDisabled turns logging off. The terminal UI uses it so log lines
	// do not tear the screen.
	LevelDisabled LogLevel = "disabled"
)

// Config holds logger configuration.
type Config struct {
	// Level is the minimum log level to output.
	Level LogLevel

	// Pretty enables human-readable console output (default: false for JSON).
	Pretty bool

	// Output is the writer to output logs to (default: os.Stderr).
	Output io.Writer
}

// DefaultConfig returns a default logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:  LevelInfo,
		Pretty: false,
		Output: os.Stderr,
	}
}

// Setup configures the global zerolog logger.
func Setup(cfg Config) zerolog.Logger {
	zerolog.SetGlobalLevel(ParseLevel(cfg.Level))

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	if cfg.Pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}
	}

	logger := zerolog.New(out).With().Timestamp().Logger()
	log.Logger = logger

	return logger
}

// ParseLevel converts a level name to zerolog.Level. Unknown names map to info.
func ParseLevel(level LogLevel) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(string(level))) {
	case "debug":
		return zerolog.DebugLevel
	case "info", "":
		return zerolog.InfoLevel
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

// NewLogger creates a new logger with the given component name.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// WithQuery adds the query fields (limit, offset, like, sort) to a logger context.
func WithQuery(c zerolog.Context, q query.State) zerolog.Context {
	return c.
		Int("limit", q.Limit).
		Int("offset", q.Offset).
		Str("like", q.Like).
		Str("sort", q.Sort)
}

// Log Level Guidelines:
//
// Debug: Detailed information for debugging
//   - Page fetches (trigger, seq, query)
//   - Cache operations (hit, revalidation, TTL)
//   - Dropped responses (stale seq, unmounted view)
//   - URL replacements
//
// Info: Normal operation events
//   - Bulk deletes
//   - Batch fetch progress
//   - Successful retries
//
// Warn: Warning conditions that don't prevent operation
//   - Quota warnings (throttling active)
//   - Retry exhaustion
//   - Cache errors (fallback to direct request)
//
// Error: Error conditions requiring attention
//   - Failed table fetches
//   - Critical quota blocks
//   - Configuration errors
//
// Context Fields:
//   - component: table, admin-client, tui, cli
//   - resource: backend list path
//   - trigger: mount, reload, page, rows_per_page, sort, search, filter
//   - seq: fetch sequence number
//   - limit, offset, like, sort: query fields
//   - status_code, error_class: failed backend calls
//   - duration, cache_hit, remaining
