// Package logging initialises the slog logger used by every command and
// carries it through contexts.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Supported log levels.
const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

// Supported log formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Options selects where and how much is logged.
type Options struct {
	Level  string
	Format string
	// Quiet raises the level to error regardless of Level.
	Quiet bool
	// Dir, when set, sends JSON logs to a per-invocation file in that
	// directory instead of the writer passed to Setup.
	Dir string
}

type ctxKey struct{}

// Setup builds a logger writing to w, or to a log file when opts.Dir is set.
// The returned cleanup flushes and closes that file and must always be called.
// Every record carries the invocation id and pid.
func Setup(opts Options, w io.Writer) (*slog.Logger, func()) {
	cleanup := func() {}
	format := opts.Format

	if opts.Dir != "" {
		fn := filepath.Join(opts.Dir, fmt.Sprintf("sqltrim_%s_%d_%s.log",
			time.Now().UTC().Format("20060102T150405.000Z07:00"),
			os.Getpid(), uuid.NewString()))
		f, err := os.OpenFile(fn, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: Failed to create log file %s: %v\n", fn, err)
		} else {
			w = f
			format = FormatJSON
			cleanup = func() { _ = f.Sync(); _ = f.Close() }
		}
	}
	if w == nil {
		w = io.Discard
	}

	level := ParseLevel(opts.Level)
	if opts.Quiet {
		level = slog.LevelError
	}
	ho := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch format {
	case FormatJSON:
		handler = slog.NewJSONHandler(w, ho)
	default:
		handler = slog.NewTextHandler(w, ho)
	}

	logger := slog.New(handler).With("invocation_id", uuid.NewString(), "pid", os.Getpid())
	return logger, cleanup
}

// ParseLevel converts a string log level to slog.Level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch level {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// FormatDuration renders d with millisecond precision for log attributes.
func FormatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return d.String()
	}
	return d.Round(time.Millisecond).String()
}

// NewContext returns a child context carrying logger.
func NewContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// FromContext extracts a logger from ctx, falling back to slog.Default().
func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}
