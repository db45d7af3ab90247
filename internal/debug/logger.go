// Package debug holds the process wide slog logger used for query tracing.
// It discards everything until Init enables it.
package debug

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"
)

// Options configures the logger.
type Options struct {
	Enabled bool
	// JSON selects the JSON handler instead of text.
	JSON bool
	// Writer defaults to os.Stderr.
	Writer io.Writer
}

var (
	mu      sync.RWMutex
	logger  = slog.New(slog.NewTextHandler(io.Discard, nil))
	enabled bool
)

// Init replaces the global logger. A disabled logger drops every record.
func Init(opts Options) {
	mu.Lock()
	defer mu.Unlock()

	enabled = opts.Enabled
	if !opts.Enabled {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
		return
	}
	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}
	ho := &slog.HandlerOptions{Level: slog.LevelDebug}
	if opts.JSON {
		logger = slog.New(slog.NewJSONHandler(w, ho))
	} else {
		logger = slog.New(slog.NewTextHandler(w, ho))
	}
}

func Enabled() bool {
	mu.RLock()
	defer mu.RUnlock()
	return enabled
}

func Logger() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

func Debug(msg string, args ...any) { Logger().Debug(msg, args...) }

func Info(msg string, args ...any) { Logger().Info(msg, args...) }

func Warn(msg string, args ...any) { Logger().Warn(msg, args...) }

func Error(msg string, args ...any) { Logger().Error(msg, args...) }

// With returns the logger with attrs attached.
func With(args ...any) *slog.Logger { return Logger().With(args...) }

// Query records one executed statement.
func Query(ctx context.Context, sql string, elapsed time.Duration, err error) {
	l := Logger()
	if err != nil {
		l.ErrorContext(ctx, "query failed", "sql", sql, "elapsed", elapsed, "error", err)
		return
	}
	l.DebugContext(ctx, "query", "sql", sql, "elapsed", elapsed)
}
