package logging

import (
	"fmt"
	"io"
	"log/slog"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options select and tune the logging backend.
type Options struct {
	Backend string // "slog" or "zap"
	Level   string // "debug", "info", "warn", "error"
	Format  string // "json" or "text" (slog only)
}

// New builds a Logger for the requested backend writing to w (slog) or
// stderr/stdout per zap's production config (zap).
func New(opts Options, w io.Writer) (Logger, error) {
	switch opts.Backend {
	case "", "slog":
		return NewSlogLogger(slog.New(NewSlogHandler(w, opts.Format, slogLevel(opts.Level)))), nil
	case "zap":
		cfg := zap.NewProductionConfig()
		lvl, err := zapcore.ParseLevel(levelOrInfo(opts.Level))
		if err != nil {
			return nil, fmt.Errorf("zap level: %w", err)
		}
		cfg.Level = zap.NewAtomicLevelAt(lvl)
		l, err := cfg.Build()
		if err != nil {
			return nil, fmt.Errorf("zap build: %w", err)
		}
		return NewZapLogger(l), nil
	default:
		return nil, fmt.Errorf("unknown log backend %q", opts.Backend)
	}
}

func levelOrInfo(level string) string {
	if level == "" {
		return "info"
	}
	return level
}

func slogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
