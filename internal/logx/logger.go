// Package logx sets up the process-wide slog logger and hands out per-module loggers.
package logx

import (
	"log/slog"
	"os"
	"strings"
	"sync"
)

var (
	once          sync.Once
	defaultLogger *slog.Logger
)

// Init configures the default logger from LOG_LEVEL and LOG_FORMAT ("text" or "json").
func Init() {
	once.Do(func() {
		opts := &slog.HandlerOptions{Level: parseLevel(os.Getenv("LOG_LEVEL"))}

		var h slog.Handler
		if strings.ToLower(os.Getenv("LOG_FORMAT")) == "json" {
			h = slog.NewJSONHandler(os.Stdout, opts)
		} else {
			h = slog.NewTextHandler(os.Stdout, opts)
		}

		defaultLogger = slog.New(h.WithAttrs([]slog.Attr{
			slog.String("service", "ai-assistant"),
		}))
		slog.SetDefault(defaultLogger)
	})
}

// Module returns a logger tagged with the given module name.
func Module(name string) *slog.Logger {
	Init()
	return defaultLogger.With(slog.String("module", name))
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
