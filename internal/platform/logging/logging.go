package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"perfreview/internal/platform/config"
)

// Setup installs the process-wide logger: JSON in production, text
// elsewhere, at the configured level.
func Setup(cfg config.Config) *slog.Logger {
	logger := New(os.Stdout, cfg.Environment, cfg.LogLevel)
	slog.SetDefault(logger)
	return logger
}

func New(w io.Writer, environment, level string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}
	if strings.EqualFold(environment, "development") || strings.EqualFold(environment, "test") {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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
