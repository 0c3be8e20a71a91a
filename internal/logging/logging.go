// Package logging builds the process-wide structured logger.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"

	"beaconlight/internal/config"
)

// NewLogger creates a slog.Logger writing JSON to stderr and a rotated
// file under the configured logs directory. The returned logger is also
// installed as slog's default.
func NewLogger(cfg *config.Config) *slog.Logger {
	writers := []io.Writer{os.Stderr}

	if cfg.LogsDirectory != "" && !cfg.IsTest() {
		if err := os.MkdirAll(cfg.LogsDirectory, 0o755); err == nil {
			writers = append(writers, &lumberjack.Logger{
				Filename:   filepath.Join(cfg.LogsDirectory, cfg.AppName+".log"),
				MaxSize:    cfg.LogsMaxSizeInMb,
				MaxBackups: cfg.LogsMaxBackups,
				MaxAge:     cfg.LogsMaxAgeInDays,
				Compress:   true,
			})
		}
	}

	handler := slog.NewJSONHandler(io.MultiWriter(writers...), &slog.HandlerOptions{
		Level: parseLevel(cfg.LogLevel),
	})

	logger := slog.New(handler).With(slog.String("app", cfg.AppName))
	slog.SetDefault(logger)
	return logger
}

func parseLevel(level config.LogLevel) slog.Level {
	switch level {
	case config.LogLevelDebug:
		return slog.LevelDebug
	case config.LogLevelWarn:
		return slog.LevelWarn
	case config.LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
