// Package infrastructure provides process-level wiring: the structured
// logger used by every stage of the estimation pipeline.
package infrastructure

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"effortcli/internal/config"
)

// InitializeLogger creates and configures the application logger.
// Every record is stamped with the run id so a report can be matched to the
// log stream that produced it.
func InitializeLogger(cfg config.LoggingConfig, runID string) (*slog.Logger, func(), error) {
	level := parseLogLevel(cfg.Level)

	opts := &slog.HandlerOptions{Level: level}

	var output io.Writer
	cleanup := func() {}

	switch strings.ToLower(cfg.Output) {
	case "file":
		file, err := openLogFile(cfg.FilePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		output = file
		cleanup = func() { file.Close() }
	case "both":
		file, err := openLogFile(cfg.FilePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		output = io.MultiWriter(os.Stdout, file)
		cleanup = func() { file.Close() }
	default:
		output = os.Stdout
	}

	var handler slog.Handler
	if strings.ToLower(cfg.Format) == "text" {
		handler = slog.NewTextHandler(output, opts)
	} else {
		handler = slog.NewJSONHandler(output, opts)
	}

	logger := slog.New(&runIDHandler{Handler: handler, runID: runID})
	slog.SetDefault(logger)

	return logger, cleanup, nil
}

// parseLogLevel converts a string level to slog.Level
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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

// openLogFile opens the log file for appending, creating its directory first.
func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
}

// runIDHandler injects the run id into every log record.
type runIDHandler struct {
	slog.Handler
	runID string
}

func (h *runIDHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.runID != "" {
		r.AddAttrs(slog.String("run_id", h.runID))
	}
	return h.Handler.Handle(ctx, r)
}

func (h *runIDHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &runIDHandler{Handler: h.Handler.WithAttrs(attrs), runID: h.runID}
}

func (h *runIDHandler) WithGroup(name string) slog.Handler {
	return &runIDHandler{Handler: h.Handler.WithGroup(name), runID: h.runID}
}
