// Package logger builds the application's slog logger.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// Config holds the logger configuration.
type Config struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
	// FilePath is used when Output is "file".
	FilePath string `mapstructure:"file_path"`
}

const defaultLogFile = "change-warden.log"

// NewLogger initializes a new slog logger based on the provided configuration.
// A nil output is resolved from cfg.Output.
func NewLogger(cfg Config, output io.Writer) *slog.Logger {
	if output == nil {
		w, _, err := OpenOutput(cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to open log output, using stdout: %v\n", err)
			w = os.Stdout
		}
		output = w
	}

	level := new(slog.Level)
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		*level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch cfg.Format {
	case "json":
		handler = slog.NewJSONHandler(output, opts)
	default:
		handler = slog.NewTextHandler(output, opts)
	}

	return slog.New(handler)
}

// OpenOutput resolves the writer named by cfg.Output. The returned close
// function releases the log file, if one was opened.
func OpenOutput(cfg Config) (io.Writer, func(), error) {
	switch cfg.Output {
	case "stderr":
		return os.Stderr, func() {}, nil
	case "file":
		path := cfg.FilePath
		if path == "" {
			path = defaultLogFile
		}
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, func() {}, fmt.Errorf("failed to create log directory: %w", err)
			}
		}
		f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
		if err != nil {
			return nil, func() {}, fmt.Errorf("failed to open log file: %w", err)
		}
		return f, func() { _ = f.Close() }, nil
	default:
		return os.Stdout, func() {}, nil
	}
}
