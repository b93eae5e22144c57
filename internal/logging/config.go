package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/soltixdb/cets/internal/config"
)

// NewFromConfig creates a logger from configuration
func NewFromConfig(cfg config.LoggingConfig) (*Logger, error) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	output, err := openOutput(cfg.OutputPath)
	if err != nil {
		return nil, err
	}

	if cfg.Format == "console" || cfg.Format == "pretty" {
		output = zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: timeFormat(cfg.TimeFormat),
		}
	}

	return NewWithWriter(output, level), nil
}

func openOutput(path string) (io.Writer, error) {
	switch path {
	case "stdout", "":
		return os.Stdout, nil
	case "stderr":
		return os.Stderr, nil
	}

	logDir := filepath.Dir(path)
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory %s: %w", logDir, err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", path, err)
	}
	return file, nil
}

func timeFormat(format string) string {
	switch format {
	case "Unix":
		return time.UnixDate
	case "Kitchen":
		return time.Kitchen
	default:
		return time.RFC3339
	}
}
