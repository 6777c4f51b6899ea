// Package iologger sets up the default slog logger of dwcheck.
package iologger

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gnames/dwcheck/pkg/config"
)

// LogFile is the name of the log file in the log directory.
const LogFile = "dwcheck.log"

// Init sets the default slog logger according to the configuration.
// For the "file" destination the log goes to dwcheck.log in logDir, the
// file is appended to if append is true, and truncated otherwise.
// It returns the writer so callers can close a log file.
func Init(logDir string, cfg config.LogConfig, append bool) (io.Writer, error) {
	var writer io.Writer

	switch cfg.Destination {
	case "stdout":
		writer = os.Stdout
	case "stderr":
		writer = os.Stderr
	case "file":
		logPath := filepath.Join(logDir, LogFile)
		flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
		if append {
			flags = os.O_CREATE | os.O_WRONLY | os.O_APPEND
		}
		file, err := os.OpenFile(logPath, flags, 0644)
		if err != nil {
			return nil, CreateLogFileError(logPath, err)
		}
		writer = file
	default:
		writer = os.Stderr
	}

	slog.SetDefault(slog.New(NewHandler(writer, cfg)))
	return writer, nil
}

// NewHandler creates a JSON or text slog handler with the configured level.
// Unknown formats produce JSON.
func NewHandler(w io.Writer, cfg config.LogConfig) slog.Handler {
	opts := &slog.HandlerOptions{
		Level: parseLevel(cfg.Level),
	}
	if cfg.Format == "text" {
		return slog.NewTextHandler(w, opts)
	}
	return slog.NewJSONHandler(w, opts)
}

func parseLevel(level string) slog.Level {
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
