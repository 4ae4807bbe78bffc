// Package logging builds the process logger: a text or JSON slog handler,
// secret redaction, and optional rotated file output.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/roach88/structure/internal/config"
)

// New returns a logger for cfg and a closer for its output. Without a file
// the logger writes to stderr and the closer is a no-op.
func New(cfg config.LogConfig, stderr io.Writer) (*slog.Logger, io.Closer, error) {
	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, nil, err
	}

	var out io.Writer = stderr
	var closer io.Closer = nopCloser{}
	if cfg.File != "" {
		w, err := NewRotatingWriter(cfg)
		if err != nil {
			return nil, nil, err
		}
		out, closer = w, w
	}

	return slog.New(NewHandler(out, cfg.Format, level, cfg.RedactKeys...)), closer, nil
}

// NewHandler returns a redacting text or JSON handler at level that also
// masks redactKeys. Any format other than "json" yields text.
func NewHandler(w io.Writer, format string, level slog.Level, redactKeys ...string) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler
	if format == "json" {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return NewRedactingHandler(h, redactKeys...)
}

// NewRotatingWriter returns a size-rotated log file writer.
func NewRotatingWriter(cfg config.LogConfig) (*lumberjack.Logger, error) {
	if cfg.File == "" {
		return nil, fmt.Errorf("rotation file path must not be empty")
	}
	if cfg.MaxSizeMB <= 0 {
		cfg.MaxSizeMB = 10
	}
	if cfg.MaxFiles <= 0 {
		cfg.MaxFiles = 5
	}

	if err := os.MkdirAll(filepath.Dir(cfg.File), 0o700); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	return &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxFiles,
	}, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
