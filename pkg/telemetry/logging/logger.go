package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"scraperhq/anchor/pkg/schema"
)

// Format is the log output format.
type Format string

const (
	// FormatJSON emits one JSON object per line.
	FormatJSON Format = "json"
	// FormatText emits key=value text.
	FormatText Format = "text"
)

// Config configures the logger.
type Config struct {
	// Level is the minimum severity: DEBUG, INFO, WARNING, ERROR, CRITICAL.
	Level string

	// Format selects the handler: "json" or "text". Default: text.
	Format string

	// File is the log destination path; empty logs to Writer.
	File string

	// AddSource includes file and line in log entries.
	AddSource bool

	// Redact masks credential material in attribute values.
	Redact bool

	// Writer is the fallback destination. Default: os.Stderr.
	Writer io.Writer
}

// New creates a configured slog logger. The returned closer flushes and
// closes the log file when one was opened; it is a no-op otherwise.
func New(cfg Config) (*slog.Logger, io.Closer, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, err
	}

	writer := cfg.Writer
	if writer == nil {
		writer = os.Stderr
	}
	closer := io.Closer(nopCloser{})
	if cfg.File != "" {
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file %q: %w", cfg.File, err)
		}
		writer = f
		closer = f
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: cfg.AddSource,
	}
	if cfg.Redact {
		redactor := NewRedactor()
		opts.ReplaceAttr = func(_ []string, a slog.Attr) slog.Attr {
			return redactor.RedactAttr(a)
		}
	}

	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "json":
		handler = slog.NewJSONHandler(writer, opts)
	case "text", "":
		handler = slog.NewTextHandler(writer, opts)
	default:
		return nil, nil, fmt.Errorf("unknown log format: %s", cfg.Format)
	}

	return slog.New(handler), closer, nil
}

// FromResolved builds a logger from a resolved configuration snapshot's
// logging fields.
func FromResolved(res *schema.Resolved) (*slog.Logger, io.Closer, error) {
	level, _ := res.String("logging.level")
	file, _ := res.String("logging.file")
	return New(Config{
		Level:  level,
		File:   file,
		Redact: true,
	})
}

// ParseLevel maps a configured severity name onto a slog level. Matching is
// case-insensitive; CRITICAL maps above ERROR.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "DEBUG":
		return slog.LevelDebug, nil
	case "INFO", "":
		return slog.LevelInfo, nil
	case "WARNING", "WARN":
		return slog.LevelWarn, nil
	case "ERROR":
		return slog.LevelError, nil
	case "CRITICAL":
		return slog.LevelError + 4, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level: %s", name)
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
