package logger

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/phrazzld/testsize/internal/ciutil"
	"github.com/phrazzld/testsize/internal/config"
)

// Supported output formats.
const (
	FormatJSON = "json"
	FormatText = "text"
)

var (
	// ErrInvalidLevel is returned for an unknown log level.
	ErrInvalidLevel = errors.New("invalid log level")
	// ErrInvalidFormat is returned for an unknown log format.
	ErrInvalidFormat = errors.New("invalid log format")
)

// ParseLevel parses a log level name (case-insensitive).
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("%w: %q", ErrInvalidLevel, name)
	}
}

// New creates a logger writing to out according to cfg. In CI, JSON output
// goes through a CIHandler.
func New(out io.Writer, cfg config.LogConfig) (*slog.Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case FormatJSON, "":
		if ciutil.IsCI() {
			handler = NewCIHandler(out, opts)
		} else {
			handler = slog.NewJSONHandler(out, opts)
		}
	case FormatText:
		handler = slog.NewTextHandler(out, opts)
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidFormat, cfg.Format)
	}

	return slog.New(handler), nil
}

// Setup initializes the tool's logging system based on the provided
// configuration. Logs go to stderr so that reports on stdout stay machine
// readable. The logger also becomes the slog default.
func Setup(cfg config.LogConfig) (*slog.Logger, error) {
	logger, err := New(os.Stderr, cfg)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)
	return logger, nil
}
