package logger

import (
	"context"
	"io"
	"log/slog"
	"runtime"
	"sort"

	"github.com/phrazzld/testsize/internal/ciutil"
)

// CIHandler is a custom slog.Handler that adds CI environment metadata
// and source code location to log records.
type CIHandler struct {
	// The underlying handler (usually JSON)
	handler slog.Handler
	// CI metadata added to every log record, sorted by key
	metadata []slog.Attr
	// Whether to add source location info
	addSource bool
}

// NewCIHandler creates a new CIHandler that wraps a JSON handler writing to
// out, adding CI metadata and source information to each log record.
func NewCIHandler(out io.Writer, opts *slog.HandlerOptions) *CIHandler {
	handlerOpts := &slog.HandlerOptions{}
	if opts != nil {
		// Clone the options to avoid modifying the caller's options
		copied := *opts
		handlerOpts = &copied
	}
	addSource := handlerOpts.AddSource
	// Source is emitted as flat attributes instead.
	handlerOpts.AddSource = false

	return &CIHandler{
		handler:   slog.NewJSONHandler(out, handlerOpts),
		metadata:  metadataAttrs(ciutil.Metadata()),
		addSource: addSource,
	}
}

func metadataAttrs(md map[string]string) []slog.Attr {
	keys := make([]string, 0, len(md))
	for k := range md {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	attrs := make([]slog.Attr, 0, len(keys))
	for _, k := range keys {
		attrs = append(attrs, slog.String(k, md[k]))
	}
	return attrs
}

// Enabled implements the slog.Handler interface.
func (h *CIHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// WithAttrs implements the slog.Handler interface.
func (h *CIHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &CIHandler{
		handler:   h.handler.WithAttrs(attrs),
		metadata:  h.metadata,
		addSource: h.addSource,
	}
}

// WithGroup implements the slog.Handler interface.
func (h *CIHandler) WithGroup(name string) slog.Handler {
	return &CIHandler{
		handler:   h.handler.WithGroup(name),
		metadata:  h.metadata,
		addSource: h.addSource,
	}
}

// Handle implements the slog.Handler interface.
func (h *CIHandler) Handle(ctx context.Context, record slog.Record) error {
	enhanced := record.Clone()

	if h.addSource && record.PC != 0 {
		frames := runtime.CallersFrames([]uintptr{record.PC})
		frame, _ := frames.Next()
		enhanced.AddAttrs(
			slog.String("source_file", frame.File),
			slog.Int("source_line", frame.Line),
			slog.String("source_func", frame.Function),
		)
	}

	enhanced.AddAttrs(h.metadata...)

	return h.handler.Handle(ctx, enhanced)
}
