package log

import (
	"context"
	"io"
	"log/slog"
	"sync"
)

// DefaultRepeatLimit is how many records with the same message pass
// through before the rest are suppressed.
const DefaultRepeatLimit = 5

// SuppressedMessage is logged once when a message hits its limit.
const SuppressedMessage = "further identical messages suppressed"

// repeatCounter is shared by a handler and every handler derived from it
// with WithAttrs or WithGroup.
type repeatCounter struct {
	mu    sync.Mutex
	limit int
	seen  map[string]int
}

// next reports whether a record with msg should be forwarded and whether
// it is the one that crosses the limit.
func (c *repeatCounter) next(msg string) (forward, crossed bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seen[msg]++
	n := c.seen[msg]
	return n <= c.limit, n == c.limit+1
}

// RepeatLimitHandler wraps an slog.Handler and lets at most limit records
// with the same message and level of at least Warn through. The first
// suppressed record is replaced by a single notice naming the message.
//
// Records below Warn are never counted; only warnings and errors repeat
// per residue or per sample often enough to matter.
type RepeatLimitHandler struct {
	// handler is the underlying slog handler that receives forwarded records.
	handler slog.Handler
	counter *repeatCounter
}

// NewRepeatLimitHandler creates a RepeatLimitHandler wrapping handler.
// If handler is nil, slog.Default().Handler() is used. A non-positive
// limit uses DefaultRepeatLimit.
func NewRepeatLimitHandler(handler slog.Handler, limit int) *RepeatLimitHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	if limit <= 0 {
		limit = DefaultRepeatLimit
	}
	return &RepeatLimitHandler{
		handler: handler,
		counter: &repeatCounter{limit: limit, seen: make(map[string]int)},
	}
}

// Enabled reports whether the handler handles records at the given level.
// It delegates to the underlying handler.
func (h *RepeatLimitHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle forwards r unless its message has already been seen limit times.
func (h *RepeatLimitHandler) Handle(ctx context.Context, r slog.Record) error {
	if r.Level < slog.LevelWarn {
		return h.handler.Handle(ctx, r)
	}
	forward, crossed := h.counter.next(r.Message)
	if forward {
		return h.handler.Handle(ctx, r)
	}
	if crossed {
		notice := slog.NewRecord(r.Time, r.Level, SuppressedMessage, r.PC)
		notice.AddAttrs(slog.String("message", r.Message), slog.Int("limit", h.counter.limit))
		return h.handler.Handle(ctx, notice)
	}
	return nil
}

// WithAttrs returns a new handler with the given attributes added. The
// repeat counters stay shared.
func (h *RepeatLimitHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &RepeatLimitHandler{handler: h.handler.WithAttrs(attrs), counter: h.counter}
}

// WithGroup returns a new handler with the given group name.
func (h *RepeatLimitHandler) WithGroup(name string) slog.Handler {
	return &RepeatLimitHandler{handler: h.handler.WithGroup(name), counter: h.counter}
}

// Suppressed returns how many records with msg were dropped.
func (h *RepeatLimitHandler) Suppressed(msg string) int {
	h.counter.mu.Lock()
	defer h.counter.mu.Unlock()
	return max(h.counter.seen[msg]-h.counter.limit, 0)
}

func levelFor(verbose bool) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	return slog.LevelWarn
}

// NewLogger creates a text slog.Logger with repeat limiting.
//
// Parameters:
//   - w: The io.Writer to write log output to (typically os.Stderr)
//   - verbose: If true, sets log level to Debug; otherwise Warn
func NewLogger(w io.Writer, verbose bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: levelFor(verbose)}
	return slog.New(NewRepeatLimitHandler(slog.NewTextHandler(w, opts), DefaultRepeatLimit))
}

// NewJSONLogger creates a JSON slog.Logger with repeat limiting. Useful for
// structured log aggregation on batch clusters.
func NewJSONLogger(w io.Writer, verbose bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: levelFor(verbose)}
	return slog.New(NewRepeatLimitHandler(slog.NewJSONHandler(w, opts), DefaultRepeatLimit))
}
