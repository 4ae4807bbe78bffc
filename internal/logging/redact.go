package logging

import (
	"context"
	"log/slog"
	"strings"
)

// Redacted replaces the value of a sensitive attribute.
const Redacted = "[REDACTED]"

// DefaultRedactKeys are always masked. LogConfig.RedactKeys adds to them.
var DefaultRedactKeys = []string{"secret", "secret_key", "dsn", "password", "token"}

// RedactingHandler masks the values of sensitive attributes, including
// those nested in groups or produced by a slog.LogValuer, before passing
// records on.
//
// A key is sensitive when it equals a configured key or ends in "_" plus
// one, ignoring case: with "token" configured, "token" and "api_token" are
// masked and "tokens" is not.
type RedactingHandler struct {
	inner slog.Handler
	keys  map[string]struct{}
}

// NewRedactingHandler wraps inner, masking DefaultRedactKeys and extra.
func NewRedactingHandler(inner slog.Handler, extra ...string) *RedactingHandler {
	keys := make(map[string]struct{}, len(DefaultRedactKeys)+len(extra))
	for _, key := range append(append([]string{}, DefaultRedactKeys...), extra...) {
		if key = strings.ToLower(strings.TrimSpace(key)); key != "" {
			keys[key] = struct{}{}
		}
	}
	return &RedactingHandler{inner: inner, keys: keys}
}

func (h *RedactingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle forwards a redacted copy of record. If building or forwarding the
// copy panics, a single error record without the original attributes is
// forwarded instead, so a sensitive value never reaches the output through
// a panic message.
func (h *RedactingHandler) Handle(ctx context.Context, record slog.Record) (err error) {
	defer func() {
		if r := recover(); r != nil {
			fallback := slog.NewRecord(record.Time, slog.LevelError, "log record dropped: redaction panicked", record.PC)
			fallback.AddAttrs(slog.String("message", record.Message), slog.String("panic", Redacted))
			err = h.inner.Handle(ctx, fallback)
		}
	}()

	redacted := slog.NewRecord(record.Time, record.Level, record.Message, record.PC)
	record.Attrs(func(attr slog.Attr) bool {
		redacted.AddAttrs(h.redact(attr))
		return true
	})
	return h.inner.Handle(ctx, redacted)
}

func (h *RedactingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	redacted := make([]slog.Attr, 0, len(attrs))
	for _, attr := range attrs {
		redacted = append(redacted, h.redact(attr))
	}
	return &RedactingHandler{inner: h.inner.WithAttrs(redacted), keys: h.keys}
}

func (h *RedactingHandler) WithGroup(name string) slog.Handler {
	return &RedactingHandler{inner: h.inner.WithGroup(name), keys: h.keys}
}

func (h *RedactingHandler) sensitive(key string) bool {
	key = strings.ToLower(key)
	if _, ok := h.keys[key]; ok {
		return true
	}
	if i := strings.LastIndexByte(key, '_'); i >= 0 {
		_, ok := h.keys[key[i+1:]]
		return ok
	}
	return false
}

func (h *RedactingHandler) redact(attr slog.Attr) slog.Attr {
	if h.sensitive(attr.Key) {
		return slog.String(attr.Key, Redacted)
	}

	value := attr.Value.Resolve()
	if value.Kind() != slog.KindGroup {
		return slog.Attr{Key: attr.Key, Value: value}
	}
	group := value.Group()
	redacted := make([]slog.Attr, 0, len(group))
	for _, nested := range group {
		redacted = append(redacted, h.redact(nested))
	}
	return slog.Attr{Key: attr.Key, Value: slog.GroupValue(redacted...)}
}
