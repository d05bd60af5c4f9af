// Package logging provides a slog handler that forwards WARN and ERROR
// records into the activity trail as SYSTEM telemetry.
package logging

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"

	"github.com/idgate-dev/idgate/internal/model"
	"github.com/idgate-dev/idgate/internal/store"
)

// ActivityLogHandler wraps another slog.Handler and also writes records
// at or above its threshold to the activity_events table. This is the
// out-of-band channel that swallowed audit-write failures end up in.
type ActivityLogHandler struct {
	inner   slog.Handler
	queries *store.Queries
	level   slog.Level
}

// NewActivityLogHandler wraps inner; records at WARN and above are also
// persisted to the activity trail.
func NewActivityLogHandler(inner slog.Handler, db *sql.DB) *ActivityLogHandler {
	return &ActivityLogHandler{
		inner:   inner,
		queries: store.New(db),
		level:   slog.LevelWarn,
	}
}

// Enabled implements slog.Handler.
func (h *ActivityLogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle implements slog.Handler.
func (h *ActivityLogHandler) Handle(ctx context.Context, r slog.Record) error {
	if err := h.inner.Handle(ctx, r); err != nil {
		return err
	}
	if r.Level >= h.level {
		h.writeEvent(r)
	}
	return nil
}

// WithAttrs implements slog.Handler.
func (h *ActivityLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ActivityLogHandler{inner: h.inner.WithAttrs(attrs), queries: h.queries, level: h.level}
}

// WithGroup implements slog.Handler.
func (h *ActivityLogHandler) WithGroup(name string) slog.Handler {
	return &ActivityLogHandler{inner: h.inner.WithGroup(name), queries: h.queries, level: h.level}
}

// writeEvent persists one record. A background context is used so the
// event survives request cancellation; a write failure is dropped on the
// floor here, never re-logged, to avoid recursion.
func (h *ActivityLogHandler) writeEvent(r slog.Record) {
	severity := model.SeverityWarning
	if r.Level >= slog.LevelError {
		severity = model.SeverityError
	}

	attrs := map[string]any{"message": r.Message}
	r.Attrs(func(a slog.Attr) bool {
		attrs[a.Key] = a.Value.String()
		return true
	})

	metadata := "{}"
	if raw, err := json.Marshal(attrs); err == nil {
		metadata = string(raw)
	}

	_, _ = h.queries.CreateActivityEvent(context.Background(), store.CreateActivityEventParams{
		ActorType:  model.ActorSystem,
		Action:     model.ActionSystemError,
		EntityType: model.EntitySystem,
		Severity:   severity,
		Metadata:   metadata,
		CreatedAt:  r.Time,
	})
}
