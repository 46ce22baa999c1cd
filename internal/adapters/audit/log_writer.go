// Package audit records archive edits as structured log entries.
package audit

import (
	"context"
	"log/slog"

	"github.com/example/aspen/internal/ctxutil"
	"github.com/example/aspen/internal/ports/secondary"
)

// LogWriterAdapter implements secondary.LogWriter on top of a slog.Logger.
type LogWriterAdapter struct {
	logger *slog.Logger
}

// NewLogWriterAdapter creates a new LogWriterAdapter.
func NewLogWriterAdapter(logger *slog.Logger) *LogWriterAdapter {
	return &LogWriterAdapter{logger: logger.With("component", "audit")}
}

// LogCreate logs a create operation for an entity.
func (w *LogWriterAdapter) LogCreate(ctx context.Context, kind string, id int64) error {
	return w.writeLog(ctx, kind, id, "create")
}

// LogUpdate logs an update operation for an entity attribute.
func (w *LogWriterAdapter) LogUpdate(ctx context.Context, kind string, id int64, attribute, oldValue, newValue string) error {
	return w.writeLog(ctx, kind, id, "update",
		slog.String("attribute", attribute),
		slog.String("old", oldValue),
		slog.String("new", newValue))
}

// LogDelete logs a delete operation for an entity.
func (w *LogWriterAdapter) LogDelete(ctx context.Context, kind string, id int64) error {
	return w.writeLog(ctx, kind, id, "delete")
}

// writeLog writes a log entry with common logic.
func (w *LogWriterAdapter) writeLog(ctx context.Context, kind string, id int64, action string, extra ...slog.Attr) error {
	user := ctxutil.UserFromContext(ctx)
	if user == "" {
		user = "unknown"
	}

	attrs := append([]slog.Attr{
		slog.String("user", user),
		slog.String("kind", kind),
		slog.Int64("id", id),
		slog.String("action", action),
	}, extra...)
	w.logger.LogAttrs(ctx, slog.LevelInfo, "archive edit", attrs...)
	return nil
}

// Ensure LogWriterAdapter implements the interface
var _ secondary.LogWriter = (*LogWriterAdapter)(nil)
