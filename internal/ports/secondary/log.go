// Package secondary defines the secondary ports (driven adapters) for the application.
// These are the interfaces through which the archive drives external systems.
package secondary

import "context"

// LogWriter defines the interface for writing audit log entries.
// Implementations extract the editing user from context.
type LogWriter interface {
	// LogCreate logs a create operation for an entity.
	LogCreate(ctx context.Context, kind string, id int64) error

	// LogUpdate logs an update operation for an entity attribute.
	// attribute, oldValue, newValue describe what changed.
	LogUpdate(ctx context.Context, kind string, id int64, attribute, oldValue, newValue string) error

	// LogDelete logs a delete operation for an entity.
	LogDelete(ctx context.Context, kind string, id int64) error
}
