// Package ctxutil provides context utilities that can be safely imported anywhere.
// This package has no internal dependencies to avoid import cycles.
package ctxutil

import "context"

// UserKey is the context key for the editing user.
// Exported so it can be used consistently across packages.
type UserKey struct{}

// WithUser returns a context with the editing user embedded.
func WithUser(ctx context.Context, user string) context.Context {
	return context.WithValue(ctx, UserKey{}, user)
}

// UserFromContext returns the editing user from context, or empty string if not set.
func UserFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(UserKey{}).(string); ok {
		return v
	}
	return ""
}
