// Package errs defines the error kinds surfaced by the archive core.
// Every typed error unwraps to one of the sentinels so callers can branch
// with errors.Is and still read the context fields with errors.As.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrConfig marks fatal configuration problems (unknown table, unknown type).
	ErrConfig = errors.New("configuration error")

	// ErrValidation marks recoverable, user-facing rejections.
	ErrValidation = errors.New("validation error")

	// ErrNotFound marks lookups that yielded no row.
	ErrNotFound = errors.New("not found")
)

// ConfigError reports a catalog or type declaration that cannot be used.
type ConfigError struct {
	Table  string
	Column string
	Reason string
}

func (e *ConfigError) Error() string {
	switch {
	case e.Table == "":
		return fmt.Sprintf("configuration error: %s", e.Reason)
	case e.Column == "":
		return fmt.Sprintf("configuration error in table %q: %s", e.Table, e.Reason)
	default:
		return fmt.Sprintf("configuration error in %s.%s: %s", e.Table, e.Column, e.Reason)
	}
}

func (e *ConfigError) Unwrap() error { return ErrConfig }

// ValidationError reports a value rejected before it reached storage.
type ValidationError struct {
	Kind      string
	ID        int64
	Attribute string
	Value     any
	Reason    string
}

func (e *ValidationError) Error() string {
	subject := e.Kind
	if e.ID != 0 {
		subject = fmt.Sprintf("%s #%d", e.Kind, e.ID)
	}
	if e.Attribute == "" {
		return fmt.Sprintf("invalid %s: %s", subject, e.Reason)
	}
	return fmt.Sprintf("invalid %s %s=%v: %s", subject, e.Attribute, e.Value, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NotFoundError reports a required-identity lookup with no matching row.
type NotFoundError struct {
	Kind  string
	Field string
	Value any
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with %s %v not found", e.Kind, e.Field, e.Value)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// Invalid is shorthand for building a ValidationError.
func Invalid(kind string, id int64, attribute string, value any, reason string) error {
	return &ValidationError{Kind: kind, ID: id, Attribute: attribute, Value: value, Reason: reason}
}

// NotFound is shorthand for building a NotFoundError.
func NotFound(kind, field string, value any) error {
	return &NotFoundError{Kind: kind, Field: field, Value: value}
}
