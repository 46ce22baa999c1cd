// Package guards contains the pure precondition checks of archive edits.
// This is part of the Functional Core - no I/O, only pure functions.
//
// Callers pre-fetch whatever state a guard needs into its context struct; a
// rejected GuardResult converts into a validation error carrying the entity
// kind, id, attribute and offending value.
package guards

import (
	"fmt"
	"strings"

	"github.com/example/aspen/internal/errs"
)

// GuardResult represents the outcome of a guard evaluation.
type GuardResult struct {
	Allowed bool
	Reason  string // Human-readable reason (populated when not allowed)

	Kind      string
	ID        int64
	Attribute string
	Value     any
}

// Error returns the guard result as an error if not allowed, nil otherwise.
func (r GuardResult) Error() error {
	if r.Allowed {
		return nil
	}
	return &errs.ValidationError{Kind: r.Kind, ID: r.ID, Attribute: r.Attribute, Value: r.Value, Reason: r.Reason}
}

func allow() GuardResult { return GuardResult{Allowed: true} }

// ValueContext describes a value about to be stored in an enum-constrained column.
type ValueContext struct {
	Kind      string
	ID        int64 // 0 when the row does not exist yet
	Attribute string
	Value     string
	Allowed   []string // empty means unconstrained
}

// CanStoreValue evaluates whether a value is in the column's allow-list.
// Rule: constrained columns only take listed values; "no value" is always allowed.
func CanStoreValue(ctx ValueContext) GuardResult {
	if len(ctx.Allowed) == 0 || ctx.Value == "" {
		return allow()
	}
	for _, v := range ctx.Allowed {
		if v == ctx.Value {
			return allow()
		}
	}
	return GuardResult{
		Reason:    fmt.Sprintf("not an allowed value (one of: %s)", strings.Join(ctx.Allowed, ", ")),
		Kind:      ctx.Kind,
		ID:        ctx.ID,
		Attribute: ctx.Attribute,
		Value:     ctx.Value,
	}
}

// FileContext describes a file about to be linked.
type FileContext struct {
	Path           string
	Format         string
	Exists         bool   // a files row with this path already exists
	ExistingFormat string // its format, when it exists
}

// CanAddFile evaluates whether a path can be (re)used with a format.
// Rule: a known path may only be re-added with the format it already has.
func CanAddFile(ctx FileContext) GuardResult {
	if ctx.Exists && ctx.ExistingFormat != ctx.Format {
		return GuardResult{
			Reason:    fmt.Sprintf("already registered as %q", ctx.ExistingFormat),
			Kind:      "file",
			Attribute: "format",
			Value:     ctx.Format,
		}
	}
	return allow()
}

// CodeContext describes a subject code about to be assigned.
type CodeContext struct {
	SubjectID int64
	Code      string
	OwnerID   int64 // subject currently holding the code, 0 if free
}

// CanAssignCode evaluates whether a code can be given to a subject.
// Rule: codes are non-empty and unique across subjects.
func CanAssignCode(ctx CodeContext) GuardResult {
	if strings.TrimSpace(ctx.Code) == "" {
		return GuardResult{Reason: "code cannot be empty", Kind: "subject", ID: ctx.SubjectID, Attribute: "code", Value: ctx.Code}
	}
	if ctx.OwnerID != 0 && ctx.OwnerID != ctx.SubjectID {
		return GuardResult{
			Reason:    fmt.Sprintf("code already used by subject #%d", ctx.OwnerID),
			Kind:      "subject",
			ID:        ctx.SubjectID,
			Attribute: "code",
			Value:     ctx.Code,
		}
	}
	return allow()
}

// DeleteContext provides context for entity deletion guards.
// Populated by the caller with pre-fetched child counts.
type DeleteContext struct {
	Kind     string
	ID       int64
	Children map[string]int // child kind -> count
}

// CanDelete evaluates whether an entity can be deleted.
// Rule: entities with hierarchy children cannot be deleted; children go first.
func CanDelete(ctx DeleteContext) GuardResult {
	var parts []string
	for _, kind := range []string{"session", "protocol", "run", "recording"} {
		if n := ctx.Children[kind]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s(s)", n, kind))
		}
	}
	if len(parts) > 0 {
		return GuardResult{
			Reason: fmt.Sprintf("still has %s; delete them first", strings.Join(parts, ", ")),
			Kind:   ctx.Kind,
			ID:     ctx.ID,
		}
	}
	return allow()
}

// LinkContext describes a join row about to be created.
type LinkContext struct {
	Kind          string
	ID            int64
	Attribute     string // linked kind, e.g. "protocol"
	TargetID      int64
	AlreadyLinked bool
	SameEntity    bool
}

// CanLink evaluates whether a many-to-many link can be added.
// Rule: a pair is linked at most once and never to itself.
func CanLink(ctx LinkContext) GuardResult {
	if ctx.SameEntity {
		return GuardResult{Reason: "cannot link to itself", Kind: ctx.Kind, ID: ctx.ID, Attribute: ctx.Attribute, Value: ctx.TargetID}
	}
	if ctx.AlreadyLinked {
		return GuardResult{Reason: "already linked", Kind: ctx.Kind, ID: ctx.ID, Attribute: ctx.Attribute, Value: ctx.TargetID}
	}
	return allow()
}

// RowContext describes one row of a bulk write.
type RowContext struct {
	Table      string
	Identifier string
	Index      int  // 0-based row position
	Missing    bool // identifier column is empty or NaN
}

// CanWriteRow evaluates whether a bulk row is identified.
// Rule: every row fills the identifier column.
func CanWriteRow(ctx RowContext) GuardResult {
	if ctx.Missing {
		return GuardResult{
			Reason:    fmt.Sprintf("row %d has no %s", ctx.Index, ctx.Identifier),
			Kind:      ctx.Table,
			Attribute: ctx.Identifier,
			Value:     ctx.Index,
		}
	}
	return allow()
}
