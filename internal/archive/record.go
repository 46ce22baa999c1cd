package archive

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/example/aspen/internal/catalog"
	"github.com/example/aspen/internal/coerce"
	"github.com/example/aspen/internal/core/guards"
	"github.com/example/aspen/internal/errs"
)

// Record is the generic attribute access shared by every entity.
type Record struct {
	a   *Archive
	ref Ref
}

// Ref returns the identity of the record.
func (r Record) Ref() Ref { return r.ref }

// ID returns the row id.
func (r Record) ID() int64 { return r.ref.ID }

// Kind returns the entity kind.
func (r Record) Kind() Kind { return r.ref.Kind }

// Equal reports whether both handles refer to the same row.
func (r Record) Equal(other Entity) bool {
	return other != nil && r.ref == other.Ref()
}

func (r Record) String() string { return r.ref.String() }

// Get reads an attribute. Missing dependent rows and empty values read as nil.
func (r Record) Get(ctx context.Context, attribute string) (any, error) {
	b, err := r.a.cat.Resolve(string(r.ref.Kind), attribute)
	if err != nil {
		return nil, err
	}
	raw, _, err := r.a.store.Value(ctx, b.Table, b.KeyColumn, r.ref.ID, b.Column.Name)
	if err != nil {
		return nil, err
	}
	v, err := coerce.Out(b.Column.Type, raw)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s of %s: %w", attribute, r.ref, err)
	}
	return v, nil
}

// Set writes an attribute. Subtable attributes create their dependent row on
// first write. Constrained text values are checked against the allow-list
// before anything is written.
func (r Record) Set(ctx context.Context, attribute string, value any) error {
	b, err := r.a.cat.Resolve(string(r.ref.Kind), attribute)
	if err != nil {
		return err
	}

	if s, ok := value.(string); ok {
		check := guards.CanStoreValue(guards.ValueContext{
			Kind:      string(r.ref.Kind),
			ID:        r.ref.ID,
			Attribute: attribute,
			Value:     s,
			Allowed:   b.Column.Values,
		})
		if err := check.Error(); err != nil {
			return err
		}
	}

	wire, err := coerce.In(b.Column.Type, value)
	if err != nil {
		return withContext(err, r.ref, attribute)
	}

	if b.Subtable() {
		if _, err := r.a.lookup(ctx, r.ref.Kind, r.ref.ID); err != nil {
			return err
		}
		if err := r.a.store.EnsureRow(ctx, b.Table, b.KeyColumn, r.ref.ID); err != nil {
			return err
		}
	}

	var old any
	if r.a.audit != nil {
		if old, err = r.Get(ctx, attribute); err != nil {
			return err
		}
	}

	n, err := r.a.store.SetValue(ctx, b.Table, b.KeyColumn, r.ref.ID, b.Column.Name, wire)
	if err != nil {
		return err
	}
	if n == 0 {
		return errs.NotFound(string(r.ref.Kind), "id", r.ref.ID)
	}

	r.a.logUpdate(ctx, r.ref, attribute, coerce.Format(b.Column.Type, old), coerce.Format(b.Column.Type, value))
	return nil
}

// Field is one attribute of an entity together with its current value.
type Field struct {
	Name   string
	Label  string
	Type   catalog.Type
	Values []string
	Table  string
	Value  any
}

// Attributes returns the attributes that currently apply to the entity, in
// catalog order. Subtable attributes whose condition does not hold for the
// current parameter value are left out.
func (r Record) Attributes(ctx context.Context) ([]Field, error) {
	bindings, err := r.a.cat.Attributes(string(r.ref.Kind))
	if err != nil {
		return nil, err
	}

	params := make(map[string]any)
	var fields []Field
	for _, b := range bindings {
		if b.Subtable() {
			v, ok := params[b.When.Parameter]
			if !ok {
				if v, err = r.Get(ctx, b.When.Parameter); err != nil {
					return nil, err
				}
				params[b.When.Parameter] = v
			}
			if !b.When.Satisfied(v) {
				continue
			}
		}

		v, err := r.Get(ctx, b.Attribute)
		if err != nil {
			return nil, err
		}
		if !b.Subtable() {
			params[b.Attribute] = v
		}
		fields = append(fields, Field{
			Name:   b.Attribute,
			Label:  b.Column.Label,
			Type:   b.Column.Type,
			Values: b.Column.Values,
			Table:  b.Table,
			Value:  v,
		})
	}
	return fields, nil
}

func (r Record) text(ctx context.Context, attribute string) (string, error) {
	v, err := r.Get(ctx, attribute)
	if err != nil || v == nil {
		return "", err
	}
	s, _ := v.(string)
	return s, nil
}

func (r Record) timestamp(ctx context.Context, attribute string) (time.Time, error) {
	v, err := r.Get(ctx, attribute)
	if err != nil || v == nil {
		return time.Time{}, err
	}
	t, _ := v.(time.Time)
	return t, nil
}

// float returns NaN when the attribute has no value.
func (r Record) float(ctx context.Context, attribute string) (float64, error) {
	v, err := r.Get(ctx, attribute)
	if err != nil {
		return math.NaN(), err
	}
	f, ok := v.(float64)
	if !ok {
		return math.NaN(), nil
	}
	return f, nil
}

// withContext fills the entity context into a coercion failure.
func withContext(err error, ref Ref, attribute string) error {
	if ve, ok := err.(*errs.ValidationError); ok {
		return &errs.ValidationError{Kind: string(ref.Kind), ID: ref.ID, Attribute: attribute, Value: ve.Value, Reason: ve.Reason}
	}
	return err
}

// attr is an attribute assignment used when creating a row.
type attr struct {
	name  string
	value any
}

// create validates and coerces every value, then inserts one main-table row.
// Nothing is written when any value is rejected.
func (a *Archive) create(ctx context.Context, kind Kind, parentColumn string, parentID int64, attrs ...attr) (Record, error) {
	t, err := a.mainTable(kind)
	if err != nil {
		return Record{}, err
	}

	var columns []string
	var values []any
	if parentColumn != "" {
		columns = append(columns, parentColumn)
		values = append(values, parentID)
	}
	for _, at := range attrs {
		col, ok := t.Column(at.name)
		if !ok || col.Index {
			return Record{}, &errs.ConfigError{Table: t.Name, Column: at.name, Reason: "unknown column"}
		}
		if s, ok := at.value.(string); ok {
			check := guards.CanStoreValue(guards.ValueContext{Kind: string(kind), Attribute: at.name, Value: s, Allowed: col.Values})
			if err := check.Error(); err != nil {
				return Record{}, err
			}
		}
		wire, err := coerce.In(col.Type, at.value)
		if err != nil {
			return Record{}, withContext(err, Ref{Kind: kind}, at.name)
		}
		columns = append(columns, at.name)
		values = append(values, wire)
	}

	id, err := a.store.Insert(ctx, t.Name, columns, values)
	if err != nil {
		return Record{}, err
	}
	r := a.record(kind, id)
	a.logCreate(ctx, r.ref)
	return r, nil
}
