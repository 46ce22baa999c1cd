package archive

import (
	"context"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/example/aspen/internal/catalog"
	"github.com/example/aspen/internal/coerce"
	"github.com/example/aspen/internal/core/guards"
	"github.com/example/aspen/internal/errs"
)

// Data is an in-memory block of rows with the declared shape of a tabular
// table. Float cells hold float64 (NaN when missing), date cells hold
// time.Time (zero when missing) and text cells hold string ("" when missing).
type Data struct {
	table   string
	columns []catalog.Column
	rows    [][]any
}

func newData(t *catalog.Table, n int) *Data {
	d := &Data{table: t.Name, columns: t.DataColumns()}
	for range n {
		d.rows = append(d.rows, d.blankRow())
	}
	return d
}

func (d *Data) blankRow() []any {
	row := make([]any, len(d.columns))
	for i, c := range d.columns {
		row[i] = blank(c.Type)
	}
	return row
}

func blank(t catalog.Type) any {
	switch t {
	case catalog.Float:
		return math.NaN()
	case catalog.Date, catalog.DateTime:
		return time.Time{}
	}
	return ""
}

// Table returns the name of the table the data belongs to.
func (d *Data) Table() string { return d.table }

// Columns returns the declared columns in order.
func (d *Data) Columns() []catalog.Column { return slices.Clone(d.columns) }

// Len returns the number of rows.
func (d *Data) Len() int { return len(d.rows) }

func (d *Data) index(column string) (int, error) {
	for i, c := range d.columns {
		if c.Name == column {
			return i, nil
		}
	}
	return 0, &errs.ConfigError{Table: d.table, Column: column, Reason: "unknown column"}
}

// Value returns one cell.
func (d *Data) Value(row int, column string) any {
	i, err := d.index(column)
	if err != nil || row < 0 || row >= len(d.rows) {
		return nil
	}
	return d.rows[row][i]
}

// Text returns a text cell, "" when missing.
func (d *Data) Text(row int, column string) string {
	s, _ := d.Value(row, column).(string)
	return s
}

// Float returns a float cell, NaN when missing.
func (d *Data) Float(row int, column string) float64 {
	f, ok := d.Value(row, column).(float64)
	if !ok {
		return math.NaN()
	}
	return f
}

// Set stores one cell. The value must match the column type; nil clears it.
func (d *Data) Set(row int, column string, v any) error {
	i, err := d.index(column)
	if err != nil {
		return err
	}
	if row < 0 || row >= len(d.rows) {
		return fmt.Errorf("row %d out of range (%d rows)", row, len(d.rows))
	}
	c := d.columns[i]
	if v == nil {
		d.rows[row][i] = blank(c.Type)
		return nil
	}
	wire, err := coerce.In(c.Type, v)
	if err != nil {
		return withContext(err, Ref{Kind: Kind(d.table)}, column)
	}
	native, err := coerce.Out(c.Type, wire)
	if err != nil {
		return err
	}
	if native == nil {
		native = blank(c.Type)
	}
	d.rows[row][i] = native
	return nil
}

// Fill stores v in every row of column.
func (d *Data) Fill(column string, v any) error {
	for row := range d.rows {
		if err := d.Set(row, column, v); err != nil {
			return err
		}
	}
	return nil
}

// SetTexts stores one text value per row. values must have Len entries.
func (d *Data) SetTexts(column string, values []string) error {
	if len(values) != len(d.rows) {
		return fmt.Errorf("got %d values for %d rows", len(values), len(d.rows))
	}
	for row, v := range values {
		if err := d.Set(row, column, v); err != nil {
			return err
		}
	}
	return nil
}

// SetFloats stores one float value per row. values must have Len entries.
func (d *Data) SetFloats(column string, values []float64) error {
	if len(values) != len(d.rows) {
		return fmt.Errorf("got %d values for %d rows", len(values), len(d.rows))
	}
	for row, v := range values {
		if err := d.Set(row, column, v); err != nil {
			return err
		}
	}
	return nil
}

// Append adds a row; columns not named in values stay missing.
func (d *Data) Append(values map[string]any) error {
	d.rows = append(d.rows, d.blankRow())
	row := len(d.rows) - 1
	for column, v := range values {
		if err := d.Set(row, column, v); err != nil {
			d.rows = d.rows[:row]
			return err
		}
	}
	return nil
}

// Row returns a copy of one row keyed by column name.
func (d *Data) Row(row int) map[string]any {
	out := make(map[string]any, len(d.columns))
	for i, c := range d.columns {
		out[c.Name] = d.rows[row][i]
	}
	return out
}

// Clone returns an independent copy.
func (d *Data) Clone() *Data {
	c := &Data{table: d.table, columns: slices.Clone(d.columns)}
	for _, row := range d.rows {
		c.rows = append(c.rows, slices.Clone(row))
	}
	return c
}

// Tabular is the bulk table owned by one group or run.
type Tabular struct {
	a       *Archive
	owner   string
	ownerID int64
}

func (t Tabular) table() (*catalog.Table, error) {
	return t.a.cat.Tabular(t.owner)
}

// Empty returns n rows of the declared shape with every cell missing. Each
// call returns fresh storage.
func (t Tabular) Empty(n int) (*Data, error) {
	tbl, err := t.table()
	if err != nil {
		return nil, err
	}
	return newData(tbl, n), nil
}

// Read returns every stored row in insertion order.
func (t Tabular) Read(ctx context.Context) (*Data, error) {
	tbl, err := t.table()
	if err != nil {
		return nil, err
	}
	d := newData(tbl, 0)

	names := make([]string, len(d.columns))
	for i, c := range d.columns {
		names[i] = c.Name
	}
	raws, err := t.a.store.Rows(ctx, tbl.Name, tbl.Key, t.ownerID, names)
	if err != nil {
		return nil, err
	}

	for _, raw := range raws {
		row := make([]any, len(d.columns))
		for i, c := range d.columns {
			v, err := coerce.Out(c.Type, raw[i])
			if err != nil {
				return nil, fmt.Errorf("failed to read %s.%s: %w", tbl.Name, c.Name, err)
			}
			if v == nil {
				v = blank(c.Type)
			}
			row[i] = v
		}
		d.rows = append(d.rows, row)
	}
	return d, nil
}

// Write replaces the stored rows with d. Missing cells are left out of the
// insert. Every row must carry the identifier column; when one does not,
// nothing is changed. A nil d clears the table.
func (t Tabular) Write(ctx context.Context, d *Data) error {
	tbl, err := t.table()
	if err != nil {
		return err
	}
	if d != nil && d.table != tbl.Name {
		return &errs.ConfigError{Table: tbl.Name, Reason: fmt.Sprintf("cannot write rows shaped for %q", d.table)}
	}

	if d != nil {
		id, err := d.index(tbl.Identifier)
		if err != nil {
			return err
		}
		for row := range d.rows {
			check := guards.CanWriteRow(guards.RowContext{
				Table:      tbl.Name,
				Identifier: tbl.Identifier,
				Index:      row,
				Missing:    unnamed(d.rows[row][id]),
			})
			if err := check.Error(); err != nil {
				return err
			}
		}
	}

	return t.a.Transact(ctx, func(ctx context.Context) error {
		if _, err := t.a.store.Delete(ctx, tbl.Name, map[string]any{tbl.Key: t.ownerID}); err != nil {
			return err
		}
		if d == nil {
			return nil
		}
		for _, row := range d.rows {
			columns := []string{tbl.Key}
			values := []any{t.ownerID}
			for i, c := range d.columns {
				if coerce.IsMissing(row[i]) {
					continue
				}
				wire, err := coerce.In(c.Type, row[i])
				if err != nil {
					return err
				}
				columns = append(columns, c.Name)
				values = append(values, wire)
			}
			if err := t.a.store.InsertRow(ctx, tbl.Name, columns, values); err != nil {
				return err
			}
		}
		t.a.logUpdate(ctx, Ref{Kind: ownerKind(t.owner), ID: t.ownerID}, tbl.Name, "", fmt.Sprintf("%d rows", len(d.rows)))
		return nil
	})
}

func ownerKind(table string) Kind {
	switch table {
	case "channel_groups":
		return KindChannels
	case "electrode_groups":
		return KindElectrodes
	}
	return KindRun
}

// unnamed reports whether an identifier cell carries no usable name.
func unnamed(v any) bool {
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return coerce.IsMissing(v)
}
