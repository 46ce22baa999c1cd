// Package catalog holds the declarative description of the archive schema.
//
// The catalog is loaded once from YAML and is read-only afterwards. It is the
// only place that knows which physical table holds a logical attribute, which
// type the attribute has and which values it may take.
package catalog

import (
	_ "embed"
	"fmt"
	"slices"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/example/aspen/internal/errs"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Type is the declared storage type of a column.
type Type string

// Declared column types.
const (
	Text     Type = "TEXT"
	Float    Type = "FLOAT"
	Date     Type = "DATE"
	DateTime Type = "DATETIME"
)

// Known reports whether t is one of the declared column types.
func (t Type) Known() bool {
	switch t {
	case Text, Float, Date, DateTime:
		return true
	}
	return false
}

// Column describes one column of a table.
type Column struct {
	Name   string   `yaml:"name"`
	Type   Type     `yaml:"type"`
	Index  bool     `yaml:"index"`
	Values []string `yaml:"values"`
	Label  string   `yaml:"label"`
	Doc    string   `yaml:"doc"`
}

// Allows reports whether v is permitted by the column's allow-list.
// Columns without an allow-list accept anything.
func (c Column) Allows(v string) bool {
	if len(c.Values) == 0 {
		return true
	}
	return slices.Contains(c.Values, v)
}

// Condition is the visibility predicate of a subtable: its columns apply only
// when Parameter of the Parent row takes one of Values.
type Condition struct {
	Parent    string   `yaml:"parent"`
	Parameter string   `yaml:"parameter"`
	Values    []string `yaml:"value"`
}

// Satisfied evaluates the predicate against the current parameter value.
func (c *Condition) Satisfied(v any) bool {
	if c == nil {
		return true
	}
	s, ok := v.(string)
	if !ok {
		return false
	}
	return slices.Contains(c.Values, s)
}

// Table describes one physical table.
type Table struct {
	Name       string     `yaml:"name"`
	Kind       string     `yaml:"kind"`
	Key        string     `yaml:"key"`
	Owner      string     `yaml:"owner"`
	Identifier string     `yaml:"identifier"`
	When       *Condition `yaml:"when"`
	Columns    []Column   `yaml:"columns"`
}

// Column returns the named column.
func (t *Table) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// DataColumns returns the non-index columns in declared order.
func (t *Table) DataColumns() []Column {
	out := make([]Column, 0, len(t.Columns))
	for _, c := range t.Columns {
		if !c.Index {
			out = append(out, c)
		}
	}
	return out
}

// Tabular reports whether the table stores bulk rows for an owner.
func (t *Table) Tabular() bool { return t.Owner != "" }

// Binding is the resolved location of a logical attribute of an entity kind.
type Binding struct {
	Kind      string
	Attribute string
	Table     string
	// KeyColumn is the column matched against the entity id: "id" for the
	// main table, the foreign key for subtables.
	KeyColumn string
	Column    Column
	When      *Condition
}

// Subtable reports whether the attribute lives in a dependent table.
func (b Binding) Subtable() bool { return b.When != nil }

// Catalog is the loaded, indexed schema description.
type Catalog struct {
	tables   map[string]*Table
	order    []string
	kinds    map[string]*Table
	bindings map[string][]Binding
}

type document struct {
	Tables []*Table `yaml:"tables"`
}

// Load parses a catalog definition and builds the attribute resolution index.
// Unknown column types are rejected here so they can never reach coercion.
func Load(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &errs.ConfigError{Reason: fmt.Sprintf("failed to parse catalog: %v", err)}
	}

	c := &Catalog{
		tables:   make(map[string]*Table, len(doc.Tables)),
		kinds:    make(map[string]*Table),
		bindings: make(map[string][]Binding),
	}

	for _, t := range doc.Tables {
		if t.Name == "" {
			return nil, &errs.ConfigError{Reason: "table without name"}
		}
		if _, dup := c.tables[t.Name]; dup {
			return nil, &errs.ConfigError{Table: t.Name, Reason: "declared twice"}
		}
		for _, col := range t.Columns {
			if col.Index {
				continue
			}
			if !col.Type.Known() {
				return nil, &errs.ConfigError{Table: t.Name, Column: col.Name, Reason: fmt.Sprintf("unknown type %q", col.Type)}
			}
		}
		c.tables[t.Name] = t
		c.order = append(c.order, t.Name)
		if t.Kind != "" {
			c.kinds[t.Kind] = t
		}
	}

	for _, t := range doc.Tables {
		if t.Owner != "" {
			if _, ok := c.tables[t.Owner]; !ok {
				return nil, &errs.ConfigError{Table: t.Name, Reason: fmt.Sprintf("unknown owner %q", t.Owner)}
			}
			if _, ok := t.Column(t.Identifier); !ok {
				return nil, &errs.ConfigError{Table: t.Name, Reason: fmt.Sprintf("unknown identifier %q", t.Identifier)}
			}
		}
		if t.When != nil {
			parent, ok := c.tables[t.When.Parent]
			if !ok || parent.Kind == "" {
				return nil, &errs.ConfigError{Table: t.Name, Reason: fmt.Sprintf("unknown parent %q", t.When.Parent)}
			}
			if _, ok := parent.Column(t.When.Parameter); !ok {
				return nil, &errs.ConfigError{Table: t.Name, Reason: fmt.Sprintf("unknown parameter %q", t.When.Parameter)}
			}
			if t.Key == "" {
				return nil, &errs.ConfigError{Table: t.Name, Reason: "subtable without key"}
			}
		}
	}

	for _, name := range c.order {
		t := c.tables[name]
		if t.Kind == "" {
			continue
		}
		if err := c.index(t); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// index registers every attribute of a kind: main table columns first, then
// subtable columns in declaration order. An attribute name may only resolve
// to one table.
func (c *Catalog) index(main *Table) error {
	seen := make(map[string]bool)
	add := func(t *Table, key string) error {
		for _, col := range t.DataColumns() {
			if seen[col.Name] {
				return &errs.ConfigError{Table: t.Name, Column: col.Name, Reason: fmt.Sprintf("attribute already bound for %s", main.Kind)}
			}
			seen[col.Name] = true
			c.bindings[main.Kind] = append(c.bindings[main.Kind], Binding{
				Kind:      main.Kind,
				Attribute: col.Name,
				Table:     t.Name,
				KeyColumn: key,
				Column:    col,
				When:      t.When,
			})
		}
		return nil
	}

	if err := add(main, "id"); err != nil {
		return err
	}
	for _, name := range c.order {
		t := c.tables[name]
		if t.When != nil && t.When.Parent == main.Name {
			if err := add(t, t.Key); err != nil {
				return err
			}
		}
	}
	return nil
}

var (
	defaultOnce   sync.Once
	defaultLoaded *Catalog
)

// Default returns the embedded catalog. It panics if the embedded definition
// is broken, which the package tests guard against.
func Default() *Catalog {
	defaultOnce.Do(func() {
		c, err := Load(defaultCatalog)
		if err != nil {
			panic(fmt.Sprintf("embedded catalog: %v", err))
		}
		defaultLoaded = c
	})
	return defaultLoaded
}

// Tables returns every table name in declaration order.
func (c *Catalog) Tables() []string {
	return slices.Clone(c.order)
}

// Table looks up a table by name.
func (c *Catalog) Table(name string) (*Table, error) {
	t, ok := c.tables[name]
	if !ok {
		return nil, &errs.ConfigError{Table: name, Reason: "unknown table"}
	}
	return t, nil
}

// MainTable returns the main table of an entity kind.
func (c *Catalog) MainTable(kind string) (*Table, error) {
	t, ok := c.kinds[kind]
	if !ok {
		return nil, &errs.ConfigError{Reason: fmt.Sprintf("unknown entity kind %q", kind)}
	}
	return t, nil
}

// Columns returns the declared columns of a table.
func (c *Catalog) Columns(table string) ([]Column, error) {
	t, err := c.Table(table)
	if err != nil {
		return nil, err
	}
	return slices.Clone(t.Columns), nil
}

// AllowedValues returns the allow-list of a column, nil when unconstrained.
func (c *Catalog) AllowedValues(table, column string) ([]string, error) {
	t, err := c.Table(table)
	if err != nil {
		return nil, err
	}
	col, ok := t.Column(column)
	if !ok {
		return nil, &errs.ConfigError{Table: table, Column: column, Reason: "unknown column"}
	}
	return slices.Clone(col.Values), nil
}

// Resolve finds the table holding attribute for entities of kind.
func (c *Catalog) Resolve(kind, attribute string) (Binding, error) {
	bindings, ok := c.bindings[kind]
	if !ok {
		return Binding{}, &errs.ConfigError{Reason: fmt.Sprintf("unknown entity kind %q", kind)}
	}
	for _, b := range bindings {
		if b.Attribute == attribute {
			return b, nil
		}
	}
	return Binding{}, &errs.ConfigError{Table: c.kinds[kind].Name, Column: attribute, Reason: "attribute cannot be resolved to a table"}
}

// Attributes returns every attribute binding of a kind, main table first.
func (c *Catalog) Attributes(kind string) ([]Binding, error) {
	bindings, ok := c.bindings[kind]
	if !ok {
		return nil, &errs.ConfigError{Reason: fmt.Sprintf("unknown entity kind %q", kind)}
	}
	return slices.Clone(bindings), nil
}

// Tabular returns the bulk table owned by the given main table.
func (c *Catalog) Tabular(owner string) (*Table, error) {
	for _, name := range c.order {
		t := c.tables[name]
		if t.Owner == owner {
			return t, nil
		}
	}
	return nil, &errs.ConfigError{Table: owner, Reason: "no tabular table owned"}
}
