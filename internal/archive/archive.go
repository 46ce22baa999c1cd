// Package archive maps the archive's relational schema onto typed entities.
//
// Every entity handle is a (kind, id) reference plus the archive it was read
// from. Attribute access resolves through the catalog and issues one SQL
// round trip per call; nothing is cached, so a value written by Set is what
// the next Get returns, inside or outside a transaction.
package archive

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/example/aspen/internal/adapters/sqlstore"
	"github.com/example/aspen/internal/catalog"
	"github.com/example/aspen/internal/errs"
	"github.com/example/aspen/internal/ports/secondary"
)

// Kind names an entity type.
type Kind string

// Entity kinds. They match the catalog's `kind` keys.
const (
	KindSubject    Kind = "subject"
	KindSession    Kind = "session"
	KindRun        Kind = "run"
	KindRecording  Kind = "recording"
	KindProtocol   Kind = "protocol"
	KindChannels   Kind = "channels"
	KindElectrodes Kind = "electrodes"
	KindFile       Kind = "file"
)

// Ref is the identity of an entity. Two handles are the same entity exactly
// when their refs are equal; Ref is comparable and can key maps and sets.
type Ref struct {
	Kind Kind
	ID   int64
}

func (r Ref) String() string {
	return fmt.Sprintf("<%s (#%d)>", r.Kind, r.ID)
}

// Entity is implemented by every handle.
type Entity interface {
	Ref() Ref
}

// Archive is the entry point to the stored entities.
type Archive struct {
	store *sqlstore.Store
	cat   *catalog.Catalog
	log   *slog.Logger
	audit secondary.LogWriter
}

// Option configures an Archive.
type Option func(*Archive)

// WithLogger sets the logger used for warnings.
func WithLogger(l *slog.Logger) Option {
	return func(a *Archive) { a.log = l }
}

// WithAudit records every create, update and delete through w.
func WithAudit(w secondary.LogWriter) Option {
	return func(a *Archive) { a.audit = w }
}

// New creates an archive over store described by cat.
func New(store *sqlstore.Store, cat *catalog.Catalog, opts ...Option) *Archive {
	a := &Archive{store: store, cat: cat, log: slog.Default()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Catalog returns the schema catalog.
func (a *Archive) Catalog() *catalog.Catalog { return a.cat }

// Transact runs fn inside one transaction. Handles obtained before or during
// the call keep working: while fn runs, the archive routes every statement
// through the transaction. The archive assumes a single writer.
func (a *Archive) Transact(ctx context.Context, fn func(ctx context.Context) error) error {
	outer := a.store
	return outer.Transact(ctx, func(tx *sqlstore.Store) error {
		a.store = tx
		defer func() { a.store = outer }()
		return fn(ctx)
	})
}

func (a *Archive) record(kind Kind, id int64) Record {
	return Record{a: a, ref: Ref{Kind: kind, ID: id}}
}

// mainTable returns the catalog table backing a kind.
func (a *Archive) mainTable(kind Kind) (*catalog.Table, error) {
	return a.cat.MainTable(string(kind))
}

// lookup verifies that an entity row exists.
func (a *Archive) lookup(ctx context.Context, kind Kind, id int64) (Record, error) {
	t, err := a.mainTable(kind)
	if err != nil {
		return Record{}, err
	}
	ok, err := a.store.Exists(ctx, t.Name, "id", id)
	if err != nil {
		return Record{}, err
	}
	if !ok {
		return Record{}, errs.NotFound(string(kind), "id", id)
	}
	return a.record(kind, id), nil
}

// Subject returns the subject with the given id.
func (a *Archive) Subject(ctx context.Context, id int64) (Subject, error) {
	r, err := a.lookup(ctx, KindSubject, id)
	return Subject{Record: r}, err
}

// Session returns the session with the given id.
func (a *Archive) Session(ctx context.Context, id int64) (Session, error) {
	r, err := a.lookup(ctx, KindSession, id)
	return Session{Record: r}, err
}

// Run returns the run with the given id.
func (a *Archive) Run(ctx context.Context, id int64) (Run, error) {
	r, err := a.lookup(ctx, KindRun, id)
	return Run{Record: r}, err
}

// Recording returns the recording with the given id.
func (a *Archive) Recording(ctx context.Context, id int64) (Recording, error) {
	r, err := a.lookup(ctx, KindRecording, id)
	return Recording{Record: r}, err
}

// Protocol returns the protocol with the given id.
func (a *Archive) Protocol(ctx context.Context, id int64) (Protocol, error) {
	r, err := a.lookup(ctx, KindProtocol, id)
	return Protocol{Record: r}, err
}

// Channels returns the channel group with the given id.
func (a *Archive) Channels(ctx context.Context, id int64) (Channels, error) {
	r, err := a.lookup(ctx, KindChannels, id)
	return Channels{group{Record: r}}, err
}

// Electrodes returns the electrode group with the given id.
func (a *Archive) Electrodes(ctx context.Context, id int64) (Electrodes, error) {
	r, err := a.lookup(ctx, KindElectrodes, id)
	return Electrodes{group{Record: r}}, err
}

// File returns the file with the given id.
func (a *Archive) File(ctx context.Context, id int64) (File, error) {
	r, err := a.lookup(ctx, KindFile, id)
	return File{Record: r}, err
}

func (a *Archive) logCreate(ctx context.Context, ref Ref) {
	if a.audit == nil {
		return
	}
	if err := a.audit.LogCreate(ctx, string(ref.Kind), ref.ID); err != nil {
		a.log.Warn("audit log failed", "entity", ref.String(), "error", err)
	}
}

func (a *Archive) logUpdate(ctx context.Context, ref Ref, attribute, oldValue, newValue string) {
	if a.audit == nil {
		return
	}
	if err := a.audit.LogUpdate(ctx, string(ref.Kind), ref.ID, attribute, oldValue, newValue); err != nil {
		a.log.Warn("audit log failed", "entity", ref.String(), "error", err)
	}
}

func (a *Archive) logDelete(ctx context.Context, ref Ref) {
	if a.audit == nil {
		return
	}
	if err := a.audit.LogDelete(ctx, string(ref.Kind), ref.ID); err != nil {
		a.log.Warn("audit log failed", "entity", ref.String(), "error", err)
	}
}
