package archive

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/example/aspen/internal/core/guards"
	"github.com/example/aspen/internal/db"
	"github.com/example/aspen/internal/errs"
)

// Run is one execution of a task within a session.
type Run struct {
	Record
	session *Session
}

// TaskName returns the task of the run.
func (r Run) TaskName(ctx context.Context) (string, error) { return r.text(ctx, "task_name") }

// StartTime returns the run start, zero when unknown.
func (r Run) StartTime(ctx context.Context) (time.Time, error) {
	return r.timestamp(ctx, "start_time")
}

// EndTime returns the run end, zero when unknown.
func (r Run) EndTime(ctx context.Context) (time.Time, error) {
	return r.timestamp(ctx, "end_time")
}

// Duration returns the run length in seconds, NaN when unknown.
func (r Run) Duration(ctx context.Context) (float64, error) { return r.float(ctx, "duration") }

// Session returns the owning session.
func (r Run) Session(ctx context.Context) (Session, error) {
	if r.session != nil {
		return *r.session, nil
	}
	id, err := r.parentID(ctx, "runs", "session_id")
	if err != nil {
		return Session{}, err
	}
	return Session{Record: r.a.record(KindSession, id)}, nil
}

// AddRecording creates a recording of the given modality, starting onset
// seconds after the run start.
func (r Run) AddRecording(ctx context.Context, modality string, onset float64) (Recording, error) {
	rec, err := r.a.create(ctx, KindRecording, "run_id", r.ref.ID,
		attr{"modality", modality}, attr{"onset", onset})
	if err != nil {
		return Recording{}, err
	}
	return Recording{Record: rec, run: &r}, nil
}

// ListRecordings returns the run's recordings ordered by modality.
func (r Run) ListRecordings(ctx context.Context) ([]Recording, error) {
	ids, err := r.a.store.IDs(ctx, "recordings",
		`SELECT "id" FROM "recordings" WHERE "run_id" = ? ORDER BY "id"`, r.ref.ID)
	if err != nil {
		return nil, err
	}
	recs := make([]Recording, len(ids))
	for i, id := range ids {
		recs[i] = Recording{Record: r.a.record(KindRecording, id), run: &r}
	}
	return SortRecordings(ctx, recs)
}

// Events returns the run's event table.
func (r Run) Events() Tabular {
	return Tabular{a: r.a, owner: "runs", ownerID: r.ref.ID}
}

// Experimenters returns the names of the run's experimenters, sorted.
func (r Run) Experimenters(ctx context.Context) ([]string, error) {
	names, err := r.a.store.Strings(ctx, "experimenters", `SELECT "experimenters"."name" FROM "experimenters"
		JOIN "runs_experimenters" ON "runs_experimenters"."experimenter_id" = "experimenters"."id"
		WHERE "runs_experimenters"."run_id" = ?`, r.ref.ID)
	if err != nil {
		return nil, err
	}
	slices.Sort(names)
	return names, nil
}

// SetExperimenters replaces the run's experimenters. Names that are not
// registered experimenters are skipped with a warning.
func (r Run) SetExperimenters(ctx context.Context, names []string) error {
	return r.a.Transact(ctx, func(ctx context.Context) error {
		if _, err := r.a.store.Delete(ctx, "runs_experimenters", map[string]any{"run_id": r.ref.ID}); err != nil {
			return err
		}
		for _, name := range dedupe(names) {
			ids, err := r.a.store.IDs(ctx, "experimenters",
				`SELECT "id" FROM "experimenters" WHERE "name" = ?`, name)
			if err != nil {
				return err
			}
			if len(ids) == 0 {
				r.a.log.Warn("experimenter not found", "run_id", r.ref.ID, "experimenter", name)
				continue
			}
			if err := r.a.store.InsertRow(ctx, "runs_experimenters",
				[]string{"run_id", "experimenter_id"}, []any{r.ref.ID, ids[0]}); err != nil {
				return err
			}
		}
		return nil
	})
}

// AddExperimenter registers an experimenter name. Registering a known name
// is a no-op.
func (a *Archive) AddExperimenter(ctx context.Context, name string) error {
	n, err := a.store.Count(ctx, "experimenters", map[string]any{"name": name})
	if err != nil || n > 0 {
		return err
	}
	return a.store.InsertRow(ctx, "experimenters", []string{"name"}, []any{name})
}

// ListExperimenters returns every registered experimenter name, sorted.
func (a *Archive) ListExperimenters(ctx context.Context) ([]string, error) {
	return a.store.Strings(ctx, "experimenters", `SELECT "name" FROM "experimenters" ORDER BY "name"`)
}

// AttachProtocol links the run to a protocol. Linking twice is an error.
func (r Run) AttachProtocol(ctx context.Context, p Protocol) error {
	return r.link(ctx, "runs_protocols", "protocol_id", p.Ref(), false)
}

// DetachProtocol removes the link to a protocol.
func (r Run) DetachProtocol(ctx context.Context, p Protocol) error {
	return r.unlink(ctx, "runs_protocols", "protocol_id", p.Ref())
}

// ListProtocols returns the protocols linked to the run, ordered by signature date.
func (r Run) ListProtocols(ctx context.Context) ([]Protocol, error) {
	ids, err := r.a.store.IDs(ctx, "runs_protocols",
		`SELECT "protocol_id" FROM "runs_protocols" WHERE "run_id" = ?`, r.ref.ID)
	if err != nil {
		return nil, err
	}
	protocols := make([]Protocol, len(ids))
	for i, id := range ids {
		protocols[i] = Protocol{Record: r.a.record(KindProtocol, id)}
	}
	return SortProtocols(ctx, protocols)
}

// AttachIntendedFor records that this run (typically a field map) applies to target.
func (r Run) AttachIntendedFor(ctx context.Context, target Run) error {
	return r.link(ctx, "intended_for", "target_id", target.Ref(), true)
}

// DetachIntendedFor removes the intended-for link to target.
func (r Run) DetachIntendedFor(ctx context.Context, target Run) error {
	return r.unlink(ctx, "intended_for", "target_id", target.Ref())
}

// ListIntendedFor returns the runs this run is intended for, ordered by start time.
func (r Run) ListIntendedFor(ctx context.Context) ([]Run, error) {
	ids, err := r.a.store.IDs(ctx, "intended_for",
		`SELECT "target_id" FROM "intended_for" WHERE "run_id" = ?`, r.ref.ID)
	if err != nil {
		return nil, err
	}
	runs := make([]Run, len(ids))
	for i, id := range ids {
		runs[i] = Run{Record: r.a.record(KindRun, id)}
	}
	return SortRuns(ctx, runs)
}

func (r Run) link(ctx context.Context, table, column string, target Ref, sameKind bool) error {
	n, err := r.a.store.Count(ctx, table, map[string]any{"run_id": r.ref.ID, column: target.ID})
	if err != nil {
		return err
	}
	check := guards.CanLink(guards.LinkContext{
		Kind:          string(KindRun),
		ID:            r.ref.ID,
		Attribute:     string(target.Kind),
		TargetID:      target.ID,
		AlreadyLinked: n > 0,
		SameEntity:    sameKind && target == r.ref,
	})
	if err := check.Error(); err != nil {
		return err
	}

	err = r.a.store.InsertRow(ctx, table, []string{"run_id", column}, []any{r.ref.ID, target.ID})
	if db.IsUniqueViolation(err) {
		return errs.Invalid(string(KindRun), r.ref.ID, string(target.Kind), target.ID, "already linked")
	}
	if err != nil {
		return fmt.Errorf("failed to link %s to %s: %w", r.ref, target, err)
	}
	return nil
}

func (r Run) unlink(ctx context.Context, table, column string, target Ref) error {
	_, err := r.a.store.Delete(ctx, table, map[string]any{"run_id": r.ref.ID, column: target.ID})
	return err
}
