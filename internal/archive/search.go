package archive

import (
	"context"
	"strings"
)

// RunFilter selects runs by typed criteria. Empty fields match anything.
type RunFilter struct {
	SubjectCode string
	SessionName string
	TaskName    string
	Modality    string
}

// FindRuns returns the runs matching every set criterion, ordered by start time.
func (a *Archive) FindRuns(ctx context.Context, f RunFilter) ([]Run, error) {
	var where []string
	var args []any
	if f.SubjectCode != "" {
		where = append(where, `"sessions"."subject_id" IN (SELECT "subject_id" FROM "subject_codes" WHERE "code" = ?)`)
		args = append(args, f.SubjectCode)
	}
	if f.SessionName != "" {
		where = append(where, `"sessions"."name" = ?`)
		args = append(args, f.SessionName)
	}
	if f.TaskName != "" {
		where = append(where, `"runs"."task_name" = ?`)
		args = append(args, f.TaskName)
	}
	if f.Modality != "" {
		where = append(where, `"runs"."id" IN (SELECT "run_id" FROM "recordings" WHERE "modality" = ?)`)
		args = append(args, f.Modality)
	}

	query := `SELECT "runs"."id" FROM "runs" JOIN "sessions" ON "runs"."session_id" = "sessions"."id"`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += ` ORDER BY "runs"."id"`

	ids, err := a.store.IDs(ctx, "runs", query, args...)
	if err != nil {
		return nil, err
	}
	runs := make([]Run, len(ids))
	for i, id := range ids {
		runs[i] = Run{Record: a.record(KindRun, id)}
	}
	return SortRuns(ctx, runs)
}

// RefSet is a set of entity identities, used to mark search hits.
type RefSet map[Ref]struct{}

// NewRefSet returns a set holding the refs of entities.
func NewRefSet[E Entity](entities ...E) RefSet {
	s := make(RefSet, len(entities))
	for _, e := range entities {
		s[e.Ref()] = struct{}{}
	}
	return s
}

// Has reports whether e is in the set.
func (s RefSet) Has(e Entity) bool {
	_, ok := s[e.Ref()]
	return ok
}
