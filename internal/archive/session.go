package archive

import (
	"context"
	"fmt"
	"time"

	"github.com/example/aspen/internal/core/ordering"
)

// Session is one visit of a subject (IEMU, OR, MRI, ...).
type Session struct {
	Record
	subject *Subject
}

// Name returns the session type.
func (s Session) Name(ctx context.Context) (string, error) { return s.text(ctx, "name") }

// Subject returns the owning subject.
func (s Session) Subject(ctx context.Context) (Subject, error) {
	if s.subject != nil {
		return *s.subject, nil
	}
	id, err := s.parentID(ctx, "sessions", "subject_id")
	if err != nil {
		return Subject{}, err
	}
	return Subject{Record: s.a.record(KindSubject, id)}, nil
}

// StartTime is the earliest start time of the session's runs.
func (s Session) StartTime(ctx context.Context) (time.Time, error) {
	return s.a.aggregateTime(ctx, "runs",
		`SELECT MIN("start_time") FROM "runs" WHERE "session_id" = ?`, s.ref.ID)
}

// EndTime is the latest end time of the session's runs.
func (s Session) EndTime(ctx context.Context) (time.Time, error) {
	return s.a.aggregateTime(ctx, "runs",
		`SELECT MAX("end_time") FROM "runs" WHERE "session_id" = ?`, s.ref.ID)
}

// AddRun creates a run of the given task.
func (s Session) AddRun(ctx context.Context, task string) (Run, error) {
	r, err := s.a.create(ctx, KindRun, "session_id", s.ref.ID, attr{"task_name", task})
	if err != nil {
		return Run{}, err
	}
	return Run{Record: r, session: &s}, nil
}

// ListRuns returns the session's runs ordered by start time.
func (s Session) ListRuns(ctx context.Context) ([]Run, error) {
	ids, err := s.a.store.IDs(ctx, "runs",
		`SELECT "id" FROM "runs" WHERE "session_id" = ? ORDER BY "id"`, s.ref.ID)
	if err != nil {
		return nil, err
	}
	runs := make([]Run, len(ids))
	for i, id := range ids {
		runs[i] = Run{Record: s.a.record(KindRun, id), session: &s}
	}
	return SortRuns(ctx, runs)
}

// ListChannels returns the distinct channel groups attached to the session's
// ieeg recordings, in run order.
func (s Session) ListChannels(ctx context.Context) ([]Channels, error) {
	ids, err := s.attachedGroups(ctx, "channel_group_id")
	if err != nil {
		return nil, err
	}
	out := make([]Channels, len(ids))
	for i, id := range ids {
		out[i] = Channels{group{Record: s.a.record(KindChannels, id)}}
	}
	return out, nil
}

// ListElectrodes returns the distinct electrode groups attached to the
// session's ieeg recordings, in run order.
func (s Session) ListElectrodes(ctx context.Context) ([]Electrodes, error) {
	ids, err := s.attachedGroups(ctx, "electrode_group_id")
	if err != nil {
		return nil, err
	}
	out := make([]Electrodes, len(ids))
	for i, id := range ids {
		out[i] = Electrodes{group{Record: s.a.record(KindElectrodes, id)}}
	}
	return out, nil
}

func (s Session) attachedGroups(ctx context.Context, column string) ([]int64, error) {
	query := fmt.Sprintf(`SELECT "recordings_ieeg"."%[1]s", MIN("runs"."start_time") FROM "recordings_ieeg"
		JOIN "recordings" ON "recordings_ieeg"."recording_id" = "recordings"."id"
		JOIN "runs" ON "recordings"."run_id" = "runs"."id"
		WHERE "recordings"."modality" = 'ieeg' AND "runs"."session_id" = ?
		AND "recordings_ieeg"."%[1]s" IS NOT NULL
		GROUP BY "recordings_ieeg"."%[1]s"`, column)

	rows, err := s.a.store.Query(ctx, "recordings_ieeg", query, s.ref.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list attached groups: %w", err)
	}
	defer rows.Close()

	var timed []ordering.Timed[int64]
	for rows.Next() {
		var id int64
		var start any
		if err := rows.Scan(&id, &start); err != nil {
			return nil, fmt.Errorf("failed to scan attached group: %w", err)
		}
		t, err := parseTime(start)
		if err != nil {
			return nil, err
		}
		timed = append(timed, ordering.Timed[int64]{Item: id, At: t})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list attached groups: %w", err)
	}
	return ordering.ByTime(timed), nil
}

// parentID reads the foreign key that points to the parent row.
func (r Record) parentID(ctx context.Context, table, column string) (int64, error) {
	var id int64
	query := fmt.Sprintf(`SELECT "%s" FROM "%s" WHERE "id" = ?`, column, table)
	if err := r.a.store.QueryRow(ctx, table, query, r.ref.ID).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to read parent of %s: %w", r.ref, err)
	}
	return id, nil
}
