package archive

import (
	"context"
	"time"
)

// Protocol is an ethics-committee approval signed by a subject.
type Protocol struct {
	Record
	subject *Subject
}

// METC returns the committee reference.
func (p Protocol) METC(ctx context.Context) (string, error) { return p.text(ctx, "metc") }

// DateOfSignature returns the signature date, zero when unknown.
func (p Protocol) DateOfSignature(ctx context.Context) (time.Time, error) {
	return p.timestamp(ctx, "date_of_signature")
}

// Subject returns the signing subject.
func (p Protocol) Subject(ctx context.Context) (Subject, error) {
	if p.subject != nil {
		return *p.subject, nil
	}
	id, err := p.parentID(ctx, "protocols", "subject_id")
	if err != nil {
		return Subject{}, err
	}
	return Subject{Record: p.a.record(KindSubject, id)}, nil
}

// ListRuns returns the runs covered by the protocol, ordered by start time.
func (p Protocol) ListRuns(ctx context.Context) ([]Run, error) {
	ids, err := p.a.store.IDs(ctx, "runs_protocols",
		`SELECT "run_id" FROM "runs_protocols" WHERE "protocol_id" = ?`, p.ref.ID)
	if err != nil {
		return nil, err
	}
	runs := make([]Run, len(ids))
	for i, id := range ids {
		runs[i] = Run{Record: p.a.record(KindRun, id)}
	}
	return SortRuns(ctx, runs)
}
