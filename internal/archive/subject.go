package archive

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/example/aspen/internal/core/guards"
	"github.com/example/aspen/internal/errs"
)

// respPrefix marks codes of the RESP family, which are listed after all others.
const respPrefix = "RESP"

// Subject is one person in the archive.
type Subject struct {
	Record
}

// AddSubject creates a subject holding the given codes. At least one code is
// required and none may belong to another subject.
func (a *Archive) AddSubject(ctx context.Context, codes ...string) (Subject, error) {
	codes = dedupe(codes)
	if len(codes) == 0 {
		return Subject{}, errs.Invalid(string(KindSubject), 0, "code", "", "at least one code is required")
	}

	var s Subject
	err := a.Transact(ctx, func(ctx context.Context) error {
		for _, code := range codes {
			if err := a.checkCode(ctx, 0, code); err != nil {
				return err
			}
		}
		r, err := a.create(ctx, KindSubject, "", 0)
		if err != nil {
			return err
		}
		s = Subject{Record: r}
		return s.insertCodes(ctx, codes)
	})
	if err != nil {
		return Subject{}, err
	}
	return s, nil
}

// FindSubjectByCode returns the subject holding code.
func (a *Archive) FindSubjectByCode(ctx context.Context, code string) (Subject, error) {
	owner, err := a.codeOwner(ctx, code)
	if err != nil {
		return Subject{}, err
	}
	if owner == 0 {
		return Subject{}, errs.NotFound(string(KindSubject), "code", code)
	}
	return Subject{Record: a.record(KindSubject, owner)}, nil
}

// SubjectOrder selects how ListSubjects orders its result.
type SubjectOrder int

const (
	// ByDate orders by the earliest run start time of each subject.
	ByDate SubjectOrder = iota
	// Alphabetical orders by primary code.
	Alphabetical
)

// ListSubjects returns every subject in the requested order. Subjects without
// a sort key go last in either direction.
func (a *Archive) ListSubjects(ctx context.Context, order SubjectOrder, reverse bool) ([]Subject, error) {
	ids, err := a.store.IDs(ctx, "subjects", `SELECT "id" FROM "subjects" ORDER BY "id"`)
	if err != nil {
		return nil, err
	}
	subjects := make([]Subject, len(ids))
	for i, id := range ids {
		subjects[i] = Subject{Record: a.record(KindSubject, id)}
	}

	if order == Alphabetical {
		return SortSubjectsByCode(ctx, subjects, reverse)
	}
	return SortSubjectsByDate(ctx, subjects, reverse)
}

// Codes returns the subject codes sorted, RESP codes last.
func (s Subject) Codes(ctx context.Context) ([]string, error) {
	codes, err := s.a.store.Strings(ctx, "subject_codes",
		`SELECT "code" FROM "subject_codes" WHERE "subject_id" = ?`, s.ref.ID)
	if err != nil {
		return nil, err
	}
	return sortCodes(codes), nil
}

// PrimaryCode returns the first code in display order, "" when there is none.
func (s Subject) PrimaryCode(ctx context.Context) (string, error) {
	codes, err := s.Codes(ctx)
	if err != nil || len(codes) == 0 {
		return "", err
	}
	return codes[0], nil
}

// AddCode gives the subject one more code. Adding a code it already holds is
// a no-op.
func (s Subject) AddCode(ctx context.Context, code string) error {
	owner, err := s.a.codeOwner(ctx, code)
	if err != nil {
		return err
	}
	if owner == s.ref.ID {
		return nil
	}
	if err := s.a.checkCode(ctx, s.ref.ID, code); err != nil {
		return err
	}
	return s.insertCodes(ctx, []string{code})
}

// SetCodes replaces every code of the subject.
func (s Subject) SetCodes(ctx context.Context, codes []string) error {
	codes = dedupe(codes)
	return s.a.Transact(ctx, func(ctx context.Context) error {
		for _, code := range codes {
			if err := s.a.checkCode(ctx, s.ref.ID, code); err != nil {
				return err
			}
		}
		old, err := s.Codes(ctx)
		if err != nil {
			return err
		}
		if _, err := s.a.store.Delete(ctx, "subject_codes", map[string]any{"subject_id": s.ref.ID}); err != nil {
			return err
		}
		if err := s.insertCodes(ctx, codes); err != nil {
			return err
		}
		s.a.logUpdate(ctx, s.ref, "codes", strings.Join(old, ", "), strings.Join(sortCodes(codes), ", "))
		return nil
	})
}

// Name is the display name: codes joined by ", ".
func (s Subject) Name(ctx context.Context) (string, error) {
	codes, err := s.Codes(ctx)
	if err != nil {
		return "", err
	}
	if len(codes) == 0 {
		return "(subject without code)", nil
	}
	return strings.Join(codes, ", "), nil
}

// DateOfBirth returns the date of birth, zero when unknown.
func (s Subject) DateOfBirth(ctx context.Context) (time.Time, error) {
	return s.timestamp(ctx, "date_of_birth")
}

// Sex returns the recorded sex.
func (s Subject) Sex(ctx context.Context) (string, error) { return s.text(ctx, "sex") }

// AddSession creates a session of the given type.
func (s Subject) AddSession(ctx context.Context, name string) (Session, error) {
	r, err := s.a.create(ctx, KindSession, "subject_id", s.ref.ID, attr{"name", name})
	if err != nil {
		return Session{}, err
	}
	return Session{Record: r, subject: &s}, nil
}

// ListSessions returns the subject's sessions ordered by start time.
func (s Subject) ListSessions(ctx context.Context) ([]Session, error) {
	ids, err := s.a.store.IDs(ctx, "sessions",
		`SELECT "id" FROM "sessions" WHERE "subject_id" = ? ORDER BY "id"`, s.ref.ID)
	if err != nil {
		return nil, err
	}
	sessions := make([]Session, len(ids))
	for i, id := range ids {
		sessions[i] = Session{Record: s.a.record(KindSession, id), subject: &s}
	}
	return SortSessions(ctx, sessions)
}

// AddProtocol creates a protocol signed on the given date. A zero date means
// the signature date is unknown.
func (s Subject) AddProtocol(ctx context.Context, metc string, signed time.Time) (Protocol, error) {
	r, err := s.a.create(ctx, KindProtocol, "subject_id", s.ref.ID,
		attr{"metc", metc}, attr{"date_of_signature", signed})
	if err != nil {
		return Protocol{}, err
	}
	return Protocol{Record: r, subject: &s}, nil
}

// ListProtocols returns the subject's protocols ordered by signature date.
func (s Subject) ListProtocols(ctx context.Context) ([]Protocol, error) {
	ids, err := s.a.store.IDs(ctx, "protocols",
		`SELECT "id" FROM "protocols" WHERE "subject_id" = ? ORDER BY "id"`, s.ref.ID)
	if err != nil {
		return nil, err
	}
	protocols := make([]Protocol, len(ids))
	for i, id := range ids {
		protocols[i] = Protocol{Record: s.a.record(KindProtocol, id), subject: &s}
	}
	return SortProtocols(ctx, protocols)
}

// FirstRunTime returns the earliest start time over all runs of the subject,
// zero when no run has one.
func (s Subject) FirstRunTime(ctx context.Context) (time.Time, error) {
	return s.a.aggregateTime(ctx, "runs", `SELECT MIN("runs"."start_time") FROM "runs"
		JOIN "sessions" ON "runs"."session_id" = "sessions"."id"
		WHERE "sessions"."subject_id" = ?`, s.ref.ID)
}

func (s Subject) insertCodes(ctx context.Context, codes []string) error {
	for _, code := range codes {
		if err := s.a.store.InsertRow(ctx, "subject_codes", []string{"subject_id", "code"}, []any{s.ref.ID, code}); err != nil {
			return fmt.Errorf("failed to add code %q: %w", code, err)
		}
	}
	return nil
}

// codeOwner returns the id of the subject holding code, 0 when it is free.
func (a *Archive) codeOwner(ctx context.Context, code string) (int64, error) {
	ids, err := a.store.IDs(ctx, "subject_codes",
		`SELECT "subject_id" FROM "subject_codes" WHERE "code" = ?`, code)
	if err != nil || len(ids) == 0 {
		return 0, err
	}
	return ids[0], nil
}

func (a *Archive) checkCode(ctx context.Context, subjectID int64, code string) error {
	owner, err := a.codeOwner(ctx, code)
	if err != nil {
		return err
	}
	return guards.CanAssignCode(guards.CodeContext{SubjectID: subjectID, Code: code, OwnerID: owner}).Error()
}

// aggregateTime runs a single-value query returning a DATETIME column.
func (a *Archive) aggregateTime(ctx context.Context, table, query string, args ...any) (time.Time, error) {
	var raw any
	if err := a.store.QueryRow(ctx, table, query, args...).Scan(&raw); err != nil && err != sql.ErrNoRows {
		return time.Time{}, fmt.Errorf("failed to read %s times: %w", table, err)
	}
	return parseTime(raw)
}

func sortCodes(codes []string) []string {
	sorted := slices.Clone(codes)
	slices.Sort(sorted)
	slices.SortStableFunc(sorted, func(x, y string) int {
		xr, yr := strings.HasPrefix(x, respPrefix), strings.HasPrefix(y, respPrefix)
		switch {
		case xr == yr:
			return 0
		case xr:
			return 1
		}
		return -1
	})
	return sorted
}

func dedupe(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
