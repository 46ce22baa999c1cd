package archive

import (
	"context"
	"time"

	"github.com/example/aspen/internal/catalog"
	"github.com/example/aspen/internal/coerce"
	"github.com/example/aspen/internal/core/ordering"
)

// Listing orders. Every list of entities goes through one of these so that
// every caller sees the same order.

// SortSubjectsByDate orders subjects by their earliest run start time.
func SortSubjectsByDate(ctx context.Context, subjects []Subject, reverse bool) ([]Subject, error) {
	items := make([]ordering.Timed[Subject], len(subjects))
	for i, s := range subjects {
		t, err := s.FirstRunTime(ctx)
		if err != nil {
			return nil, err
		}
		items[i] = ordering.Timed[Subject]{Item: s, At: t}
	}
	if reverse {
		return ordering.ByTimeReversed(items), nil
	}
	return ordering.ByTime(items), nil
}

// SortSubjectsByCode orders subjects alphabetically by primary code.
func SortSubjectsByCode(ctx context.Context, subjects []Subject, reverse bool) ([]Subject, error) {
	items := make([]ordering.Named[Subject], len(subjects))
	for i, s := range subjects {
		code, err := s.PrimaryCode(ctx)
		if err != nil {
			return nil, err
		}
		items[i] = ordering.Named[Subject]{Item: s, Key: code}
	}
	if reverse {
		return ordering.ByNameReversed(items), nil
	}
	return ordering.ByName(items), nil
}

// SortSessions orders sessions by derived start time.
func SortSessions(ctx context.Context, sessions []Session) ([]Session, error) {
	items := make([]ordering.Timed[Session], len(sessions))
	for i, s := range sessions {
		t, err := s.StartTime(ctx)
		if err != nil {
			return nil, err
		}
		items[i] = ordering.Timed[Session]{Item: s, At: t}
	}
	return ordering.ByTime(items), nil
}

// SortRuns orders runs by start time.
func SortRuns(ctx context.Context, runs []Run) ([]Run, error) {
	items := make([]ordering.Timed[Run], len(runs))
	for i, r := range runs {
		t, err := r.StartTime(ctx)
		if err != nil {
			return nil, err
		}
		items[i] = ordering.Timed[Run]{Item: r, At: t}
	}
	return ordering.ByTime(items), nil
}

// SortRecordings orders recordings by modality name.
func SortRecordings(ctx context.Context, recs []Recording) ([]Recording, error) {
	items := make([]ordering.Named[Recording], len(recs))
	for i, r := range recs {
		m, err := r.Modality(ctx)
		if err != nil {
			return nil, err
		}
		items[i] = ordering.Named[Recording]{Item: r, Key: m}
	}
	return ordering.ByName(items), nil
}

// SortProtocols orders protocols by signature date.
func SortProtocols(ctx context.Context, protocols []Protocol) ([]Protocol, error) {
	items := make([]ordering.Timed[Protocol], len(protocols))
	for i, p := range protocols {
		t, err := p.DateOfSignature(ctx)
		if err != nil {
			return nil, err
		}
		items[i] = ordering.Timed[Protocol]{Item: p, At: t}
	}
	return ordering.ByTime(items), nil
}

// parseTime reads a scanned DATETIME value, zero when NULL.
func parseTime(raw any) (time.Time, error) {
	v, err := coerce.Out(catalog.DateTime, raw)
	if err != nil || v == nil {
		return time.Time{}, err
	}
	return v.(time.Time), nil
}
