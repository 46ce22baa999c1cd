package archive

import (
	"context"
	"fmt"

	"github.com/example/aspen/internal/core/guards"
	"github.com/example/aspen/internal/errs"
)

// children lists, per kind, the hierarchy tables whose rows block a delete.
var children = map[Kind][]struct {
	kind   Kind
	table  string
	column string
}{
	KindSubject: {
		{KindSession, "sessions", "subject_id"},
		{KindProtocol, "protocols", "subject_id"},
	},
	KindSession: {{KindRun, "runs", "session_id"}},
	KindRun:     {{KindRecording, "recordings", "run_id"}},
}

// links lists, per kind, the join tables whose rows are removed with the entity.
var links = map[Kind][]struct{ table, column string }{
	KindSubject:    {{"subject_codes", "subject_id"}},
	KindRun:        {{"runs_experimenters", "run_id"}, {"runs_protocols", "run_id"}, {"intended_for", "run_id"}, {"intended_for", "target_id"}},
	KindRecording:  {{"recordings_ieeg", "recording_id"}},
	KindProtocol:   {{"runs_protocols", "protocol_id"}},
	KindFile:       {{"subjects_files", "file_id"}, {"sessions_files", "file_id"}, {"runs_files", "file_id"}, {"recordings_files", "file_id"}, {"protocols_files", "file_id"}},
	KindChannels:   {},
	KindElectrodes: {},
}

// Delete removes the entity. Entities that still have sessions, protocols,
// runs or recordings below them are refused; delete those first. Everything
// that only hangs off the entity goes with it: subtable rows, codes, join
// rows, file links and bulk rows. Recordings using a deleted channel or
// electrode group are left without one. Linked files stay registered until
// SweepOrphanFiles.
func (r Record) Delete(ctx context.Context) error {
	counts := make(map[string]int)
	for _, c := range children[r.ref.Kind] {
		n, err := r.a.store.Count(ctx, c.table, map[string]any{c.column: r.ref.ID})
		if err != nil {
			return err
		}
		counts[string(c.kind)] = n
	}
	if err := guards.CanDelete(guards.DeleteContext{Kind: string(r.ref.Kind), ID: r.ref.ID, Children: counts}).Error(); err != nil {
		return err
	}

	main, err := r.a.mainTable(r.ref.Kind)
	if err != nil {
		return err
	}

	return r.a.Transact(ctx, func(ctx context.Context) error {
		for _, name := range r.a.cat.Tables() {
			t, err := r.a.cat.Table(name)
			if err != nil {
				return err
			}
			dependent := (t.When != nil && t.When.Parent == main.Name) || t.Owner == main.Name
			if !dependent {
				continue
			}
			if _, err := r.a.store.Delete(ctx, t.Name, map[string]any{t.Key: r.ref.ID}); err != nil {
				return err
			}
		}

		for _, l := range links[r.ref.Kind] {
			if _, err := r.a.store.Delete(ctx, l.table, map[string]any{l.column: r.ref.ID}); err != nil {
				return err
			}
		}

		if table, column, err := r.fileLinks(); err == nil {
			if _, err := r.a.store.Delete(ctx, table, map[string]any{column: r.ref.ID}); err != nil {
				return err
			}
		}

		switch r.ref.Kind {
		case KindChannels:
			if err := r.clearAttachments(ctx, "channel_group_id"); err != nil {
				return err
			}
		case KindElectrodes:
			if err := r.clearAttachments(ctx, "electrode_group_id"); err != nil {
				return err
			}
		}

		n, err := r.a.store.Delete(ctx, main.Name, map[string]any{"id": r.ref.ID})
		if err != nil {
			return err
		}
		if n == 0 {
			return errs.NotFound(string(r.ref.Kind), "id", r.ref.ID)
		}
		r.a.logDelete(ctx, r.ref)
		return nil
	})
}

func (r Record) clearAttachments(ctx context.Context, column string) error {
	query := fmt.Sprintf(`UPDATE "recordings_ieeg" SET "%[1]s" = NULL WHERE "%[1]s" = ?`, column)
	if _, err := r.a.store.Exec(ctx, "recordings_ieeg", "update", query, r.ref.ID); err != nil {
		return fmt.Errorf("failed to detach %s: %w", r.ref, err)
	}
	return nil
}
