package archive

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/example/aspen/internal/core/guards"
	"github.com/example/aspen/internal/errs"
)

// File is a path on disk registered in the archive.
type File struct {
	Record
}

// Path returns the absolute path.
func (f File) Path(ctx context.Context) (string, error) { return f.text(ctx, "path") }

// Format returns the file format tag.
func (f File) Format(ctx context.Context) (string, error) { return f.text(ctx, "format") }

// fileKinds are the entity kinds that can have files linked to them.
var fileKinds = []Kind{KindSubject, KindSession, KindRun, KindRecording, KindProtocol}

// fileLinks returns the join table and key column linking files to the record.
func (r Record) fileLinks() (table, column string, err error) {
	for _, k := range fileKinds {
		if k == r.ref.Kind {
			t, err := r.a.mainTable(k)
			if err != nil {
				return "", "", err
			}
			return t.Name + "_files", string(k) + "_id", nil
		}
	}
	return "", "", &errs.ConfigError{Reason: fmt.Sprintf("%s entities have no files", r.ref.Kind)}
}

// AddFile links the file at path to the entity, registering the path first
// when it is new. A known path can only be linked with its registered format.
func (r Record) AddFile(ctx context.Context, format, path string) (File, error) {
	table, column, err := r.fileLinks()
	if err != nil {
		return File{}, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return File{}, fmt.Errorf("failed to resolve %s: %w", path, err)
	}

	var f File
	err = r.a.Transact(ctx, func(ctx context.Context) error {
		existing, found, err := r.a.fileByPath(ctx, abs)
		if err != nil {
			return err
		}
		var existingFormat string
		if found {
			if existingFormat, err = existing.Format(ctx); err != nil {
				return err
			}
		}
		check := guards.CanAddFile(guards.FileContext{Path: abs, Format: format, Exists: found, ExistingFormat: existingFormat})
		if err := check.Error(); err != nil {
			return err
		}

		if found {
			f = existing
		} else {
			rec, err := r.a.create(ctx, KindFile, "", 0, attr{"format", format}, attr{"path", abs})
			if err != nil {
				return err
			}
			f = File{Record: rec}
		}

		n, err := r.a.store.Count(ctx, table, map[string]any{column: r.ref.ID, "file_id": f.ref.ID})
		if err != nil || n > 0 {
			return err
		}
		return r.a.store.InsertRow(ctx, table, []string{column, "file_id"}, []any{r.ref.ID, f.ref.ID})
	})
	if err != nil {
		return File{}, err
	}
	return f, nil
}

// ListFiles returns the files linked to the entity, ordered by path.
func (r Record) ListFiles(ctx context.Context) ([]File, error) {
	table, column, err := r.fileLinks()
	if err != nil {
		return nil, err
	}
	ids, err := r.a.store.IDs(ctx, table, fmt.Sprintf(`SELECT "files"."id" FROM "files"
		JOIN "%s" ON "%s"."file_id" = "files"."id"
		WHERE "%s"."%s" = ? ORDER BY "files"."path"`, table, table, table, column), r.ref.ID)
	if err != nil {
		return nil, err
	}
	files := make([]File, len(ids))
	for i, id := range ids {
		files[i] = File{Record: r.a.record(KindFile, id)}
	}
	return files, nil
}

// DeleteFile unlinks the file from the entity. The file stays registered;
// SweepOrphanFiles removes files that no entity links to.
func (r Record) DeleteFile(ctx context.Context, f File) error {
	table, column, err := r.fileLinks()
	if err != nil {
		return err
	}
	_, err = r.a.store.Delete(ctx, table, map[string]any{column: r.ref.ID, "file_id": f.ref.ID})
	return err
}

func (a *Archive) fileByPath(ctx context.Context, path string) (File, bool, error) {
	ids, err := a.store.IDs(ctx, "files", `SELECT "id" FROM "files" WHERE "path" = ?`, path)
	if err != nil || len(ids) == 0 {
		return File{}, false, err
	}
	return File{Record: a.record(KindFile, ids[0])}, true, nil
}

// FindFile returns the file registered at path.
func (a *Archive) FindFile(ctx context.Context, path string) (File, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return File{}, fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	f, found, err := a.fileByPath(ctx, abs)
	if err != nil {
		return File{}, err
	}
	if !found {
		return File{}, errs.NotFound(string(KindFile), "path", abs)
	}
	return f, nil
}

// SweepOrphanFiles deletes every registered file that no entity links to and
// returns how many were removed.
func (a *Archive) SweepOrphanFiles(ctx context.Context) (int64, error) {
	var linked []string
	for _, k := range fileKinds {
		t, err := a.mainTable(k)
		if err != nil {
			return 0, err
		}
		linked = append(linked, fmt.Sprintf(`SELECT "file_id" FROM "%s_files"`, t.Name))
	}
	query := `DELETE FROM "files" WHERE "id" NOT IN (` + strings.Join(linked, " UNION ") + `)`
	result, err := a.store.Exec(ctx, "files", "delete", query)
	if err != nil {
		return 0, fmt.Errorf("failed to sweep files: %w", err)
	}
	n, _ := result.RowsAffected()
	return n, nil
}
