package db

import (
	"context"
	"database/sql"
	"fmt"
)

// SeedFixtures populates the database with a small demonstration archive:
// two subjects, an implantation session with a motor run and its ieeg
// recording, and an MRI session with anatomical scans.
func SeedFixtures(ctx context.Context, database *sql.DB, d Dialect) error {
	tx, err := database.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	defer tx.Rollback()

	insert := func(query string, args ...any) (int64, error) {
		var id int64
		err := tx.QueryRowContext(ctx, d.Rebind(query+` RETURNING "id"`), args...).Scan(&id)
		return id, err
	}
	exec := func(query string, args ...any) error {
		_, err := tx.ExecContext(ctx, d.Rebind(query), args...)
		return err
	}

	subjects := []struct {
		code string
		sex  string
	}{
		{"alpha", "female"},
		{"beta", "male"},
	}
	subjectIDs := make([]int64, 0, len(subjects))
	for _, s := range subjects {
		id, err := insert(`INSERT INTO subjects ("sex") VALUES (?)`, s.sex)
		if err != nil {
			return fmt.Errorf("seed subjects: %w", err)
		}
		if err := exec(`INSERT INTO subject_codes ("subject_id", "code") VALUES (?, ?)`, id, s.code); err != nil {
			return fmt.Errorf("seed subject codes: %w", err)
		}
		subjectIDs = append(subjectIDs, id)
	}

	iemu, err := insert(`INSERT INTO sessions ("subject_id", "name") VALUES (?, ?)`, subjectIDs[0], "IEMU")
	if err != nil {
		return fmt.Errorf("seed sessions: %w", err)
	}
	if err := exec(`INSERT INTO sessions_iemu ("session_id", "date_of_implantation") VALUES (?, ?)`, iemu, "2023-06-01"); err != nil {
		return fmt.Errorf("seed sessions_iemu: %w", err)
	}

	motor, err := insert(`INSERT INTO runs ("session_id", "task_name", "start_time", "end_time", "duration") VALUES (?, ?, ?, ?, ?)`,
		iemu, "motor", "2023-06-02T10:00:00", "2023-06-02T10:05:00", 300.0)
	if err != nil {
		return fmt.Errorf("seed runs: %w", err)
	}
	if err := exec(`INSERT INTO runs_motor ("run_id", "body_part", "left_right") VALUES (?, ?, ?)`, motor, "hand", "left"); err != nil {
		return fmt.Errorf("seed runs_motor: %w", err)
	}
	if _, err := insert(`INSERT INTO recordings ("run_id", "modality") VALUES (?, ?)`, motor, "ieeg"); err != nil {
		return fmt.Errorf("seed recordings: %w", err)
	}

	mri, err := insert(`INSERT INTO sessions ("subject_id", "name") VALUES (?, ?)`, subjectIDs[1], "MRI")
	if err != nil {
		return fmt.Errorf("seed sessions: %w", err)
	}
	if err := exec(`INSERT INTO sessions_mri ("session_id", "MagneticFieldStrength") VALUES (?, ?)`, mri, "3T"); err != nil {
		return fmt.Errorf("seed sessions_mri: %w", err)
	}

	scans := []struct{ task, start, modality string }{
		{"t1_anatomy_scan", "2023-01-10T09:00:00", "T1w"},
		{"top_up", "2023-01-10T09:20:00", "epi"},
	}
	var runIDs []int64
	for _, s := range scans {
		id, err := insert(`INSERT INTO runs ("session_id", "task_name", "start_time") VALUES (?, ?, ?)`, mri, s.task, s.start)
		if err != nil {
			return fmt.Errorf("seed runs: %w", err)
		}
		if _, err := insert(`INSERT INTO recordings ("run_id", "modality") VALUES (?, ?)`, id, s.modality); err != nil {
			return fmt.Errorf("seed recordings: %w", err)
		}
		runIDs = append(runIDs, id)
	}
	if err := exec(`INSERT INTO intended_for ("run_id", "target_id") VALUES (?, ?)`, runIDs[1], runIDs[0]); err != nil {
		return fmt.Errorf("seed intended_for: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	return nil
}
