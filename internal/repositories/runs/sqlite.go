package runs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/raddo/internal/common"
	"github.com/dmitrijs2005/raddo/internal/dbx"
	"github.com/dmitrijs2005/raddo/internal/models"
)

const dayLayout = "2006-01-02"

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Create(ctx context.Context, run *models.Run) error {

	query := `INSERT INTO runs (id, started_at, finished_at, range_start, range_end, root, known_from,
			expected, missing, succeeded, covered, failed, bytes, legacy_data, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		run.ID, run.StartedAt.UnixMilli(), run.FinishedAt.UnixMilli(),
		run.RangeStart.Format(dayLayout), run.RangeEnd.Format(dayLayout),
		run.Root, run.KnownFrom,
		run.Expected, run.Missing, run.Succeeded, run.Covered, run.Failed, run.Bytes,
		run.LegacyData, run.Error)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	return nil
}

func (r *SQLiteRepository) AddFiles(ctx context.Context, files []*models.RunFile) error {

	query := `INSERT INTO run_files (run_id, seq, name, archive, state, source, attempts, bytes, error, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	for _, f := range files {
		_, err := r.db.ExecContext(ctx, query,
			f.RunID, f.Seq, f.Name, f.Archive, f.State, f.Source, f.Attempts, f.Bytes, f.Error, f.Duration.Milliseconds())
		if err != nil {
			return fmt.Errorf("failed to insert run file %s: %w", f.Name, err)
		}
	}

	return nil
}

const runColumns = `id, started_at, finished_at, range_start, range_end, root, known_from,
	expected, missing, succeeded, covered, failed, bytes, legacy_data, error`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*models.Run, error) {
	var (
		run                  models.Run
		started, finished    int64
		rangeStart, rangeEnd string
	)
	err := s.Scan(&run.ID, &started, &finished, &rangeStart, &rangeEnd, &run.Root, &run.KnownFrom,
		&run.Expected, &run.Missing, &run.Succeeded, &run.Covered, &run.Failed, &run.Bytes,
		&run.LegacyData, &run.Error)
	if err != nil {
		return nil, err
	}

	run.StartedAt = time.UnixMilli(started).UTC()
	run.FinishedAt = time.UnixMilli(finished).UTC()
	if run.RangeStart, err = time.Parse(dayLayout, rangeStart); err != nil {
		return nil, fmt.Errorf("range start: %w", err)
	}
	if run.RangeEnd, err = time.Parse(dayLayout, rangeEnd); err != nil {
		return nil, fmt.Errorf("range end: %w", err)
	}
	return &run, nil
}

func (r *SQLiteRepository) Get(ctx context.Context, id string) (*models.Run, error) {

	row := r.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	return run, nil
}

func (r *SQLiteRepository) List(ctx context.Context, limit int) ([]*models.Run, error) {

	if limit <= 0 {
		limit = -1
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs ORDER BY started_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("error selecting runs: %w", err)
	}
	defer rows.Close()

	var result []*models.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, run)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *SQLiteRepository) Files(ctx context.Context, runID string) ([]*models.RunFile, error) {

	query := `SELECT run_id, seq, name, archive, state, source, attempts, bytes, error, duration_ms
		FROM run_files WHERE run_id = ? ORDER BY seq`
	rows, err := r.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("error selecting run files: %w", err)
	}
	defer rows.Close()

	var result []*models.RunFile
	for rows.Next() {
		var (
			f  models.RunFile
			ms int64
		)
		err := rows.Scan(&f.RunID, &f.Seq, &f.Name, &f.Archive, &f.State, &f.Source, &f.Attempts, &f.Bytes, &f.Error, &ms)
		if err != nil {
			return nil, err
		}
		f.Duration = time.Duration(ms) * time.Millisecond
		result = append(result, &f)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}
