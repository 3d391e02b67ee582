// Package store opens the run history database and applies its migrations.
package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/dmitrijs2005/raddo/internal/dbx"
	"github.com/dmitrijs2005/raddo/internal/migrations"
	"github.com/dmitrijs2005/raddo/internal/models"
	"github.com/dmitrijs2005/raddo/internal/repositories/runs"
)

// Store is the run history database.
type Store struct {
	db   *sql.DB
	Runs runs.Repository
}

// RunMigrations applies the embedded migrations to db.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, ".")
}

// Open opens or creates the database at path and migrates it.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// One writer at a time; sqlite serializes anyway.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, `PRAGMA foreign_keys = ON`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate %s: %w", path, err)
	}

	return &Store{db: db, Runs: runs.NewSQLiteRepository(db)}, nil
}

// Record saves a run and its files in one transaction.
func (s *Store) Record(ctx context.Context, run *models.Run, files []*models.RunFile) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := runs.NewSQLiteRepository(tx)
		if err := repo.Create(ctx, run); err != nil {
			return err
		}
		return repo.AddFiles(ctx, files)
	})
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
