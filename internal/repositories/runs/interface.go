// Package runs persists the run history.
package runs

import (
	"context"

	"github.com/dmitrijs2005/raddo/internal/models"
)

// Repository stores runs and their per-file outcomes.
type Repository interface {
	// Create inserts a run.
	Create(ctx context.Context, run *models.Run) error

	// AddFiles inserts the per-file outcomes of a run.
	AddFiles(ctx context.Context, files []*models.RunFile) error

	// Get returns a run by ID, or common.ErrorNotFound.
	Get(ctx context.Context, id string) (*models.Run, error)

	// List returns the most recent runs first, at most limit of them.
	List(ctx context.Context, limit int) ([]*models.Run, error)

	// Files returns the outcomes of a run in processing order.
	Files(ctx context.Context, runID string) ([]*models.RunFile, error)
}
