package store

import (
	"context"
	"errors"

	"github.com/doodlesbykumbi/pawguardian/pkg/model"
)

// ErrRunNotFound is returned when a run doesn't exist
var ErrRunNotFound = errors.New("run not found")

// RunsStore abstracts monitoring run persistence
type RunsStore interface {
	// SaveRun inserts or replaces a run together with its actions.
	SaveRun(ctx context.Context, run *model.Run) error

	// FetchRun retrieves a run and its actions ordered by sequence.
	// Returns ErrRunNotFound if the run doesn't exist.
	FetchRun(ctx context.Context, id string) (*model.Run, error)

	// ListRuns returns runs newest first, without their actions.
	ListRuns(ctx context.Context, limit, offset int) ([]model.Run, error)

	// CountRuns returns the number of stored runs.
	CountRuns(ctx context.Context) (int64, error)
}
