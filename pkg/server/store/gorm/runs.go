package gorm

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/doodlesbykumbi/pawguardian/pkg/model"
	"github.com/doodlesbykumbi/pawguardian/pkg/server/store"
)

// Ensure RunsStore implements store.RunsStore
var _ store.RunsStore = (*RunsStore)(nil)

// RunsStore implements store.RunsStore using GORM
type RunsStore struct {
	db *gorm.DB
}

// NewRunsStore creates a new RunsStore
func NewRunsStore(db *gorm.DB) *RunsStore {
	return &RunsStore{db: db}
}

// SaveRun upserts the run row and replaces its actions in one transaction.
func (s *RunsStore) SaveRun(ctx context.Context, run *model.Run) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Omit(clause.Associations).
			Clauses(clause.OnConflict{UpdateAll: true}).
			Create(run).Error
		if err != nil {
			return err
		}

		if err := tx.Where("run_id = ?", run.ID).Delete(&model.Action{}).Error; err != nil {
			return err
		}

		if len(run.Actions) == 0 {
			return nil
		}
		for i := range run.Actions {
			run.Actions[i].RunID = run.ID
		}
		return tx.Create(&run.Actions).Error
	})
}

// FetchRun retrieves a run and its actions.
func (s *RunsStore) FetchRun(ctx context.Context, id string) (*model.Run, error) {
	var run model.Run
	tx := s.db.WithContext(ctx).
		Preload("Actions", func(db *gorm.DB) *gorm.DB {
			return db.Order("seq asc")
		}).
		Where("id = ?", id).
		First(&run)
	if tx.Error != nil {
		if errors.Is(tx.Error, gorm.ErrRecordNotFound) {
			return nil, store.ErrRunNotFound
		}
		return nil, tx.Error
	}
	return &run, nil
}

// ListRuns returns runs newest first.
func (s *RunsStore) ListRuns(ctx context.Context, limit, offset int) ([]model.Run, error) {
	var runs []model.Run
	q := s.db.WithContext(ctx).Order("started_at desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}
	if err := q.Find(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}

// CountRuns returns the number of stored runs.
func (s *RunsStore) CountRuns(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.Run{}).Count(&count).Error
	return count, err
}
