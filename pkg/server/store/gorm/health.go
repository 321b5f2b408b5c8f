package gorm

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/doodlesbykumbi/pawguardian/pkg/server/store"
)

// healthCheckTimeout bounds a single connectivity probe so /healthz answers
// even when the database hangs
const healthCheckTimeout = 2 * time.Second

var _ store.HealthStore = (*HealthStore)(nil)

// HealthStore probes the run history database
type HealthStore struct {
	db *gorm.DB
}

// NewHealthStore creates a new HealthStore
func NewHealthStore(db *gorm.DB) *HealthStore {
	return &HealthStore{db: db}
}

// CheckConnectivity runs a trivial query against the database
func (s *HealthStore) CheckConnectivity(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()
	return s.db.WithContext(ctx).Exec("SELECT 1").Error
}
