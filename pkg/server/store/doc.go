// Package store provides storage abstractions for the PawGuardian server.
//
// This package defines interfaces for persistence, allowing endpoints and the
// monitor to be decoupled from the specific database implementation. A
// MemoryStore is used when DATABASE_URL is not set; the gorm subpackage
// provides the PostgreSQL implementation.
//
// # Available Stores
//
//   - RunsStore: Monitoring run history (save, fetch, list, count)
//   - HealthStore: Database connectivity checks
//
// # Usage
//
//	runs := gorm.NewRunsStore(db)
//	run, err := runs.FetchRun(ctx, id)
//	if err != nil {
//	    if errors.Is(err, store.ErrRunNotFound) {
//	        // Handle not found
//	    }
//	}
package store
