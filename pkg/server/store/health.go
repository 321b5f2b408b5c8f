package store

import "context"

// HealthStore reports whether the run history backend is reachable.
// /healthz answers 503 while it returns an error.
type HealthStore interface {
	CheckConnectivity(ctx context.Context) error
}
