package secrets

import (
	"context"
	"fmt"
	"os"
)

// EnvSource reads secrets from environment variables of the same name
type EnvSource struct {
	// Lookup defaults to os.LookupEnv
	Lookup func(string) (string, bool)
}

// Access implements Source
func (e EnvSource) Access(_ context.Context, id string) (string, error) {
	lookup := e.Lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}
	v, ok := lookup(id)
	if !ok || v == "" {
		return "", fmt.Errorf("%w: %s", ErrSecretNotFound, id)
	}
	return v, nil
}
