package media

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"cloud.google.com/go/storage"
	"golang.org/x/oauth2/google"
)

// ErrNoServiceAccount is returned when the ambient credentials carry no
// client email, e.g. user credentials from gcloud.
var ErrNoServiceAccount = errors.New("credentials do not name a service account")

// DetectServiceAccount returns the client email of the application default
// credentials. On GCE and Cloud Run the credentials JSON is empty and the
// storage library resolves the signer itself, so callers may ignore the error.
func DetectServiceAccount(ctx context.Context) (string, error) {
	creds, err := google.FindDefaultCredentials(ctx, storage.ScopeReadOnly)
	if err != nil {
		return "", fmt.Errorf("find default credentials: %w", err)
	}
	return clientEmail(creds.JSON)
}

func clientEmail(data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrNoServiceAccount
	}
	var key struct {
		Type        string `json:"type"`
		ClientEmail string `json:"client_email"`
	}
	if err := json.Unmarshal(data, &key); err != nil {
		return "", fmt.Errorf("parse credentials: %w", err)
	}
	if key.ClientEmail == "" {
		return "", ErrNoServiceAccount
	}
	return key.ClientEmail, nil
}
