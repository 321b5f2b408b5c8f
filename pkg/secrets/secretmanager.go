package secrets

import (
	"context"
	"fmt"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// SecretManagerSource reads the latest version of each secret from Google
// Secret Manager
type SecretManagerSource struct {
	client    *secretmanager.Client
	projectID string
}

// NewSecretManagerSource connects to Secret Manager with application default
// credentials
func NewSecretManagerSource(ctx context.Context, projectID string, opts ...option.ClientOption) (*SecretManagerSource, error) {
	client, err := secretmanager.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("secret manager connection error: %w", err)
	}
	return &SecretManagerSource{client: client, projectID: projectID}, nil
}

// VersionName returns the resource name of the latest version of id
func VersionName(projectID, id string) string {
	return fmt.Sprintf("projects/%s/secrets/%s/versions/latest", projectID, id)
}

// Access implements Source
func (s *SecretManagerSource) Access(ctx context.Context, id string) (string, error) {
	resp, err := s.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: VersionName(s.projectID, id),
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return "", fmt.Errorf("%w: %s", ErrSecretNotFound, id)
		}
		return "", err
	}
	return string(resp.GetPayload().GetData()), nil
}

// Close releases the client connection
func (s *SecretManagerSource) Close() error {
	return s.client.Close()
}
