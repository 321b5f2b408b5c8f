package media

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCSSigner signs objects with V4 signatures using Cloud Storage
type GCSSigner struct {
	client *storage.Client
	// googleAccessID is the signing service account. When empty the
	// storage library detects it from the ambient credentials.
	googleAccessID string
}

// NewGCSSigner creates a signer backed by a storage client using application
// default credentials
func NewGCSSigner(ctx context.Context, serviceAccountEmail string, opts ...option.ClientOption) (*GCSSigner, error) {
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("new storage client: %w", err)
	}
	return &GCSSigner{client: client, googleAccessID: serviceAccountEmail}, nil
}

// SignedURL implements Signer
func (g *GCSSigner) SignedURL(_ context.Context, bucket, object string, expires time.Time) (string, error) {
	opts := &storage.SignedURLOptions{
		Scheme:         storage.SigningSchemeV4,
		Method:         "GET",
		Expires:        expires,
		GoogleAccessID: g.googleAccessID,
	}
	signed, err := g.client.Bucket(bucket).SignedURL(object, opts)
	if err != nil {
		return "", fmt.Errorf("SignedURL(%q/%q): %w", bucket, object, err)
	}
	return signed, nil
}

// Close releases the storage client
func (g *GCSSigner) Close() error {
	return g.client.Close()
}

// PublicSigner returns unsigned storage.googleapis.com URLs. It only works
// for publicly readable buckets and needs no credentials.
type PublicSigner struct{}

// SignedURL implements Signer
func (PublicSigner) SignedURL(_ context.Context, bucket, object string, _ time.Time) (string, error) {
	return (&url.URL{
		Scheme: "https",
		Host:   "storage.googleapis.com",
		Path:   "/" + bucket + "/" + object,
	}).String(), nil
}
