// Package media produces short-lived URLs for the surveillance videos so the
// dashboard can play them without making the bucket public.
package media

import (
	"context"
	"fmt"
	"time"

	"github.com/erni27/imcache"

	"github.com/doodlesbykumbi/pawguardian/pkg/scenario"
)

// Signer generates a signed GET URL for an object
type Signer interface {
	SignedURL(ctx context.Context, bucket, object string, expires time.Time) (string, error)
}

// CachingSigner signs gs:// URIs and reuses a URL until it expires
type CachingSigner struct {
	signer Signer
	ttl    time.Duration
	now    func() time.Time
	cache  *imcache.Cache[string, string]
}

// NewCachingSigner wraps signer. URLs are valid, and cached, for ttl.
func NewCachingSigner(signer Signer, ttl time.Duration) *CachingSigner {
	return &CachingSigner{
		signer: signer,
		ttl:    ttl,
		now:    time.Now,
		cache:  imcache.New[string, string](),
	}
}

// URLFor returns a signed URL for a gs://bucket/object URI
func (c *CachingSigner) URLFor(ctx context.Context, uri string) (string, error) {
	if url, ok := c.cache.Get(uri); ok {
		return url, nil
	}

	bucket, object, err := scenario.ParseGCSURI(uri)
	if err != nil {
		return "", err
	}

	url, err := c.signer.SignedURL(ctx, bucket, object, c.now().Add(c.ttl))
	if err != nil {
		return "", fmt.Errorf("video signing error: %w", err)
	}

	// Expire the cache entry a little before the URL so a cached URL is
	// never handed out with only seconds left.
	c.cache.Set(uri, url, imcache.WithExpiration(cacheLifetime(c.ttl)))
	return url, nil
}

// Purge empties the cache
func (c *CachingSigner) Purge() {
	c.cache.RemoveAll()
}

func cacheLifetime(ttl time.Duration) time.Duration {
	margin := ttl / 10
	if margin > time.Minute {
		margin = time.Minute
	}
	return ttl - margin
}
