// Package cache stores raw stats provider responses so repeated runs over the
// same seasons do not hit the provider again.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with per-entry expiry.
type Cache interface {
	// Get returns the stored value and whether it was found.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores value under key for ttl. A non-positive ttl never expires.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Delete removes keys.
	Delete(ctx context.Context, keys ...string) error
	// Name identifies the backend in logs and metrics.
	Name() string
}

// ProviderKey builds the cache key of a provider request.
func ProviderKey(prefix, url string) string {
	return prefix + ":" + url
}
