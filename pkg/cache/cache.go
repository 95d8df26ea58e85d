// Package cache provides response caching for GitHub API traffic.
//
// The build walks every curated repository on each run, but repository
// metadata and release listings change slowly. Caching responses between
// runs keeps repeated builds fast and cheap on API quota. Three backends
// are provided: FileCache for CLI usage, RedisCache for shared server
// deployments, and NullCache to disable caching entirely.
package cache

import (
	"context"
	"time"
)

// Cache stores raw response bytes keyed by string, with optional TTL.
type Cache interface {
	// Get retrieves a value. The second return reports whether the key
	// was present and unexpired.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value. A ttl of zero means the entry never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the cache.
	Close() error
}
