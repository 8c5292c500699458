package verifier

import (
	"context"
	"fmt"
	"time"

	"github.com/allegro/bigcache/v3"
)

// DefaultConfirmationTTL is how long a positive chain confirmation is reused.
const DefaultConfirmationTTL = 10 * time.Minute

// NewConfirmationCache creates a cache for WithConfirmationCache. Entries
// expire after ttl; a non-positive ttl selects DefaultConfirmationTTL.
func NewConfirmationCache(ctx context.Context, ttl time.Duration) (*bigcache.BigCache, error) {
	if ttl <= 0 {
		ttl = DefaultConfirmationTTL
	}
	cfg := bigcache.DefaultConfig(ttl)
	cfg.Shards = 16
	cfg.MaxEntrySize = 8
	cfg.HardMaxCacheSize = 8 // megabytes
	cfg.Verbose = false
	cache, err := bigcache.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("verifier: create confirmation cache: %w", err)
	}
	return cache, nil
}
