package cache

import (
	"context"
	"time"
)

// NullCache drops every artifact: Get always misses and Set is a no-op.
// It stands in for a real backend when caching is disabled through config
// or --no-cache, so callers never branch on a missing cache.
type NullCache struct{}

// NewNullCache creates the disabled-cache stand-in.
func NewNullCache() Cache {
	return NullCache{}
}

// Get always misses.
func (NullCache) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, nil
}

// Set discards the artifact.
func (NullCache) Set(context.Context, string, []byte, time.Duration) error {
	return nil
}

// Delete is a no-op.
func (NullCache) Delete(context.Context, string) error {
	return nil
}

// Close is a no-op.
func (NullCache) Close() error {
	return nil
}

var _ Cache = NullCache{}
