// Package cache provides caching for expensive explorer artifacts.
//
// Two artifact families flow through it: graph snapshots fetched from a
// source provider, and completed layout results. Both are stored as opaque
// bytes under string keys, so backends stay interchangeable.
//
// # Architecture
//
// The package separates two concerns:
//
//   - Cache: storage backends (file-based, null, or external stores).
//   - Keyer: key generation strategies, so callers never concatenate key
//     strings by hand.
//
// Layout keys fold in everything that changes the geometry: the snapshot
// fingerprint, the expanded-group set, and the engine. Two passes over the
// same graph with different groups expanded therefore never collide.
package cache

import (
	"context"
	"sort"
	"time"
)

// Cache is the interface for cache backends.
type Cache interface {
	// Get retrieves a value. Returns (data, true, nil) on hit and
	// (nil, false, nil) on miss; errors are reserved for backend failures.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value with a TTL. A zero TTL means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// LayoutKeyOpts captures the inputs that affect computed geometry.
type LayoutKeyOpts struct {
	// Engine is the layout engine name (e.g. "dot").
	Engine string

	// Expanded is the set of expanded group IDs. Order does not matter;
	// the keyer canonicalizes it.
	Expanded []string
}

// Keyer generates cache keys for the explorer's artifact families.
type Keyer interface {
	// SnapshotKey generates a key for a fetched graph snapshot.
	SnapshotKey(viewID, fingerprint string) string

	// LayoutKey generates a key for a layout result.
	LayoutKey(graphHash string, opts LayoutKeyOpts) string

	// HTTPKey generates a key for HTTP response caching.
	HTTPKey(namespace, key string) string
}

// DefaultKeyer is the standard key generation strategy.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// SnapshotKey generates a key for a fetched graph snapshot.
func (k *DefaultKeyer) SnapshotKey(viewID, fingerprint string) string {
	return hashKey("snapshot", viewID, fingerprint)
}

// LayoutKey generates a key for a layout result. The expanded set is
// sorted before hashing so callers need not canonicalize.
func (k *DefaultKeyer) LayoutKey(graphHash string, opts LayoutKeyOpts) string {
	expanded := append([]string(nil), opts.Expanded...)
	sort.Strings(expanded)
	return hashKey("layout", graphHash, opts.Engine, expanded)
}

// HTTPKey generates a key for HTTP response caching.
func (k *DefaultKeyer) HTTPKey(namespace, key string) string {
	return "http:" + namespace + ":" + key
}

// Ensure DefaultKeyer implements Keyer.
var _ Keyer = (*DefaultKeyer)(nil)
