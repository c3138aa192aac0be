// Package httputil provides HTTP utilities for explorer API clients.
//
// # Overview
//
// This package provides infrastructure shared by the snapshot source and
// location lookup clients:
//
//   - [Cache]: File-based HTTP response caching
//   - [RetryWithBackoff]: Automatic retry with exponential backoff
//
// # Caching
//
// [Cache] stores HTTP responses in the filesystem (~/.cache/graphport/)
// with configurable TTL. This dramatically speeds up repeated operations
// and reduces load on the upstream metadata service.
//
// Usage:
//
//	cache, err := httputil.NewCache("", 24*time.Hour)
//	ok, err := cache.Get("locate:data/orders", &loc)  // Check cache
//	if !ok {
//	    loc = fetchFromAPI()
//	    cache.Set("locate:data/orders", loc)          // Store for later
//	}
//
// Cache keys should be namespaced by client to avoid collisions.
//
// # Retry
//
// [RetryWithBackoff] wraps HTTP requests with automatic retry for
// transient failures:
//
//   - Network errors
//   - 5xx server errors
//   - 429 rate limit responses
//
// It uses exponential backoff to avoid thundering herd:
//
//	err := httputil.RetryWithBackoff(ctx, func() error {
//	    return fetch(url)
//	})
//
// # Configuration
//
// Default settings are suitable for most use cases:
//
//   - Cache directory: ~/.cache/graphport/
//   - Default TTL: 24 hours
//   - Max retries: 3
//   - Base backoff: 1 second
//
// The cache can be cleared via `graphport cache clear` or by deleting
// the cache directory.
package httputil
