// Package locate resolves asset tokens to the view that defines them.
//
// When the user selects a node that is not part of the current graph
// snapshot (an external link into another view), the explorer asks a
// [Resolver] where that asset lives. A miss is not an error: the selection
// simply stays unchanged.
package locate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/graphport/graphport/pkg/httputil"
	"github.com/graphport/graphport/pkg/observability"
)

// Location identifies where an asset is defined.
type Location struct {
	ViewID string `json:"view_id"`
	Token  string `json:"token"`
}

// Resolver looks up the location of an asset token.
type Resolver interface {
	// Resolve returns the location for token. The boolean reports whether a
	// location was found; a miss is not an error.
	Resolve(ctx context.Context, token string) (Location, bool, error)
}

// =============================================================================
// Static Resolver
// =============================================================================

// Static resolves tokens from a fixed in-memory table.
type Static map[string]Location

// Resolve implements [Resolver].
func (s Static) Resolve(ctx context.Context, token string) (Location, bool, error) {
	loc, ok := s[token]
	return loc, ok, nil
}

var _ Resolver = Static(nil)

// =============================================================================
// HTTP Resolver
// =============================================================================

// HTTP resolves tokens against a graphport API server
// (GET {base}/api/locate?token=...). A 404 response is a miss.
type HTTP struct {
	base   string
	client *http.Client
}

// NewHTTP creates an HTTP resolver for the given base URL.
// A nil client uses a default with a 10 second timeout.
func NewHTTP(base string, client *http.Client) *HTTP {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTP{base: base, client: client}
}

// Resolve implements [Resolver]. Transient failures (network errors, 5xx)
// are retried with backoff before giving up.
func (h *HTTP) Resolve(ctx context.Context, token string) (Location, bool, error) {
	u := h.base + "/api/locate?token=" + url.QueryEscape(token)

	var loc Location
	var found bool
	err := httputil.RetryWithBackoff(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return err
		}

		observability.HTTP().OnRequest(ctx, req.Method, req.URL.Host, req.URL.Path)
		start := time.Now()
		resp, err := h.client.Do(req)
		if err != nil {
			observability.HTTP().OnError(ctx, req.Method, req.URL.Host, req.URL.Path, err)
			return &httputil.RetryableError{Err: err}
		}
		defer resp.Body.Close()
		observability.HTTP().OnResponse(ctx, req.Method, req.URL.Host, req.URL.Path,
			resp.StatusCode, time.Since(start))

		switch {
		case resp.StatusCode == http.StatusNotFound:
			found = false
			return nil
		case resp.StatusCode >= 500:
			return &httputil.RetryableError{Err: fmt.Errorf("locate: server returned %d", resp.StatusCode)}
		case resp.StatusCode != http.StatusOK:
			return fmt.Errorf("locate: unexpected status %d", resp.StatusCode)
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return &httputil.RetryableError{Err: err}
		}
		if err := json.Unmarshal(body, &loc); err != nil {
			return fmt.Errorf("locate: parse response: %w", err)
		}
		found = true
		return nil
	})
	if err != nil {
		return Location{}, false, err
	}
	return loc, found, nil
}

var _ Resolver = (*HTTP)(nil)

// =============================================================================
// Cached Resolver
// =============================================================================

// Cached wraps a Resolver with a file-based cache. Asset locations change
// only on redeployment, so hits are safe to reuse for the cache TTL.
// Misses are not cached: the asset may appear in a later deployment.
type Cached struct {
	inner Resolver
	cache *httputil.Cache
}

// NewCached wraps inner with the given cache. Keys are namespaced under
// "locate:" so the cache directory can be shared with other clients.
func NewCached(inner Resolver, c *httputil.Cache) *Cached {
	return &Cached{inner: inner, cache: c.Namespace("locate:")}
}

// Resolve implements [Resolver]. Expired or unreadable entries fall
// through to the inner resolver.
func (c *Cached) Resolve(ctx context.Context, token string) (Location, bool, error) {
	var loc Location
	if ok, err := c.cache.Get(token, &loc); ok && err == nil {
		return loc, true, nil
	}

	loc, found, err := c.inner.Resolve(ctx, token)
	if err != nil || !found {
		return Location{}, found, err
	}
	// A failed cache write only costs a refetch next time.
	_ = c.cache.Set(token, loc)
	return loc, true, nil
}

var _ Resolver = (*Cached)(nil)
