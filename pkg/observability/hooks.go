// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers can register hooks at startup
// to receive events about selection changes, layout passes, cache operations,
// and outgoing HTTP calls.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// This approach:
//   - Avoids import cycles (hooks are registered by main, not by libraries)
//   - Keeps the core library dependency-free from observability frameworks
//   - Allows different backends (OpenTelemetry, Prometheus, DataDog, etc.)
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetExplorerHooks(&myExplorerHooks{})
//	    observability.SetLayoutHooks(&myLayoutHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Explorer().OnSelectionChanged(ctx, viewID, tokens, intent)
package observability

import (
	"context"
	"sync"
	"time"
)

// Selection-changed intents reported by explorer hooks.
const (
	// IntentReplace means the selection was replaced wholesale.
	IntentReplace = "replace"

	// IntentIncremental means tokens were added to or removed from the
	// existing selection.
	IntentIncremental = "incremental"
)

// =============================================================================
// Explorer Hooks
// =============================================================================

// ExplorerHooks receives events from selection and grouping operations.
// These are the upward-facing notifications a host view consumes to keep its
// externally visible state (current path, query string) in sync.
type ExplorerHooks interface {
	// OnSelectionChanged reports the new token sequence after a mutation.
	// Intent is IntentReplace or IntentIncremental.
	OnSelectionChanged(ctx context.Context, viewID string, tokens []string, intent string)

	// OnGroupFilterRequested reports a request to narrow the host view to
	// one group.
	OnGroupFilterRequested(ctx context.Context, viewID, groupID string)

	// OnLocationFound reports that a clicked off-graph token resolved to a
	// location in another view. The host is expected to navigate.
	OnLocationFound(ctx context.Context, token, targetViewID string)
}

// =============================================================================
// Layout Hooks
// =============================================================================

// LayoutHooks receives events from the asynchronous layout coordinator.
type LayoutHooks interface {
	// OnLayoutRequested records a new layout request.
	OnLayoutRequested(ctx context.Context, seq uint64, nodeCount int)

	// OnLayoutApplied records a completed layout whose result was applied.
	OnLayoutApplied(ctx context.Context, seq uint64, duration time.Duration)

	// OnLayoutSuperseded records a layout whose result arrived after a newer
	// request and was discarded.
	OnLayoutSuperseded(ctx context.Context, seq uint64)

	// OnLayoutFailed records a layout request that returned an error.
	OnLayoutFailed(ctx context.Context, seq uint64, err error)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from HTTP client operations.
type HTTPHooks interface {
	// OnRequest records an outgoing HTTP request.
	OnRequest(ctx context.Context, method, host, path string)

	// OnResponse records an HTTP response.
	OnResponse(ctx context.Context, method, host, path string, statusCode int, duration time.Duration)

	// OnError records an HTTP error (network failure, timeout).
	OnError(ctx context.Context, method, host, path string, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopExplorerHooks is a no-op implementation of ExplorerHooks.
type NoopExplorerHooks struct{}

func (NoopExplorerHooks) OnSelectionChanged(context.Context, string, []string, string) {}
func (NoopExplorerHooks) OnGroupFilterRequested(context.Context, string, string)       {}
func (NoopExplorerHooks) OnLocationFound(context.Context, string, string)              {}

// NoopLayoutHooks is a no-op implementation of LayoutHooks.
type NoopLayoutHooks struct{}

func (NoopLayoutHooks) OnLayoutRequested(context.Context, uint64, int)         {}
func (NoopLayoutHooks) OnLayoutApplied(context.Context, uint64, time.Duration) {}
func (NoopLayoutHooks) OnLayoutSuperseded(context.Context, uint64)             {}
func (NoopLayoutHooks) OnLayoutFailed(context.Context, uint64, error)          {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, string, int, time.Duration) {}
func (NoopHTTPHooks) OnError(context.Context, string, string, string, error)                 {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	explorerHooks ExplorerHooks = NoopExplorerHooks{}
	layoutHooks   LayoutHooks   = NoopLayoutHooks{}
	cacheHooks    CacheHooks    = NoopCacheHooks{}
	httpHooks     HTTPHooks     = NoopHTTPHooks{}
	hooksMu       sync.RWMutex
)

// SetExplorerHooks registers custom explorer hooks.
// This should be called once at application startup before any explorer operations.
func SetExplorerHooks(h ExplorerHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		explorerHooks = h
	}
}

// SetLayoutHooks registers custom layout hooks.
// This should be called once at application startup before any layout operations.
func SetLayoutHooks(h LayoutHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		layoutHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
// This should be called once at application startup before any cache operations.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetHTTPHooks registers custom HTTP hooks.
// This should be called once at application startup before any HTTP operations.
func SetHTTPHooks(h HTTPHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		httpHooks = h
	}
}

// Explorer returns the registered explorer hooks.
func Explorer() ExplorerHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return explorerHooks
}

// Layout returns the registered layout hooks.
func Layout() LayoutHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return layoutHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return httpHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	explorerHooks = NoopExplorerHooks{}
	layoutHooks = NoopLayoutHooks{}
	cacheHooks = NoopCacheHooks{}
	httpHooks = NoopHTTPHooks{}
}
