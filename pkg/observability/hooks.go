// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers register hooks at startup to
// receive events about batch runs, icon resolution, and topology server calls.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// The Prometheus implementation lives in pkg/metrics and is registered by the
// CLI; libraries only ever talk to the interfaces below.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    m := metrics.New(prometheus.NewRegistry())
//	    observability.SetBatchHooks(m)
//	    observability.SetIconHooks(m)
//	    observability.SetHTTPHooks(m)
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Batch().OnJobStart(ctx, projectID)
//	// ... fetch, render, rasterize, write ...
//	observability.Batch().OnJobComplete(ctx, projectID, code, duration)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Batch Hooks
// =============================================================================

// BatchHooks receives events from the batch scheduler.
type BatchHooks interface {
	// Run events
	OnBatchStart(ctx context.Context, runID string, jobs, workers int)
	OnBatchComplete(ctx context.Context, runID string, succeeded, failed int, duration time.Duration)

	// Job events. code is empty for a successful job.
	OnJobStart(ctx context.Context, projectID string)
	OnJobComplete(ctx context.Context, projectID, code string, duration time.Duration)

	// OnStage records the duration of one job stage (fetch, render, rasterize, write).
	OnStage(ctx context.Context, stage string, duration time.Duration, err error)
}

// =============================================================================
// Icon Hooks
// =============================================================================

// IconHooks receives events from the icon cache.
type IconHooks interface {
	// OnIconHit records a lookup served from memory.
	OnIconHit(ctx context.Context)

	// OnIconShared records a caller that joined an in-flight fetch.
	OnIconShared(ctx context.Context)

	// OnIconFetch records one attempt against a single source tier.
	OnIconFetch(ctx context.Context, source string, duration time.Duration, err error)

	// OnIconUnavailable records a symbol that no source could provide.
	OnIconUnavailable(ctx context.Context)
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

// NoopBatchHooks is a no-op implementation of BatchHooks.
type NoopBatchHooks struct{}

func (NoopBatchHooks) OnBatchStart(context.Context, string, int, int)                   {}
func (NoopBatchHooks) OnBatchComplete(context.Context, string, int, int, time.Duration) {}
func (NoopBatchHooks) OnJobStart(context.Context, string)                               {}
func (NoopBatchHooks) OnJobComplete(context.Context, string, string, time.Duration)     {}
func (NoopBatchHooks) OnStage(context.Context, string, time.Duration, error)            {}

// NoopIconHooks is a no-op implementation of IconHooks.
type NoopIconHooks struct{}

func (NoopIconHooks) OnIconHit(context.Context)                                 {}
func (NoopIconHooks) OnIconShared(context.Context)                              {}
func (NoopIconHooks) OnIconFetch(context.Context, string, time.Duration, error) {}
func (NoopIconHooks) OnIconUnavailable(context.Context)                         {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, string, int, time.Duration) {}
func (NoopHTTPHooks) OnError(context.Context, string, string, string, error)                 {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	batchHooks BatchHooks = NoopBatchHooks{}
	iconHooks  IconHooks  = NoopIconHooks{}
	httpHooks  HTTPHooks  = NoopHTTPHooks{}
	hooksMu    sync.RWMutex
)

// SetBatchHooks registers custom batch hooks.
// This should be called once at application startup before any batch runs.
func SetBatchHooks(h BatchHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		batchHooks = h
	}
}

// SetIconHooks registers custom icon cache hooks.
// This should be called once at application startup before any icon lookups.
func SetIconHooks(h IconHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		iconHooks = h
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

// Batch returns the registered batch hooks.
func Batch() BatchHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return batchHooks
}

// Icons returns the registered icon cache hooks.
func Icons() IconHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return iconHooks
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
	batchHooks = NoopBatchHooks{}
	iconHooks = NoopIconHooks{}
	httpHooks = NoopHTTPHooks{}
}
