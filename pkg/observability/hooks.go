// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers can register hooks at startup
// to receive events about upstream API calls, panel batches, and result reuse.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// Hooks are registered by main, not by libraries, so the library packages
// never import a metrics backend.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetHTTPHooks(&myHTTPHooks{})
//	    observability.SetBatchHooks(&myBatchHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Batch().OnBatchStart(ctx, "size", seq, len(records))
//	// ... fetch every package ...
//	observability.Batch().OnBatchComplete(ctx, "size", seq, ok, failed, time.Since(start))
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Batch Hooks
// =============================================================================

// BatchHooks receives events from comparison panel batches.
type BatchHooks interface {
	// OnBatchStart records the start of a batch over n packages.
	OnBatchStart(ctx context.Context, dimension string, seq uint64, n int)

	// OnBatchComplete records a settled batch. Stale batches report
	// committed=false.
	OnBatchComplete(ctx context.Context, dimension string, seq uint64, ok, failed int, committed bool, duration time.Duration)
}

// =============================================================================
// Memo Hooks
// =============================================================================

// MemoHooks receives events from the per-panel result memo.
type MemoHooks interface {
	// OnMemoHit records a reused result.
	OnMemoHit(ctx context.Context, dimension, key string)

	// OnMemoMiss records a result that had to be fetched.
	OnMemoMiss(ctx context.Context, dimension, key string)
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

	// OnError records an HTTP error (network failure, timeout, open breaker).
	OnError(ctx context.Context, method, host, path string, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopBatchHooks is a no-op implementation of BatchHooks.
type NoopBatchHooks struct{}

func (NoopBatchHooks) OnBatchStart(context.Context, string, uint64, int) {}
func (NoopBatchHooks) OnBatchComplete(context.Context, string, uint64, int, int, bool, time.Duration) {
}

// NoopMemoHooks is a no-op implementation of MemoHooks.
type NoopMemoHooks struct{}

func (NoopMemoHooks) OnMemoHit(context.Context, string, string)  {}
func (NoopMemoHooks) OnMemoMiss(context.Context, string, string) {}

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
	memoHooks  MemoHooks  = NoopMemoHooks{}
	httpHooks  HTTPHooks  = NoopHTTPHooks{}
	hooksMu    sync.RWMutex
)

// SetBatchHooks registers custom batch hooks.
// This should be called once at application startup before any panel refresh.
func SetBatchHooks(h BatchHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		batchHooks = h
	}
}

// SetMemoHooks registers custom memo hooks.
func SetMemoHooks(h MemoHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		memoHooks = h
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

// Memo returns the registered memo hooks.
func Memo() MemoHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return memoHooks
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
	memoHooks = NoopMemoHooks{}
	httpHooks = NoopHTTPHooks{}
}
