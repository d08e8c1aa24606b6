// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers can register hooks at startup
// to receive events about model generation, cache operations, and API calls.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// Hooks are registered by main, not by libraries, so the generator packages
// stay free of any observability framework.
//
// # Usage
//
// Register hooks at application startup; [UseLogger] registers [LogHooks]
// for all categories:
//
//	func main() {
//	    observability.SetGenerationHooks(&myGenerationHooks{})
//	    observability.SetCacheHooks(&myCacheHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Generation().OnGenerateStart(ctx, layers, rows, cols)
//	// ... generate layers ...
//	observability.Generation().OnGenerateComplete(ctx, layers, duration, err)
package observability

import (
	"context"
	"sync/atomic"
	"time"
)

// =============================================================================
// Generation Hooks
// =============================================================================

// GenerationHooks receives events from model generation.
type GenerationHooks interface {
	// Model events
	OnGenerateStart(ctx context.Context, layers, rows, cols int)
	OnGenerateComplete(ctx context.Context, layers int, duration time.Duration, err error)

	// Layer events
	OnLayerGenerated(ctx context.Context, index int, borderType string, duration time.Duration)
	OnLayerInvalid(ctx context.Context, index int, violations int)
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

// HTTPHooks receives events from the HTTP API server.
type HTTPHooks interface {
	// OnRequest records an incoming HTTP request.
	OnRequest(ctx context.Context, method, path string)

	// OnResponse records the response written for a request.
	OnResponse(ctx context.Context, method, path string, statusCode int, duration time.Duration)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopGenerationHooks is a no-op implementation of GenerationHooks.
type NoopGenerationHooks struct{}

func (NoopGenerationHooks) OnGenerateStart(context.Context, int, int, int)                {}
func (NoopGenerationHooks) OnGenerateComplete(context.Context, int, time.Duration, error) {}
func (NoopGenerationHooks) OnLayerGenerated(context.Context, int, string, time.Duration)  {}
func (NoopGenerationHooks) OnLayerInvalid(context.Context, int, int)                      {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, int, time.Duration) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

// registry holds the hooks of one category. Loads are lock-free so the
// per-layer generation path never contends on a mutex.
type registry[H any] struct {
	p    atomic.Pointer[H]
	noop H
}

func (r *registry[H]) get() H {
	if p := r.p.Load(); p != nil {
		return *p
	}
	return r.noop
}

func (r *registry[H]) set(h H) {
	if any(h) != nil {
		r.p.Store(&h)
	}
}

var (
	generationHooks = registry[GenerationHooks]{noop: NoopGenerationHooks{}}
	cacheHooks      = registry[CacheHooks]{noop: NoopCacheHooks{}}
	httpHooks       = registry[HTTPHooks]{noop: NoopHTTPHooks{}}
)

// SetGenerationHooks registers generation hooks. A nil h is ignored.
func SetGenerationHooks(h GenerationHooks) { generationHooks.set(h) }

// SetCacheHooks registers cache hooks. A nil h is ignored.
func SetCacheHooks(h CacheHooks) { cacheHooks.set(h) }

// SetHTTPHooks registers HTTP hooks. A nil h is ignored.
func SetHTTPHooks(h HTTPHooks) { httpHooks.set(h) }

// Generation returns the registered generation hooks.
func Generation() GenerationHooks { return generationHooks.get() }

// Cache returns the registered cache hooks.
func Cache() CacheHooks { return cacheHooks.get() }

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks { return httpHooks.get() }

// Reset restores the no-op hooks. Tests use it to undo registrations.
func Reset() {
	generationHooks.p.Store(nil)
	cacheHooks.p.Store(nil)
	httpHooks.p.Store(nil)
}
