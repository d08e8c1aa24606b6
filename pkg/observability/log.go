package observability

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// LogHooks reports every event to a logger at debug level. It implements
// GenerationHooks, CacheHooks and HTTPHooks.
type LogHooks struct {
	Logger *log.Logger
}

// UseLogger registers LogHooks writing to l for all hook categories.
func UseLogger(l *log.Logger) {
	h := LogHooks{Logger: l}
	SetGenerationHooks(h)
	SetCacheHooks(h)
	SetHTTPHooks(h)
}

func (h LogHooks) OnGenerateStart(_ context.Context, layers, rows, cols int) {
	h.Logger.Debug("generate start", "layers", layers, "rows", rows, "cols", cols)
}

func (h LogHooks) OnGenerateComplete(_ context.Context, layers int, d time.Duration, err error) {
	if err != nil {
		h.Logger.Debug("generate failed", "layers", layers, "duration", d, "error", err)
		return
	}
	h.Logger.Debug("generate complete", "layers", layers, "duration", d)
}

func (h LogHooks) OnLayerGenerated(_ context.Context, index int, borderType string, d time.Duration) {
	h.Logger.Debug("layer generated", "layer", index, "type", borderType, "duration", d)
}

func (h LogHooks) OnLayerInvalid(_ context.Context, index, violations int) {
	h.Logger.Debug("layer invalid", "layer", index, "violations", violations)
}

func (h LogHooks) OnCacheHit(_ context.Context, keyType string) {
	h.Logger.Debug("cache hit", "kind", keyType)
}

func (h LogHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.Logger.Debug("cache miss", "kind", keyType)
}

func (h LogHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.Logger.Debug("cache set", "kind", keyType, "bytes", size)
}

func (h LogHooks) OnRequest(_ context.Context, method, path string) {
	h.Logger.Debug("request", "method", method, "path", path)
}

func (h LogHooks) OnResponse(_ context.Context, method, path string, status int, d time.Duration) {
	h.Logger.Debug("response", "method", method, "path", path, "status", status, "duration", d)
}

var (
	_ GenerationHooks = LogHooks{}
	_ CacheHooks      = LogHooks{}
	_ HTTPHooks       = LogHooks{}
)
