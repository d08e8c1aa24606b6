package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/grunt/pkg/cache"
	"github.com/matzehuels/grunt/pkg/errors"
	"github.com/matzehuels/grunt/pkg/export"
	"github.com/matzehuels/grunt/pkg/layer"
	"github.com/matzehuels/grunt/pkg/model"
	"github.com/matzehuels/grunt/pkg/observability"
	"github.com/matzehuels/grunt/pkg/store"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use it to avoid duplicating caching logic.
//
// The Runner keeps no per-run state, so multiple goroutines can use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// Store receives models run with Options.Save. Nil disables saving.
	Store store.Store
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the generate → export → save pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	logger := opts.Logger

	result := &Result{}

	// Stage 1: Generate
	genStart := time.Now()
	m, modelHit, err := r.GenerateWithCacheInfo(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}
	result.Model = m
	result.Stats.GenerateTime = time.Since(genStart)
	result.Stats.Layers = m.NumberOfBorders()
	result.Stats.Rows = m.Params.Rows()
	result.Stats.Cols = m.Params.Cols()
	result.Stats.Warnings = len(m.Warnings)
	result.CacheInfo.ModelHit = modelHit

	logger.Info("generated model",
		"layers", result.Stats.Layers,
		"rows", result.Stats.Rows,
		"cols", result.Stats.Cols,
		"seed", m.Seed,
		"cached", modelHit,
		"duration", result.Stats.GenerateTime)
	for _, w := range m.Warnings {
		logger.Warn("layer breaks its recipe",
			"layer", w.Layer,
			"violations", len(w.Violations),
			"first", w.Violations[0])
	}

	// Stage 2: Export
	exportStart := time.Now()
	data, exportHit, err := r.ExportWithCacheInfo(ctx, m, opts)
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	if opts.Write {
		written, err := export.Write(opts.Name, data, opts.ExportOptions())
		if err != nil {
			return nil, fmt.Errorf("export: %w", err)
		}
		result.Path = written.Path
	}
	result.Data = data
	result.Stats.Bytes = len(data)
	result.Stats.ExportTime = time.Since(exportStart)
	result.CacheInfo.ExportHit = exportHit

	logger.Info("exported model",
		"sections", opts.Sections,
		"bytes", len(data),
		"path", result.Path,
		"duration", result.Stats.ExportTime)

	// Stage 3: Save
	if opts.Save && r.Store != nil {
		saveStart := time.Now()
		rec, err := r.Save(ctx, m, opts)
		if err != nil {
			return nil, fmt.Errorf("save: %w", err)
		}
		result.RecordID = rec.ID
		result.Stats.SaveTime = time.Since(saveStart)

		logger.Info("saved model",
			"id", rec.ID,
			"duration", result.Stats.SaveTime)
	}

	return result, nil
}

// cachedModel is the cache representation of a generated model. The layers
// are kept as a borders-only export document.
type cachedModel struct {
	Seed     uint64          `json:"seed"`
	Warnings []model.Warning `json:"warnings,omitempty"`
	Document json.RawMessage `json:"document"`
}

// GenerateWithCacheInfo generates a model with caching and returns cache hit
// info. Only models with a fixed seed are cached. Params larger than
// opts.MaxCells are rejected with TOO_LARGE before anything is allocated.
func (r *Runner) GenerateWithCacheInfo(ctx context.Context, opts Options) (*model.Model, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, false, err
	}
	if err := opts.checkCells(); err != nil {
		return nil, false, err
	}

	cacheKey, cacheable := r.modelKey(opts)
	hooks := observability.Cache()

	// Try cache first (unless refresh requested)
	if cacheable && !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			if m, err := decodeCachedModel(data, opts.Params); err == nil {
				hooks.OnCacheHit(ctx, "model")
				return m, true, nil
			}
			opts.Logger.Debug("discarding unreadable cache entry", "key", cache.Describe(cacheKey))
		}
		hooks.OnCacheMiss(ctx, "model")
	}

	m, err := model.Generate(ctx, opts.Params, opts.ModelOptions())
	if err != nil {
		return nil, false, err
	}

	if cacheable {
		if data, err := encodeCachedModel(m); err == nil {
			if err := r.Cache.Set(ctx, cacheKey, data, cache.DefaultTTL); err == nil {
				hooks.OnCacheSet(ctx, "model", len(data))
			} else {
				opts.Logger.Debug("cache write failed", "key", cache.Describe(cacheKey), "error", err)
			}
		}
	}

	return m, false, nil
}

// Generate is a convenience wrapper that calls GenerateWithCacheInfo and
// discards the cache hit info.
func (r *Runner) Generate(ctx context.Context, opts Options) (*model.Model, error) {
	m, _, err := r.GenerateWithCacheInfo(ctx, opts)
	return m, err
}

// ExportWithCacheInfo encodes the selected sections of m with caching and
// returns cache hit info. The data is compressed when opts.Compress is set.
func (r *Runner) ExportWithCacheInfo(ctx context.Context, m *model.Model, opts Options) ([]byte, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, false, err
	}

	// Exports share the key of the model they encode. A model generated from
	// a zero seed is not reproducible, so neither is its export.
	modelKey, cacheable := r.modelKey(opts)
	cacheable = cacheable && opts.Seed == m.Seed
	cacheKey := r.Keyer.ExportKey(modelKey, opts.ExportKeyOpts())
	hooks := observability.Cache()

	if cacheable && !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			hooks.OnCacheHit(ctx, "export")
			return data, true, nil
		}
		hooks.OnCacheMiss(ctx, "export")
	}

	data, err := export.Encode(m, opts.Sections...)
	if err != nil {
		return nil, false, err
	}
	if opts.Compress {
		if data, err = export.Compress(data); err != nil {
			return nil, false, err
		}
	}

	if cacheable {
		if err := r.Cache.Set(ctx, cacheKey, data, cache.DefaultTTL); err == nil {
			hooks.OnCacheSet(ctx, "export", len(data))
		}
	}

	return data, false, nil
}

// Export is a convenience wrapper that calls ExportWithCacheInfo and discards
// the cache hit info.
func (r *Runner) Export(ctx context.Context, m *model.Model, opts Options) ([]byte, error) {
	data, _, err := r.ExportWithCacheInfo(ctx, m, opts)
	return data, err
}

// Save stores m with its full uncompressed export under opts.Name.
func (r *Runner) Save(ctx context.Context, m *model.Model, opts Options) (*store.Record, error) {
	if r.Store == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "no model store configured")
	}
	if opts.Name == "" {
		opts.Name = DefaultName
	}
	doc, err := export.Encode(m, export.AllSections()...)
	if err != nil {
		return nil, err
	}
	rec := store.NewRecord(m, opts.Name, doc)
	if err := r.Store.Save(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Load retrieves a stored model by ID.
func (r *Runner) Load(ctx context.Context, id string) (*store.Record, *model.Model, error) {
	if r.Store == nil {
		return nil, nil, errors.New(errors.ErrCodeInvalidInput, "no model store configured")
	}
	rec, err := r.Store.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	doc, err := export.Decode(rec.Document)
	if err != nil {
		return nil, nil, fmt.Errorf("model %s: %w", id, err)
	}
	if doc.Params == nil {
		return nil, nil, errors.New(errors.ErrCodeInvalidFormat, "model %s: stored document has no parameters", id)
	}
	mid, err := uuid.Parse(rec.ID)
	if err != nil {
		return nil, nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "model %s: invalid id", id)
	}
	return rec, &model.Model{
		ID:       mid,
		Params:   doc.Params,
		Borders:  doc.Borders,
		Seed:     rec.Seed,
		Warnings: rec.Warnings,
	}, nil
}

// Close releases resources held by the runner.
func (r *Runner) Close() error {
	var err error
	if r.Cache != nil {
		err = r.Cache.Close()
	}
	if r.Store != nil {
		if serr := r.Store.Close(); err == nil {
			err = serr
		}
	}
	return err
}

// modelKey returns the cache key of the model opts describe and whether such
// a model may be cached.
func (r *Runner) modelKey(opts Options) (string, bool) {
	if !cache.Cacheable(opts.Seed) {
		return "", false
	}
	params, err := json.Marshal(opts.Params)
	if err != nil {
		return "", false
	}
	return r.Keyer.ModelKey(cache.Hash(params), opts.ModelKeyOpts()), true
}

func encodeCachedModel(m *model.Model) ([]byte, error) {
	doc, err := export.Encode(m, export.SectionBorders)
	if err != nil {
		return nil, err
	}
	return json.Marshal(cachedModel{Seed: m.Seed, Warnings: m.Warnings, Document: doc})
}

func decodeCachedModel(data []byte, params *model.Params3D) (*model.Model, error) {
	var cm cachedModel
	if err := json.Unmarshal(data, &cm); err != nil {
		return nil, err
	}
	doc, err := export.Decode(cm.Document)
	if err != nil {
		return nil, err
	}
	n := params.Borders().NumberOfBorders()
	if len(doc.Borders) != n || slices.ContainsFunc(doc.Borders, func(l layer.Layer) bool {
		return l.Rows() != params.Rows() || l.Cols() != params.Cols()
	}) {
		return nil, fmt.Errorf("cached model does not match parameters")
	}
	return &model.Model{
		ID:       uuid.New(),
		Params:   params,
		Borders:  doc.Borders,
		Seed:     cm.Seed,
		Warnings: cm.Warnings,
	}, nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
