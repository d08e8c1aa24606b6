// Package pipeline provides the model pipeline shared by the CLI and the HTTP
// API.
//
// The pipeline consists of three stages:
//
//  1. Generate: build the border layers from the model parameters
//  2. Export: encode the selected sections and optionally write the file
//  3. Save: store the full export so the model can be retrieved by ID
//
// Generate and Export are cache-first when the seed is fixed, since the same
// parameters, seed and validation mode always produce the same model.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts, err := pipeline.FromRecipe(r)
//	if err != nil {
//	    return err
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    return err
//	}
//	fmt.Println(result.Path)
package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/grunt/pkg/cache"
	"github.com/matzehuels/grunt/pkg/errors"
	"github.com/matzehuels/grunt/pkg/export"
	"github.com/matzehuels/grunt/pkg/model"
	"github.com/matzehuels/grunt/pkg/recipe"
)

// DefaultName is the export name used when none is given.
const DefaultName = "model"

// DefaultMaxCells bounds rows × cols × borders of a model when
// Options.MaxCells is zero. At 4 bytes a cell this is 256 MiB of layers.
const DefaultMaxCells = 1 << 26

// Options contains all configuration for a pipeline run.
type Options struct {
	// Name of the model; also the export file name.
	Name string

	// Params are the model parameters. Required.
	Params *model.Params3D

	// Generation options
	Seed        uint64
	Parallelism int
	Validation  model.ValidationMode

	// Export options
	Sections []export.Section // nil means all sections
	Compress bool
	Dir      string
	Write    bool // write the export file

	// Save stores the model when the runner has a store.
	Save bool

	// Refresh bypasses cache lookups; results are still cached.
	Refresh bool

	// MaxCells bounds rows × cols × borders. Zero means DefaultMaxCells,
	// a negative value disables the check.
	MaxCells int64

	// Logger for this run; the runner's logger when nil.
	Logger *log.Logger

	validated bool
}

// FromRecipe converts a recipe into pipeline options. The export options are
// left to the caller.
func FromRecipe(r *recipe.Recipe) (Options, error) {
	params, err := r.Params()
	if err != nil {
		return Options{}, err
	}
	genOpts, err := r.Options()
	if err != nil {
		return Options{}, err
	}
	return Options{
		Name:        r.Name,
		Params:      params,
		Seed:        genOpts.Seed,
		Parallelism: genOpts.Parallelism,
		Validation:  genOpts.Validation,
	}, nil
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Model is the generated (or cached) model.
	Model *model.Model

	// Data is the encoded export, compressed if requested.
	Data []byte

	// Path of the written export, empty when nothing was written.
	Path string

	// RecordID is the stored model ID, empty when the model was not saved.
	RecordID string

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Layers       int
	Rows         int
	Cols         int
	Warnings     int
	Bytes        int
	GenerateTime time.Duration
	ExportTime   time.Duration
	SaveTime     time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	ModelHit  bool
	ExportHit bool
}

// ValidateAndSetDefaults checks required fields and applies defaults.
// Calling it more than once has no further effect.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Params == nil {
		return errors.New(errors.ErrCodeInvalidInput, "model parameters are required")
	}
	if o.Name == "" {
		o.Name = DefaultName
	}
	if err := errors.ValidateModelName(o.Name); err != nil {
		return err
	}
	if o.MaxCells == 0 {
		o.MaxCells = DefaultMaxCells
	}
	if o.Parallelism < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "parallelism must not be negative, got %d", o.Parallelism)
	}
	if o.Sections == nil {
		o.Sections = export.AllSections()
	}
	if len(o.Sections) == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "at least one export section is required")
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// checkCells rejects params whose model would exceed MaxCells.
func (o *Options) checkCells() error {
	cells := o.Params.Cells()
	if o.MaxCells < 0 || cells <= o.MaxCells {
		return nil
	}
	return errors.New(errors.ErrCodeTooLarge,
		"model of %d×%d blocks and %d borders holds %d values, more than %d",
		o.Params.Rows(), o.Params.Cols(), o.Params.Borders().NumberOfBorders(), cells, o.MaxCells)
}

// ModelOptions returns the generation options.
func (o *Options) ModelOptions() model.Options {
	return model.Options{
		Seed:        o.Seed,
		Parallelism: o.Parallelism,
		Validation:  o.Validation,
	}
}

// ModelKeyOpts returns cache key options for the generate stage.
func (o *Options) ModelKeyOpts() cache.ModelKeyOpts {
	return cache.ModelKeyOpts{
		Seed:       o.Seed,
		Validation: o.Validation.String(),
	}
}

// ExportKeyOpts returns cache key options for the export stage.
func (o *Options) ExportKeyOpts() cache.ExportKeyOpts {
	sections := make([]string, len(o.Sections))
	for i, s := range o.Sections {
		sections[i] = string(s)
	}
	return cache.ExportKeyOpts{Sections: sections, Compress: o.Compress}
}

// ExportOptions returns the options for writing the export.
func (o *Options) ExportOptions() export.Options {
	return export.Options{Sections: o.Sections, Dir: o.Dir, Compress: o.Compress}
}

// String summarizes the options for logs.
func (o *Options) String() string {
	return fmt.Sprintf("%s(seed=%d, validation=%s)", o.Name, o.Seed, o.Validation)
}
