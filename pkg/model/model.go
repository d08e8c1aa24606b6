// Package model assembles border layers into a 3-D block model.
//
// [Generate] resolves the border recipe of each layer, generates the layer on
// the (AxisY × AxisX) grid, optionally validates it, and collects the layers
// in order:
//
//	params := model.DefaultParams()
//	m, err := model.Generate(ctx, params, model.Options{Seed: 42, Validation: model.ValidateStrict})
//
// Every layer draws from its own random stream derived from the model seed,
// so a model is fully determined by its parameters and seed whether layers
// are generated sequentially or in parallel.
package model

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/grunt/pkg/borders"
	"github.com/matzehuels/grunt/pkg/errors"
	"github.com/matzehuels/grunt/pkg/layer"
	"github.com/matzehuels/grunt/pkg/observability"
)

// ValidationMode controls whether generated layers are validated.
type ValidationMode int

const (
	// ValidateOff skips validation.
	ValidateOff ValidationMode = iota
	// ValidateWarn records violations as model warnings.
	ValidateWarn
	// ValidateStrict fails generation on the first invalid layer.
	ValidateStrict
)

var validationNames = map[ValidationMode]string{
	ValidateOff:    "off",
	ValidateWarn:   "warn",
	ValidateStrict: "strict",
}

func (v ValidationMode) String() string {
	if s, ok := validationNames[v]; ok {
		return s
	}
	return fmt.Sprintf("validation(%d)", int(v))
}

// ParseValidationMode parses "off", "warn" or "strict".
func ParseValidationMode(s string) (ValidationMode, error) {
	for mode, name := range validationNames {
		if name == s {
			return mode, nil
		}
	}
	return ValidateOff, errors.New(errors.ErrCodeInvalidInput,
		"unknown validation mode %q (want off, warn or strict)", s)
}

// Options configures [Generate].
type Options struct {
	// Seed for the random streams. Zero draws a fresh seed, recorded on the
	// returned model.
	Seed uint64

	// Parallelism is the number of layers generated concurrently.
	// Values below 2 generate sequentially.
	Parallelism int

	// Validation selects what happens to layers that break their recipe.
	Validation ValidationMode
}

// Warning lists the violations found in one layer.
type Warning struct {
	Layer      int               `json:"layer"`
	Violations []layer.Violation `json:"violations"`
}

// Model is a generated set of border layers. It is not modified after
// Generate returns.
type Model struct {
	ID       uuid.UUID
	Params   *Params3D
	Borders  []layer.Layer
	Seed     uint64
	Warnings []Warning
}

// NumberOfBorders returns the number of layers.
func (m *Model) NumberOfBorders() int { return len(m.Borders) }

// Regenerate generates a new model from the same parameters.
func (m *Model) Regenerate(ctx context.Context, opts Options) (*Model, error) {
	return Generate(ctx, m.Params, opts)
}

// Generate builds a model from params. It fails only when ctx is cancelled or,
// with ValidateStrict, when a layer breaks its recipe; the strict error has
// code LAYER_VALIDATION and wraps the *layer.ValidationError.
func Generate(ctx context.Context, params *Params3D, opts Options) (_ *Model, err error) {
	if params == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "model parameters are required")
	}

	seed := opts.Seed
	for seed == 0 {
		seed = rand.Uint64()
	}

	n := params.Borders().NumberOfBorders()
	rows, cols := params.Rows(), params.Cols()

	hooks := observability.Generation()
	hooks.OnGenerateStart(ctx, n, rows, cols)
	start := time.Now()
	defer func() { hooks.OnGenerateComplete(ctx, n, time.Since(start), err) }()

	layers := make([]layer.Layer, n)
	verrs := make([]*layer.ValidationError, n)

	build := func(ctx context.Context, i int) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		typ, limits := params.Borders().Recipe(i)

		t0 := time.Now()
		l := borders.Generate(layerRand(seed, i), rows, cols, typ, limits)
		hooks.OnLayerGenerated(ctx, i, typ.String(), time.Since(t0))
		layers[i] = l

		if opts.Validation == ValidateOff {
			return nil
		}
		verr := validateLayer(l, typ, limits)
		if verr == nil {
			return nil
		}
		hooks.OnLayerInvalid(ctx, i, len(verr.Violations))
		if opts.Validation == ValidateStrict {
			return errors.Wrap(errors.ErrCodeLayerValidation, verr, "layer %d (%v, limits %v)", i, typ, limits)
		}
		verrs[i] = verr
		return nil
	}

	if opts.Parallelism < 2 {
		for i := range n {
			if err := build(ctx, i); err != nil {
				return nil, err
			}
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(opts.Parallelism)
		for i := range n {
			if gctx.Err() != nil {
				break
			}
			g.Go(func() error { return build(gctx, i) })
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		// A cancellation that stopped scheduling may have left no failed layer.
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	var warnings []Warning
	for i, verr := range verrs {
		if verr != nil {
			warnings = append(warnings, Warning{Layer: i, Violations: verr.Violations})
		}
	}

	return &Model{
		ID:       uuid.New(),
		Params:   params,
		Borders:  layers,
		Seed:     seed,
		Warnings: warnings,
	}, nil
}

// layerRand returns the stream of layer i. Streams of different layers are
// independent for the same seed.
func layerRand(seed uint64, i int) *rand.Rand {
	s := seed ^ (uint64(i) * 0x9e3779b97f4a7c15)
	return rand.New(rand.NewPCG(s, s^0xdeadbeef))
}

// ValidateLayer checks l against its recipe: limits always, and the step
// bound for RandomWithStep layers.
func ValidateLayer(l layer.Layer, typ borders.Type, limits borders.Limits) error {
	if verr := validateLayer(l, typ, limits); verr != nil {
		return verr
	}
	return nil
}

func validateLayer(l layer.Layer, typ borders.Type, limits borders.Limits) *layer.ValidationError {
	var opts []layer.Option
	if step, ok := borders.MaxStep(typ); ok {
		opts = append(opts, layer.WithMaxStep(step))
	}
	if err := layer.Validate(l, limits, opts...); err != nil {
		return err.(*layer.ValidationError)
	}
	return nil
}
