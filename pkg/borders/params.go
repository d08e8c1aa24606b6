package borders

import (
	"encoding/json"

	"github.com/matzehuels/grunt/pkg/errors"
	"github.com/matzehuels/grunt/pkg/layer"
)

// MaxBorders is the largest supported number of borders in a model.
const MaxBorders = 255

// Limits is the inclusive [min, max] value range of a layer.
type Limits = layer.Limits

// Params configures the borders of a model. It is immutable after
// construction.
//
// Layer i uses Types[i mod len(Types)] and Limits[i mod len(Limits)], so
// short lists repeat cyclically.
type Params struct {
	count  int
	types  []Type
	limits []Limits
}

// NewParams validates and builds border parameters.
func NewParams(count int, types []Type, limits []Limits) (*Params, error) {
	if count < 1 || count > MaxBorders {
		return nil, errors.New(errors.ErrCodeIncorrectBordersCount,
			"number of borders must be between 1 and %d, got %d", MaxBorders, count)
	}
	if len(types) == 0 {
		return nil, errors.New(errors.ErrCodeIncorrectBordersTypes, "at least one border type is required")
	}
	for i, t := range types {
		if t == nil {
			return nil, errors.New(errors.ErrCodeIncorrectBordersTypes, "border type %d is nil", i)
		}
	}
	if len(limits) == 0 {
		return nil, errors.New(errors.ErrCodeIncorrectBordersLimits, "at least one limits pair is required")
	}
	for i, l := range limits {
		if !l.Valid() {
			return nil, errors.New(errors.ErrCodeIncorrectBordersLimits,
				"limits %d must be [min value, <= max value], got %v", i, l)
		}
	}

	return &Params{
		count:  count,
		types:  append([]Type(nil), types...),
		limits: append([]Limits(nil), limits...),
	}, nil
}

// Default returns two Random borders limited to [5,10] and [15,20].
func Default() *Params {
	p, _ := NewParams(2, []Type{Random{}, Random{}}, []Limits{{5, 10}, {15, 20}})
	return p
}

// NumberOfBorders returns the number of layers to generate.
func (p *Params) NumberOfBorders() int { return p.count }

// Types returns a copy of the configured types.
func (p *Params) Types() []Type { return append([]Type(nil), p.types...) }

// Limits returns a copy of the configured limits.
func (p *Params) Limits() []Limits { return append([]Limits(nil), p.limits...) }

// Recipe returns the type and limits used for layer i.
func (p *Params) Recipe(i int) (Type, Limits) {
	return p.types[i%len(p.types)], p.limits[i%len(p.limits)]
}

type paramsJSON struct {
	NumberOfBorders int      `json:"number_of_borders"`
	Types           []string `json:"types"`
	Limits          []Limits `json:"limits"`
}

// MarshalJSON encodes the params with types in their textual form.
func (p *Params) MarshalJSON() ([]byte, error) {
	return json.Marshal(paramsJSON{
		NumberOfBorders: p.count,
		Types:           FormatTypes(p.types),
		Limits:          p.limits,
	})
}

// UnmarshalJSON decodes and validates params written by MarshalJSON.
func (p *Params) UnmarshalJSON(data []byte) error {
	var in paramsJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	types, err := ParseTypes(in.Types)
	if err != nil {
		return err
	}
	out, err := NewParams(in.NumberOfBorders, types, in.Limits)
	if err != nil {
		return err
	}
	*p = *out
	return nil
}
