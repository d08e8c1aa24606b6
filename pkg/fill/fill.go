// Package fill describes how the blocks between borders are to be filled.
//
// Fill values are configuration only: they are validated, carried on the
// model parameters, and exported, but no generator in this module reads them.
package fill

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/matzehuels/grunt/pkg/errors"
)

// Type is a source of fill values: [RandomBetween] or [ValueFrom].
type Type interface {
	fmt.Stringer
	validate() error
}

// RandomBetween draws values uniformly from [Lower, Upper].
type RandomBetween struct {
	Lower int32 `json:"lower" toml:"lower" yaml:"lower"`
	Upper int32 `json:"upper" toml:"upper" yaml:"upper"`
}

// ValueFrom picks values from a fixed set.
type ValueFrom struct {
	Values []int32 `json:"values" toml:"values" yaml:"values"`
}

func (t RandomBetween) String() string { return fmt.Sprintf("random_between(%d,%d)", t.Lower, t.Upper) }
func (t ValueFrom) String() string     { return fmt.Sprintf("value_from%v", t.Values) }

func (t RandomBetween) validate() error {
	if t.Lower > t.Upper {
		return errors.New(errors.ErrCodeIncorrectFillLimits,
			"fill limits must be [min value, <= max value], got [%d,%d]", t.Lower, t.Upper)
	}
	return nil
}

func (t ValueFrom) validate() error {
	if len(t.Values) == 0 {
		return errors.New(errors.ErrCodeNotEnoughFillValues, "number of values to fill must be at least 1")
	}
	return nil
}

// Values is one fill configuration.
type Values struct {
	types         []Type
	smooth        uint16
	presetOrdered bool
}

// New validates every type and builds fill values. An empty type list is
// allowed.
func New(types []Type, smooth uint16, presetOrdered bool) (*Values, error) {
	out := make([]Type, len(types))
	for i, t := range types {
		if t == nil {
			return nil, errors.New(errors.ErrCodeNotEnoughFillValues, "fill type %d is nil", i)
		}
		if err := t.validate(); err != nil {
			return nil, err
		}
		if vf, ok := t.(ValueFrom); ok {
			t = ValueFrom{Values: slices.Clone(vf.Values)}
		}
		out[i] = t
	}
	return &Values{types: out, smooth: smooth, presetOrdered: presetOrdered}, nil
}

// Default returns a single RandomBetween(1,10), no smoothing, preset ordered.
func Default() *Values {
	v, _ := New([]Type{RandomBetween{Lower: 1, Upper: 10}}, 0, true)
	return v
}

// Types returns a copy of the fill types.
func (v *Values) Types() []Type { return slices.Clone(v.types) }

// Smooth returns the smoothing strength.
func (v *Values) Smooth() uint16 { return v.smooth }

// PresetOrdered reports whether values are applied in preset order.
func (v *Values) PresetOrdered() bool { return v.presetOrdered }

// typeJSON is the tagged encoding of a Type. Exactly one field is set.
type typeJSON struct {
	RandomBetween *RandomBetween `json:"random_between,omitempty"`
	ValueFrom     *ValueFrom     `json:"value_from,omitempty"`
}

type valuesJSON struct {
	Types         []typeJSON `json:"types"`
	Smooth        uint16     `json:"smooth"`
	PresetOrdered bool       `json:"preset_ordered"`
}

// MarshalJSON encodes the fill values with each type tagged by name.
func (v *Values) MarshalJSON() ([]byte, error) {
	out := valuesJSON{Types: make([]typeJSON, len(v.types)), Smooth: v.smooth, PresetOrdered: v.presetOrdered}
	for i, t := range v.types {
		switch t := t.(type) {
		case RandomBetween:
			out.Types[i].RandomBetween = &t
		case ValueFrom:
			out.Types[i].ValueFrom = &t
		}
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes and validates fill values written by MarshalJSON.
func (v *Values) UnmarshalJSON(data []byte) error {
	var in valuesJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	types := make([]Type, len(in.Types))
	for i, t := range in.Types {
		switch {
		case t.RandomBetween != nil && t.ValueFrom == nil:
			types[i] = *t.RandomBetween
		case t.ValueFrom != nil && t.RandomBetween == nil:
			types[i] = *t.ValueFrom
		default:
			return errors.New(errors.ErrCodeInvalidFormat, "fill type %d must set exactly one of random_between, value_from", i)
		}
	}
	out, err := New(types, in.Smooth, in.PresetOrdered)
	if err != nil {
		return err
	}
	*v = *out
	return nil
}
