// Package recipe reads model recipes: files describing the axes, borders,
// fill values and generation options of a model.
//
// Recipes can be written in TOML, YAML or JSON with the same field names:
//
//	name = "deposit"
//	seed = 42
//	validation = "warn"
//
//	[axis_x]
//	mode = "edges"
//	start = 1.0
//	end = 15.0
//	step = 1.0
//
//	[borders]
//	count = 3
//	types = ["random_with_step(3,1.0)"]
//	limits = [[35, 89], [75, 114], [95, 129]]
//
// axis_y defaults to axis_x. Omitted fill values default to a single
// random_between(1,10) entry.
package recipe

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/grunt/pkg/axis"
	"github.com/matzehuels/grunt/pkg/borders"
	"github.com/matzehuels/grunt/pkg/errors"
	"github.com/matzehuels/grunt/pkg/fill"
	"github.com/matzehuels/grunt/pkg/model"
)

// Format is a recipe file format.
type Format string

const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// Axis modes.
const (
	ModeEdges           = "edges"
	ModeCenters         = "centers"
	ModePointsAsEdges   = "points_as_edges"
	ModePointsAsCenters = "points_as_centers"
)

// Recipe describes one model.
type Recipe struct {
	Name        string `json:"name,omitempty" toml:"name" yaml:"name,omitempty"`
	Seed        uint64 `json:"seed,omitempty" toml:"seed" yaml:"seed,omitempty"`
	Validation  string `json:"validation,omitempty" toml:"validation" yaml:"validation,omitempty"`
	Parallelism int    `json:"parallelism,omitempty" toml:"parallelism" yaml:"parallelism,omitempty"`

	AxisX   Axis    `json:"axis_x" toml:"axis_x" yaml:"axis_x"`
	AxisY   *Axis   `json:"axis_y,omitempty" toml:"axis_y" yaml:"axis_y,omitempty"`
	Borders Borders `json:"borders" toml:"borders" yaml:"borders"`
	Fill    []Fill  `json:"fill,omitempty" toml:"fill" yaml:"fill,omitempty"`
}

// Axis describes one axis: a range with an optional step, or explicit points.
type Axis struct {
	Mode   string    `json:"mode" toml:"mode" yaml:"mode"`
	Start  float64   `json:"start,omitempty" toml:"start" yaml:"start,omitempty"`
	End    float64   `json:"end,omitempty" toml:"end" yaml:"end,omitempty"`
	Step   *float64  `json:"step,omitempty" toml:"step" yaml:"step,omitempty"`
	Points []float64 `json:"points,omitempty" toml:"points" yaml:"points,omitempty"`
}

// Borders describes the border layers. Types use the textual form of
// borders.ParseType; limits are [min, max] pairs.
type Borders struct {
	Count  int        `json:"count" toml:"count" yaml:"count"`
	Types  []string   `json:"types" toml:"types" yaml:"types"`
	Limits [][]uint32 `json:"limits" toml:"limits" yaml:"limits"`
}

// Fill describes one fill value configuration. Range sources come before set
// sources.
type Fill struct {
	RandomBetween [][]int32 `json:"random_between,omitempty" toml:"random_between" yaml:"random_between,omitempty"`
	ValueFrom     [][]int32 `json:"value_from,omitempty" toml:"value_from" yaml:"value_from,omitempty"`
	Smooth        uint16    `json:"smooth,omitempty" toml:"smooth" yaml:"smooth,omitempty"`
	PresetOrdered *bool     `json:"preset_ordered,omitempty" toml:"preset_ordered" yaml:"preset_ordered,omitempty"`
}

// Default returns the recipe of model.DefaultParams.
func Default() *Recipe {
	return &Recipe{
		Name:       "model",
		Validation: model.ValidateOff.String(),
		AxisX:      Axis{Mode: ModeEdges, Start: 1, End: 10, Step: axis.Step(axis.DefaultStep)},
		Borders: Borders{
			Count:  2,
			Types:  []string{"random", "random"},
			Limits: [][]uint32{{5, 10}, {15, 20}},
		},
	}
}

// FormatFromPath infers the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	}
	return "", errors.New(errors.ErrCodeInvalidFormat,
		"unsupported recipe extension %q (want .toml, .yaml, .yml or .json)", filepath.Ext(path))
}

// Load reads a recipe file. The format follows the file extension. A recipe
// without a name is named after the file.
func Load(path string) (*Recipe, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read recipe: %w", err)
	}
	r, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if r.Name == "" {
		base := filepath.Base(path)
		r.Name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return r, nil
}

// Parse decodes a recipe. Unknown fields are rejected.
func Parse(data []byte, format Format) (*Recipe, error) {
	var r Recipe
	switch format {
	case FormatTOML:
		md, err := toml.Decode(string(data), &r)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse toml recipe")
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, errors.New(errors.ErrCodeInvalidFormat, "unknown recipe field %q", undecoded[0].String())
		}
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&r); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse yaml recipe")
		}
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&r); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse json recipe")
		}
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unknown recipe format %q", format)
	}
	return &r, nil
}

// Encode writes r in the given format.
func Encode(r *Recipe, format Format) ([]byte, error) {
	var buf bytes.Buffer
	switch format {
	case FormatTOML:
		if err := toml.NewEncoder(&buf).Encode(r); err != nil {
			return nil, err
		}
	case FormatYAML:
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
	case FormatJSON:
		enc := json.NewEncoder(&buf)
		enc.SetIndent("", "  ")
		if err := enc.Encode(r); err != nil {
			return nil, err
		}
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unknown recipe format %q", format)
	}
	return buf.Bytes(), nil
}

// Params builds the model parameters. Construction errors keep their codes
// and are prefixed with the failing section.
func (r *Recipe) Params() (*model.Params3D, error) {
	ax, err := r.AxisX.Build()
	if err != nil {
		return nil, fmt.Errorf("axis_x: %w", err)
	}
	ay := ax
	if r.AxisY != nil {
		if ay, err = r.AxisY.Build(); err != nil {
			return nil, fmt.Errorf("axis_y: %w", err)
		}
	}

	b, err := r.Borders.Build()
	if err != nil {
		return nil, fmt.Errorf("borders: %w", err)
	}

	fills := []*fill.Values{fill.Default()}
	if len(r.Fill) > 0 {
		fills = fills[:0]
		for i, f := range r.Fill {
			v, err := f.Build()
			if err != nil {
				return nil, fmt.Errorf("fill %d: %w", i, err)
			}
			fills = append(fills, v)
		}
	}

	return model.NewParams3D(ax, ay, b, fills...)
}

// Options returns the generation options of the recipe.
func (r *Recipe) Options() (model.Options, error) {
	opts := model.Options{Seed: r.Seed, Parallelism: r.Parallelism}
	if r.Validation != "" {
		mode, err := model.ParseValidationMode(r.Validation)
		if err != nil {
			return opts, err
		}
		opts.Validation = mode
	}
	return opts, nil
}

// Build constructs the axis.
func (a Axis) Build() (*axis.Axis, error) {
	switch a.Mode {
	case ModeEdges, "":
		return axis.GenerateOnEdges(a.Start, a.End, a.Step)
	case ModeCenters:
		return axis.GenerateOnCenters(a.Start, a.End, a.Step)
	case ModePointsAsEdges:
		return axis.FromPointsAsEdges(a.Points)
	case ModePointsAsCenters:
		return axis.FromPointsAsCenters(a.Points)
	}
	return nil, errors.New(errors.ErrCodeInvalidInput,
		"unknown axis mode %q (want edges, centers, points_as_edges or points_as_centers)", a.Mode)
}

// Build constructs the border parameters.
func (b Borders) Build() (*borders.Params, error) {
	types, err := borders.ParseTypes(b.Types)
	if err != nil {
		return nil, err
	}
	limits := make([]borders.Limits, len(b.Limits))
	for i, l := range b.Limits {
		if len(l) != 2 {
			return nil, errors.New(errors.ErrCodeIncorrectBordersLimits,
				"limits %d must be a [min, max] pair, got %d values", i, len(l))
		}
		limits[i] = borders.Limits{l[0], l[1]}
	}
	return borders.NewParams(b.Count, types, limits)
}

// Build constructs the fill values.
func (f Fill) Build() (*fill.Values, error) {
	if len(f.RandomBetween) == 0 && len(f.ValueFrom) == 0 {
		return nil, errors.New(errors.ErrCodeNotEnoughFillValues,
			"fill entry sets neither random_between nor value_from")
	}
	var types []fill.Type
	for i, rb := range f.RandomBetween {
		if len(rb) != 2 {
			return nil, errors.New(errors.ErrCodeIncorrectFillLimits,
				"random_between %d must be a [lower, upper] pair, got %d values", i, len(rb))
		}
		types = append(types, fill.RandomBetween{Lower: rb[0], Upper: rb[1]})
	}
	for _, vf := range f.ValueFrom {
		types = append(types, fill.ValueFrom{Values: vf})
	}
	ordered := true
	if f.PresetOrdered != nil {
		ordered = *f.PresetOrdered
	}
	return fill.New(types, f.Smooth, ordered)
}
