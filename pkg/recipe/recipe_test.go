package recipe

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/grunt/pkg/borders"
	"github.com/matzehuels/grunt/pkg/errors"
	"github.com/matzehuels/grunt/pkg/fill"
	"github.com/matzehuels/grunt/pkg/model"
)

const tomlRecipe = `
name = "deposit"
seed = 42
validation = "warn"
parallelism = 4

[axis_x]
mode = "edges"
start = 1.0
end = 15.0
step = 1.0

[axis_y]
mode = "points_as_centers"
points = [0.0, 2.0, 4.0, 6.0]

[borders]
count = 3
types = ["random_with_step(3,1.0)"]
limits = [[35, 89], [75, 114], [95, 129]]

[[fill]]
random_between = [[1, 5]]
value_from = [[7, 8, 9]]
smooth = 2
preset_ordered = false
`

const yamlRecipe = `
name: deposit
seed: 42
validation: warn
parallelism: 4
axis_x:
  mode: edges
  start: 1.0
  end: 15.0
  step: 1.0
axis_y:
  mode: points_as_centers
  points: [0.0, 2.0, 4.0, 6.0]
borders:
  count: 3
  types: ["random_with_step(3,1.0)"]
  limits: [[35, 89], [75, 114], [95, 129]]
fill:
  - random_between: [[1, 5]]
    value_from: [[7, 8, 9]]
    smooth: 2
    preset_ordered: false
`

const jsonRecipe = `{
  "name": "deposit",
  "seed": 42,
  "validation": "warn",
  "parallelism": 4,
  "axis_x": {"mode": "edges", "start": 1.0, "end": 15.0, "step": 1.0},
  "axis_y": {"mode": "points_as_centers", "points": [0.0, 2.0, 4.0, 6.0]},
  "borders": {
    "count": 3,
    "types": ["random_with_step(3,1.0)"],
    "limits": [[35, 89], [75, 114], [95, 129]]
  },
  "fill": [
    {"random_between": [[1, 5]], "value_from": [[7, 8, 9]], "smooth": 2, "preset_ordered": false}
  ]
}`

func TestParseFormatsAgree(t *testing.T) {
	inputs := map[Format]string{
		FormatTOML: tomlRecipe,
		FormatYAML: yamlRecipe,
		FormatJSON: jsonRecipe,
	}

	var want *Recipe
	for _, format := range []Format{FormatTOML, FormatYAML, FormatJSON} {
		r, err := Parse([]byte(inputs[format]), format)
		if err != nil {
			t.Fatalf("Parse(%s): %v", format, err)
		}
		if want == nil {
			want = r
			continue
		}
		if diff := cmp.Diff(want, r); diff != "" {
			t.Errorf("%s recipe differs from toml (-toml +%s):\n%s", format, format, diff)
		}
	}
}

func TestRecipeParams(t *testing.T) {
	r, err := Parse([]byte(tomlRecipe), FormatTOML)
	if err != nil {
		t.Fatal(err)
	}

	p, err := r.Params()
	if err != nil {
		t.Fatalf("Params: %v", err)
	}
	if p.Cols() != 14 {
		t.Errorf("Cols() = %d, want 14", p.Cols())
	}
	if p.Rows() != 4 {
		t.Errorf("Rows() = %d, want 4", p.Rows())
	}

	b := p.Borders()
	if b.NumberOfBorders() != 3 {
		t.Errorf("NumberOfBorders() = %d, want 3", b.NumberOfBorders())
	}
	typ, limits := b.Recipe(2)
	if diff := cmp.Diff(borders.Type(borders.RandomWithStep{MaxStep: 3, Probability: 1}), typ); diff != "" {
		t.Errorf("Recipe(2) type mismatch (-want +got):\n%s", diff)
	}
	if limits != (borders.Limits{95, 129}) {
		t.Errorf("Recipe(2) limits = %v", limits)
	}

	fills := p.FillValues()
	if len(fills) != 1 {
		t.Fatalf("got %d fill values, want 1", len(fills))
	}
	wantTypes := []fill.Type{fill.RandomBetween{Lower: 1, Upper: 5}, fill.ValueFrom{Values: []int32{7, 8, 9}}}
	if diff := cmp.Diff(wantTypes, fills[0].Types()); diff != "" {
		t.Errorf("fill types mismatch (-want +got):\n%s", diff)
	}
	if fills[0].Smooth() != 2 || fills[0].PresetOrdered() {
		t.Errorf("fill = smooth %d, ordered %v", fills[0].Smooth(), fills[0].PresetOrdered())
	}

	opts, err := r.Options()
	if err != nil {
		t.Fatalf("Options: %v", err)
	}
	if diff := cmp.Diff(model.Options{Seed: 42, Parallelism: 4, Validation: model.ValidateWarn}, opts); diff != "" {
		t.Errorf("Options mismatch (-want +got):\n%s", diff)
	}
}

func TestDefaultMatchesDefaultParams(t *testing.T) {
	p, err := Default().Params()
	if err != nil {
		t.Fatalf("Params: %v", err)
	}
	want := model.DefaultParams()
	if p.Rows() != want.Rows() || p.Cols() != want.Cols() {
		t.Errorf("default recipe is %dx%d, want %dx%d", p.Rows(), p.Cols(), want.Rows(), want.Cols())
	}
	if p.Borders().NumberOfBorders() != want.Borders().NumberOfBorders() {
		t.Errorf("default recipe has %d borders", p.Borders().NumberOfBorders())
	}
	if len(p.FillValues()) != 1 {
		t.Errorf("omitted fill should default to one entry, got %d", len(p.FillValues()))
	}
}

func TestRecipeErrors(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(r *Recipe)
		wantCode errors.Code
	}{
		{"reversed axis", func(r *Recipe) { r.AxisX.Start, r.AxisX.End = 10, 1 }, errors.ErrCodeInvalidRange},
		{"unknown axis mode", func(r *Recipe) { r.AxisX.Mode = "spiral" }, errors.ErrCodeInvalidInput},
		{"unordered points", func(r *Recipe) { r.AxisY = &Axis{Mode: ModePointsAsEdges, Points: []float64{3, 1}} }, errors.ErrCodeNotOrderedVec},
		{"zero borders", func(r *Recipe) { r.Borders.Count = 0 }, errors.ErrCodeIncorrectBordersCount},
		{"unknown border type", func(r *Recipe) { r.Borders.Types = []string{"perlin"} }, errors.ErrCodeIncorrectBordersTypes},
		{"limits triple", func(r *Recipe) { r.Borders.Limits = [][]uint32{{1, 2, 3}} }, errors.ErrCodeIncorrectBordersLimits},
		{"reversed limits", func(r *Recipe) { r.Borders.Limits = [][]uint32{{9, 1}} }, errors.ErrCodeIncorrectBordersLimits},
		{"empty fill", func(r *Recipe) { r.Fill = []Fill{{}} }, errors.ErrCodeNotEnoughFillValues},
		{"fill range single", func(r *Recipe) { r.Fill = []Fill{{RandomBetween: [][]int32{{1}}}} }, errors.ErrCodeIncorrectFillLimits},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Default()
			tt.mutate(r)
			_, err := r.Params()
			if !errors.Is(err, tt.wantCode) {
				t.Errorf("Params() error = %v, want code %s", err, tt.wantCode)
			}
		})
	}
}

func TestParseRejectsUnknownFields(t *testing.T) {
	tests := []struct {
		format Format
		input  string
	}{
		{FormatTOML, "nmae = \"typo\"\n"},
		{FormatYAML, "nmae: typo\n"},
		{FormatJSON, `{"nmae": "typo"}`},
		{FormatJSON, `{"name": `},
		{Format("ini"), "name=x"},
	}
	for _, tt := range tests {
		if _, err := Parse([]byte(tt.input), tt.format); !errors.Is(err, errors.ErrCodeInvalidFormat) {
			t.Errorf("Parse(%s, %q) error = %v, want %s", tt.format, tt.input, err, errors.ErrCodeInvalidFormat)
		}
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "basin.yml")
	if err := os.WriteFile(path, []byte("axis_x:\n  mode: centers\n  start: 0\n  end: 4\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	r, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if r.Name != "basin" {
		t.Errorf("Name = %q, want name from file", r.Name)
	}
	if r.AxisX.Mode != ModeCenters || r.AxisX.End != 4 {
		t.Errorf("AxisX = %+v", r.AxisX)
	}

	if _, err := Load(filepath.Join(dir, "basin.ini")); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("Load(.ini) error = %v", err)
	}
	if _, err := Load(filepath.Join(dir, "missing.toml")); err == nil {
		t.Error("Load of a missing file should fail")
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	want := Default()
	want.Seed = 7
	for _, format := range []Format{FormatTOML, FormatYAML, FormatJSON} {
		data, err := Encode(want, format)
		if err != nil {
			t.Fatalf("Encode(%s): %v", format, err)
		}
		got, err := Parse(data, format)
		if err != nil {
			t.Fatalf("Parse(%s): %v\n%s", format, err, data)
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("%s round trip mismatch (-want +got):\n%s", format, diff)
		}
	}
}
