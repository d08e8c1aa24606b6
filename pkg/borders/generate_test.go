package borders

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/grunt/pkg/layer"
)

func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0xdeadbeef))
}

func TestGenerateRandom(t *testing.T) {
	tests := []struct {
		name       string
		rows, cols int
		limits     Limits
	}{
		{"square", 14, 14, Limits{5, 10}},
		{"wide", 2, 40, Limits{0, 1000}},
		{"single value", 5, 5, Limits{7, 7}},
		{"full range", 8, 8, Limits{0, math.MaxUint32}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for seed := range uint64(20) {
				l := Generate(newRand(seed), tt.rows, tt.cols, Random{}, tt.limits)
				if l.Rows() != tt.rows || l.Cols() != tt.cols {
					t.Fatalf("layer is %dx%d, want %dx%d", l.Rows(), l.Cols(), tt.rows, tt.cols)
				}
				if err := layer.Validate(l, tt.limits); err != nil {
					t.Fatalf("seed %d: %v", seed, err)
				}
			}
		})
	}
}

func TestGenerateRandomCoversRange(t *testing.T) {
	l := Generate(newRand(1), 14, 14, Random{}, Limits{0, 3})
	seen := map[uint32]bool{}
	for _, row := range l {
		for _, v := range row {
			seen[v] = true
		}
	}
	for v := range uint32(4) {
		if !seen[v] {
			t.Errorf("value %d never drawn from [0,3] in 196 cells", v)
		}
	}
}

func TestGenerateRandomWithStep(t *testing.T) {
	tests := []struct {
		name       string
		rows, cols int
		step       uint16
		limits     Limits
	}{
		{"typical", 14, 14, 3, Limits{35, 89}},
		{"step wider than limits", 10, 10, 50, Limits{10, 20}},
		{"step above max", 6, 6, math.MaxUint16, Limits{0, 2}},
		{"zero step", 5, 7, 0, Limits{100, 200}},
		{"limits at zero", 12, 12, 1, Limits{0, 3}},
		{"limits at top", 12, 12, 2, Limits{math.MaxUint32 - 4, math.MaxUint32}},
		{"single row", 1, 30, 2, Limits{0, 100}},
		{"single column", 30, 1, 2, Limits{0, 100}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			typ := RandomWithStep{MaxStep: tt.step, Probability: 1}
			for seed := range uint64(50) {
				l := Generate(newRand(seed), tt.rows, tt.cols, typ, tt.limits)
				checkWalk(t, l, tt.limits, uint32(tt.step))
			}
		})
	}
}

// checkWalk verifies limits and neighbor steps cell by cell, since Validate
// rejects layers narrower than 2.
func checkWalk(t *testing.T, l layer.Layer, limits Limits, step uint32) {
	t.Helper()
	for r, row := range l {
		for c, v := range row {
			if !limits.Contains(v) {
				t.Fatalf("cell (%d,%d) = %d outside %v", r, c, v, limits)
			}
			if c > 0 && diff(v, row[c-1]) > step {
				t.Fatalf("cell (%d,%d) = %d, left = %d, step %d", r, c, v, row[c-1], step)
			}
			if r > 0 && diff(v, l[r-1][c]) > step {
				t.Fatalf("cell (%d,%d) = %d, up = %d, step %d", r, c, v, l[r-1][c], step)
			}
		}
	}
}

func diff(a, b uint32) uint32 {
	if a > b {
		return a - b
	}
	return b - a
}

func TestGenerateZeroStepIsConstant(t *testing.T) {
	l := Generate(newRand(3), 6, 6, RandomWithStep{}, Limits{0, 1000})
	lo, hi := l.Bounds()
	if lo != hi {
		t.Errorf("zero step produced values %d..%d, want a constant layer", lo, hi)
	}
}

func TestGenerateReproducible(t *testing.T) {
	for _, typ := range []Type{Random{}, RandomWithStep{MaxStep: 4}} {
		a := Generate(newRand(42), 9, 11, typ, Limits{0, 500})
		b := Generate(newRand(42), 9, 11, typ, Limits{0, 500})
		if d := cmp.Diff(a, b); d != "" {
			t.Errorf("%v: same seed gave different layers (-a +b):\n%s", typ, d)
		}
	}
}

func TestGenerateEmptyDimensions(t *testing.T) {
	for _, dims := range [][2]int{{0, 5}, {5, 0}, {-1, 3}} {
		l := Generate(newRand(1), dims[0], dims[1], Random{}, Limits{1, 2})
		if l.Rows() != 0 {
			t.Errorf("Generate(%d, %d) = %dx%d, want empty", dims[0], dims[1], l.Rows(), l.Cols())
		}
	}
}

func TestGenerateModelBorders(t *testing.T) {
	p, err := NewParams(3,
		[]Type{RandomWithStep{MaxStep: 3, Probability: 1.0}},
		[]Limits{{35, 89}, {75, 114}, {95, 129}})
	if err != nil {
		t.Fatal(err)
	}

	rng := newRand(2024)
	for i := range p.NumberOfBorders() {
		typ, limits := p.Recipe(i)
		l := Generate(rng, 14, 14, typ, limits)
		if err := layer.Validate(l, limits, layer.WithMaxStep(3)); err != nil {
			t.Errorf("layer %d: %v", i, err)
		}
	}
}
