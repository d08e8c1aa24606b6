package layer

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNew(t *testing.T) {
	l := New(3, 4)
	if l.Rows() != 3 || l.Cols() != 4 {
		t.Fatalf("New(3, 4) = %dx%d", l.Rows(), l.Cols())
	}
	l[0] = append(l[0], 9)
	if l[1][0] != 0 {
		t.Error("appending to a row must not overwrite the next row")
	}

	if got := New(0, 5); got.Rows() != 0 || got.Cols() != 0 {
		t.Errorf("New(0, 5) = %dx%d, want empty", got.Rows(), got.Cols())
	}
}

func TestCloneAndBounds(t *testing.T) {
	l := Layer{{5, 7}, {3, 9}}
	c := l.Clone()
	c[0][0] = 100
	if l[0][0] != 5 {
		t.Error("Clone shares storage with the original")
	}
	if lo, hi := l.Bounds(); lo != 3 || hi != 9 {
		t.Errorf("Bounds() = %d, %d, want 3, 9", lo, hi)
	}
	if got, want := l.String(), "5 7\n3 9"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestLimits(t *testing.T) {
	l := NewLimits(5, 10)
	if l.Min() != 5 || l.Max() != 10 || !l.Valid() {
		t.Errorf("NewLimits(5, 10) = %v", l)
	}
	if NewLimits(10, 5).Valid() {
		t.Error("[10,5] should be invalid")
	}
	if !l.Contains(5) || !l.Contains(10) || l.Contains(4) || l.Contains(11) {
		t.Error("Contains must be inclusive on both ends")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		layer Layer
		lim   Limits
		opts  []Option
		want  []Violation
	}{
		{
			name:  "clean without step",
			layer: Layer{{5, 10}, {7, 5}},
			lim:   Limits{5, 10},
		},
		{
			name:  "clean with step",
			layer: Layer{{5, 6, 7}, {6, 7, 8}},
			lim:   Limits{5, 10},
			opts:  []Option{WithMaxStep(1)},
		},
		{
			name:  "too few rows",
			layer: Layer{{5, 6, 7}},
			lim:   Limits{0, 1},
			want:  []Violation{{Kind: LayerTooSmall}},
		},
		{
			name:  "too few columns",
			layer: Layer{{5}, {6}},
			lim:   Limits{5, 10},
			want:  []Violation{{Kind: LayerTooSmall}},
		},
		{
			name:  "empty",
			layer: Layer{},
			lim:   Limits{5, 10},
			want:  []Violation{{Kind: LayerTooSmall}},
		},
		{
			name:  "out of bounds collected",
			layer: Layer{{4, 5}, {10, 11}},
			lim:   Limits{5, 10},
			want: []Violation{
				{Kind: OutOfBounds, Row: 0, Col: 0},
				{Kind: OutOfBounds, Row: 1, Col: 1},
			},
		},
		{
			name:  "step violations",
			layer: Layer{{5, 9}, {8, 9}},
			lim:   Limits{5, 10},
			opts:  []Option{WithMaxStep(2)},
			want: []Violation{
				{Kind: StepViolationLeft, Row: 0, Col: 1},
				{Kind: StepViolationUp, Row: 1, Col: 0},
			},
		},
		{
			name:  "step ignored without option",
			layer: Layer{{5, 9}, {8, 9}},
			lim:   Limits{5, 10},
		},
		{
			name:  "zero step allows only constant layers",
			layer: Layer{{5, 5}, {5, 6}},
			lim:   Limits{5, 10},
			opts:  []Option{WithMaxStep(0)},
			want: []Violation{
				{Kind: StepViolationLeft, Row: 1, Col: 1},
				{Kind: StepViolationUp, Row: 1, Col: 1},
			},
		},
		{
			name:  "all kinds at one cell",
			layer: Layer{{0, 0}, {0, 50}},
			lim:   Limits{0, 10},
			opts:  []Option{WithMaxStep(3)},
			want: []Violation{
				{Kind: OutOfBounds, Row: 1, Col: 1},
				{Kind: StepViolationLeft, Row: 1, Col: 1},
				{Kind: StepViolationUp, Row: 1, Col: 1},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.layer, tt.lim, tt.opts...)
			if tt.want == nil {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Validate() = %v, want *ValidationError", err)
			}
			if diff := cmp.Diff(tt.want, verr.Violations); diff != "" {
				t.Errorf("violations mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestValidationErrorMessage(t *testing.T) {
	l := New(2, 10)
	err := Validate(l, Limits{1, 2})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Validate() = %v", err)
	}
	if verr.Count(OutOfBounds) != 20 {
		t.Errorf("Count(OutOfBounds) = %d, want 20", verr.Count(OutOfBounds))
	}
	msg := err.Error()
	if !strings.HasPrefix(msg, "layer has 20 violation(s): out_of_bounds(0,0)") || !strings.HasSuffix(msg, ", ...") {
		t.Errorf("Error() = %q", msg)
	}
}

func TestViolationJSON(t *testing.T) {
	data, err := json.Marshal(Violation{Kind: StepViolationUp, Row: 2, Col: 3})
	if err != nil {
		t.Fatal(err)
	}
	if got, want := string(data), `{"kind":"step_violation_up","row":2,"col":3}`; got != want {
		t.Errorf("Marshal = %s, want %s", got, want)
	}
}
