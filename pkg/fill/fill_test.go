package fill

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/grunt/pkg/errors"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name  string
		types []Type
		want  errors.Code
	}{
		{"range", []Type{RandomBetween{Lower: 1, Upper: 10}}, ""},
		{"degenerate range", []Type{RandomBetween{Lower: -3, Upper: -3}}, ""},
		{"set", []Type{ValueFrom{Values: []int32{4, 2}}}, ""},
		{"empty list", nil, ""},
		{"reversed range", []Type{RandomBetween{Lower: 10, Upper: 1}}, errors.ErrCodeIncorrectFillLimits},
		{"empty set", []Type{RandomBetween{Lower: 1, Upper: 2}, ValueFrom{}}, errors.ErrCodeNotEnoughFillValues},
		{"nil type", []Type{nil}, errors.ErrCodeNotEnoughFillValues},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := New(tt.types, 2, false)
			if tt.want == "" {
				if err != nil {
					t.Fatalf("New() error = %v", err)
				}
				if v.Smooth() != 2 || v.PresetOrdered() {
					t.Errorf("New() = smooth %d ordered %v", v.Smooth(), v.PresetOrdered())
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("New() error = %v, want code %s", err, tt.want)
			}
		})
	}
}

func TestNewCopiesValueSets(t *testing.T) {
	set := []int32{1, 2, 3}
	v, err := New([]Type{ValueFrom{Values: set}}, 0, true)
	if err != nil {
		t.Fatal(err)
	}
	set[0] = 99
	if got := v.Types()[0].(ValueFrom).Values[0]; got != 1 {
		t.Errorf("value set changed through caller slice: %d", got)
	}
}

func TestDefault(t *testing.T) {
	v := Default()
	if diff := cmp.Diff([]Type{RandomBetween{Lower: 1, Upper: 10}}, v.Types()); diff != "" {
		t.Errorf("types mismatch (-want +got):\n%s", diff)
	}
	if v.Smooth() != 0 || !v.PresetOrdered() {
		t.Errorf("Default() = smooth %d ordered %v", v.Smooth(), v.PresetOrdered())
	}
}

func TestJSON(t *testing.T) {
	v, err := New([]Type{RandomBetween{Lower: 1, Upper: 10}, ValueFrom{Values: []int32{7, 8}}}, 3, true)
	if err != nil {
		t.Fatal(err)
	}
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"types":[{"random_between":{"lower":1,"upper":10}},{"value_from":{"values":[7,8]}}],"smooth":3,"preset_ordered":true}`
	if string(data) != want {
		t.Errorf("Marshal = %s\nwant %s", data, want)
	}

	var got Values
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(v.Types(), got.Types()); diff != "" {
		t.Errorf("types mismatch (-want +got):\n%s", diff)
	}

	bad := []string{
		`{"types":[{}]}`,
		`{"types":[{"random_between":{"lower":1,"upper":2},"value_from":{"values":[1]}}]}`,
	}
	for _, in := range bad {
		if err := json.Unmarshal([]byte(in), &got); !errors.Is(err, errors.ErrCodeInvalidFormat) {
			t.Errorf("Unmarshal(%s) error = %v, want %s", in, err, errors.ErrCodeInvalidFormat)
		}
	}
	if err := json.Unmarshal([]byte(`{"types":[{"random_between":{"lower":5,"upper":2}}]}`), &got); !errors.Is(err, errors.ErrCodeIncorrectFillLimits) {
		t.Errorf("Unmarshal(reversed) error = %v", err)
	}
}
