package model

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/grunt/pkg/axis"
	"github.com/matzehuels/grunt/pkg/borders"
	"github.com/matzehuels/grunt/pkg/errors"
	"github.com/matzehuels/grunt/pkg/fill"
	"github.com/matzehuels/grunt/pkg/layer"
	"github.com/matzehuels/grunt/pkg/observability"
)

func stepParams(t *testing.T) *Params3D {
	t.Helper()
	ax, err := axis.GenerateOnEdges(1, 15, nil)
	if err != nil {
		t.Fatal(err)
	}
	b, err := borders.NewParams(3,
		[]borders.Type{borders.RandomWithStep{MaxStep: 3, Probability: 1.0}},
		[]borders.Limits{{35, 89}, {75, 114}, {95, 129}})
	if err != nil {
		t.Fatal(err)
	}
	p, err := NewParams3D(ax, ax, b, fill.Default())
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestGenerateShape(t *testing.T) {
	ax, _ := axis.GenerateOnEdges(1, 5, nil)  // 4 blocks
	ay, _ := axis.GenerateOnEdges(1, 10, nil) // 9 blocks
	p, err := NewParams3D(ax, ay, borders.Default())
	if err != nil {
		t.Fatal(err)
	}

	m, err := Generate(context.Background(), p, Options{Seed: 1})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if m.NumberOfBorders() != 2 {
		t.Fatalf("NumberOfBorders() = %d, want 2", m.NumberOfBorders())
	}
	for i, l := range m.Borders {
		if l.Rows() != 9 || l.Cols() != 4 {
			t.Errorf("layer %d is %dx%d, want 9x4", i, l.Rows(), l.Cols())
		}
		_, limits := p.Borders().Recipe(i)
		if err := layer.Validate(l, limits); err != nil {
			t.Errorf("layer %d: %v", i, err)
		}
	}
	if m.Params != p {
		t.Error("model must share its params")
	}
}

func TestGenerateStepModelIsValid(t *testing.T) {
	p := stepParams(t)
	for seed := uint64(1); seed <= 20; seed++ {
		m, err := Generate(context.Background(), p, Options{Seed: seed, Validation: ValidateStrict})
		if err != nil {
			t.Fatalf("seed %d: %v", seed, err)
		}
		if len(m.Warnings) != 0 {
			t.Errorf("seed %d: unexpected warnings %v", seed, m.Warnings)
		}
		if m.Borders[0].Rows() != 14 || m.Borders[0].Cols() != 14 {
			t.Fatalf("layer is %dx%d, want 14x14", m.Borders[0].Rows(), m.Borders[0].Cols())
		}
	}
}

func TestGenerateDeterministic(t *testing.T) {
	p := stepParams(t)
	seq, err := Generate(context.Background(), p, Options{Seed: 99})
	if err != nil {
		t.Fatal(err)
	}
	par, err := Generate(context.Background(), p, Options{Seed: 99, Parallelism: 4})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(seq.Borders, par.Borders); diff != "" {
		t.Errorf("parallel output differs from sequential (-seq +par):\n%s", diff)
	}
	if seq.ID == par.ID {
		t.Error("each model needs its own ID")
	}

	other, err := Generate(context.Background(), p, Options{Seed: 100})
	if err != nil {
		t.Fatal(err)
	}
	if cmp.Equal(seq.Borders, other.Borders) {
		t.Error("different seeds produced identical models")
	}
}

func TestGenerateRecordsSeed(t *testing.T) {
	p := stepParams(t)
	m, err := Generate(context.Background(), p, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if m.Seed == 0 {
		t.Fatal("a fresh seed should be recorded on the model")
	}
	again, err := m.Regenerate(context.Background(), Options{Seed: m.Seed})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(m.Borders, again.Borders); diff != "" {
		t.Errorf("regenerating with the recorded seed differs (-first +again):\n%s", diff)
	}
}

func TestGenerateValidationModes(t *testing.T) {
	// A single block per axis always yields LayerTooSmall.
	ax, err := axis.FromPointsAsEdges([]float64{0, 1})
	if err != nil {
		t.Fatal(err)
	}
	p, err := NewParams3D(ax, ax, borders.Default())
	if err != nil {
		t.Fatal(err)
	}

	m, err := Generate(context.Background(), p, Options{Seed: 5, Validation: ValidateOff})
	if err != nil || len(m.Warnings) != 0 {
		t.Errorf("off: model %v, err %v", m, err)
	}

	m, err = Generate(context.Background(), p, Options{Seed: 5, Validation: ValidateWarn})
	if err != nil {
		t.Fatalf("warn: %v", err)
	}
	want := []Warning{
		{Layer: 0, Violations: []layer.Violation{{Kind: layer.LayerTooSmall}}},
		{Layer: 1, Violations: []layer.Violation{{Kind: layer.LayerTooSmall}}},
	}
	if diff := cmp.Diff(want, m.Warnings); diff != "" {
		t.Errorf("warnings mismatch (-want +got):\n%s", diff)
	}

	for _, par := range []int{0, 3} {
		m, err = Generate(context.Background(), p, Options{Seed: 5, Validation: ValidateStrict, Parallelism: par})
		if m != nil {
			t.Error("strict: model returned with error")
		}
		if !errors.Is(err, errors.ErrCodeLayerValidation) {
			t.Fatalf("strict: error = %v, want %s", err, errors.ErrCodeLayerValidation)
		}
		var verr *layer.ValidationError
		if !stderrors.As(err, &verr) {
			t.Errorf("strict error should wrap *layer.ValidationError: %v", err)
		}
	}
}

func TestGenerateCancelled(t *testing.T) {
	p := stepParams(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, par := range []int{1, 4} {
		m, err := Generate(ctx, p, Options{Seed: 1, Parallelism: par})
		if m != nil || !stderrors.Is(err, context.Canceled) {
			t.Errorf("parallelism %d: model %v, err %v; want context.Canceled", par, m, err)
		}
	}
}

func TestGenerateNilParams(t *testing.T) {
	if _, err := Generate(context.Background(), nil, Options{}); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("error = %v, want %s", err, errors.ErrCodeInvalidInput)
	}
}

func TestGenerateHooks(t *testing.T) {
	h := &recordingHooks{}
	observability.SetGenerationHooks(h)
	defer observability.Reset()

	if _, err := Generate(context.Background(), stepParams(t), Options{Seed: 3, Parallelism: 2}); err != nil {
		t.Fatal(err)
	}
	if h.started != 1 || h.completed != 1 || h.layers != 3 {
		t.Errorf("hooks: started %d, completed %d, layers %d", h.started, h.completed, h.layers)
	}
}

type recordingHooks struct {
	observability.NoopGenerationHooks
	mu sync.Mutex

	started   int
	completed int
	layers    int
}

func (h *recordingHooks) OnGenerateStart(context.Context, int, int, int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.started++
}

func (h *recordingHooks) OnGenerateComplete(context.Context, int, time.Duration, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.completed++
}

func (h *recordingHooks) OnLayerGenerated(context.Context, int, string, time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.layers++
}

func TestParseValidationMode(t *testing.T) {
	for _, mode := range []ValidationMode{ValidateOff, ValidateWarn, ValidateStrict} {
		got, err := ParseValidationMode(mode.String())
		if err != nil || got != mode {
			t.Errorf("ParseValidationMode(%q) = %v, %v", mode.String(), got, err)
		}
	}
	if _, err := ParseValidationMode("loud"); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("ParseValidationMode(loud) error = %v", err)
	}
}

func TestNewParams3D(t *testing.T) {
	ax := axis.Default()
	if _, err := NewParams3D(nil, ax, borders.Default()); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("nil axis: %v", err)
	}
	if _, err := NewParams3D(ax, ax, nil); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("nil borders: %v", err)
	}
	if _, err := NewParams3D(ax, ax, borders.Default(), nil); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("nil fill values: %v", err)
	}

	p := DefaultParams()
	if p.AxisX() != p.AxisY() {
		t.Error("default params share one axis")
	}
	if p.Rows() != 9 || p.Cols() != 9 || len(p.FillValues()) != 1 {
		t.Errorf("DefaultParams() = %dx%d with %d fill values", p.Rows(), p.Cols(), len(p.FillValues()))
	}
}

func TestParams3DJSON(t *testing.T) {
	p := stepParams(t)
	data, err := json.Marshal(p)
	if err != nil {
		t.Fatal(err)
	}
	var got Params3D
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got.Rows() != p.Rows() || got.Cols() != p.Cols() {
		t.Errorf("decoded grid %dx%d, want %dx%d", got.Rows(), got.Cols(), p.Rows(), p.Cols())
	}
	if diff := cmp.Diff(p.Borders().Limits(), got.Borders().Limits()); diff != "" {
		t.Errorf("limits mismatch (-want +got):\n%s", diff)
	}

	if err := json.Unmarshal([]byte(`{"axis_x":null}`), &got); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("Unmarshal(missing axes) error = %v", err)
	}
}
