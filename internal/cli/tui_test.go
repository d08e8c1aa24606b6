package cli

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/grunt/pkg/layer"
	"github.com/matzehuels/grunt/pkg/model"
)

func key(s string) tea.KeyMsg {
	switch s {
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, m LayerViewModel, keys ...string) LayerViewModel {
	t.Helper()
	for _, k := range keys {
		next, _ := m.Update(key(k))
		m = next.(LayerViewModel)
	}
	return m
}

func TestLayerViewNavigation(t *testing.T) {
	m := NewLayerViewModel("deposit", generated(t))

	tests := []struct {
		name      string
		keys      []string
		wantIndex int
	}{
		{"start", nil, 0},
		{"next", []string{"right"}, 1},
		{"clamped at last", []string{"right", "right", "l"}, 1},
		{"back", []string{"right", "left"}, 0},
		{"clamped at first", []string{"h", "left"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := press(t, m, tt.keys...)
			if got.Index != tt.wantIndex {
				t.Errorf("Index = %d, want %d", got.Index, tt.wantIndex)
			}
		})
	}
}

func TestLayerViewScroll(t *testing.T) {
	m := NewLayerViewModel("deposit", generated(t))
	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 14})
	m = next.(LayerViewModel)
	if m.Height != 5 {
		t.Fatalf("Height = %d, want 5", m.Height)
	}

	m = press(t, m, "down", "down", "j")
	if m.Offset != 3 {
		t.Errorf("Offset = %d, want 3", m.Offset)
	}
	m = press(t, m, "down", "down", "down", "down")
	if m.Offset != 4 {
		t.Errorf("Offset = %d, want 4 (9 rows, 5 visible)", m.Offset)
	}
	m = press(t, m, "right")
	if m.Offset != 0 {
		t.Errorf("switching layers kept Offset %d", m.Offset)
	}
}

func TestLayerViewQuit(t *testing.T) {
	m := NewLayerViewModel("deposit", generated(t))
	for _, k := range []string{"q", "esc"} {
		msg := key(k)
		if k == "esc" {
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		}
		_, cmd := m.Update(msg)
		if cmd == nil {
			t.Fatalf("%s: no command returned", k)
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Errorf("%s does not quit", k)
		}
	}
}

func TestLayerViewRender(t *testing.T) {
	gen := generated(t)
	out := NewLayerViewModel("deposit", gen).View()
	for _, want := range []string{"deposit", "[ 0 ]", "random [5,10]", "layer 1/2"} {
		if !strings.Contains(out, want) {
			t.Errorf("View() lacks %q:\n%s", want, out)
		}
	}

	empty := NewLayerViewModel("empty", &model.Model{})
	if out := empty.View(); !strings.Contains(out, "no layers") {
		t.Errorf("empty View() = %q", out)
	}
}

func TestLayerViewMarksViolations(t *testing.T) {
	gen := generated(t)
	gen.Warnings = []model.Warning{{Layer: 1, Violations: []layer.Violation{{Kind: layer.OutOfBounds, Row: 2, Col: 3}}}}
	m := NewLayerViewModel("deposit", gen)
	if !m.bad[1][[2]int{2, 3}] {
		t.Error("violation of layer 1 not marked")
	}
	if len(m.bad[0]) != 0 {
		t.Errorf("layer 0 marks = %v, want none", m.bad[0])
	}
}

func TestLayerLimitsWithoutParams(t *testing.T) {
	l := layer.Layer{{3, 9}, {4, 7}}
	got := layerLimits(&model.Model{Borders: []layer.Layer{l}}, 0, l)
	if want := layer.NewLimits(3, 9); got != want {
		t.Errorf("layerLimits = %v, want %v", got, want)
	}
}
