package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/grunt/pkg/layer"
	"github.com/matzehuels/grunt/pkg/model"
)

// Viewer styles
var (
	viewTabActiveStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	viewTabStyle       = lipgloss.NewStyle().Foreground(colorDim)
	viewDimStyle       = lipgloss.NewStyle().Foreground(colorDim)
	viewBadCellStyle   = lipgloss.NewStyle().Foreground(colorRed).Bold(true)

	// viewRamp shades cells from the low to the high end of the layer limits.
	viewRamp = []lipgloss.Color{"24", "31", "37", "72", "107", "143", "179", "173"}
)

// =============================================================================
// LayerViewModel - Interactive layer browser
// =============================================================================

// LayerViewModel is the bubbletea model for browsing the layers of a model.
type LayerViewModel struct {
	Name   string
	Model  *model.Model
	Index  int
	Offset int
	Height int

	bad []map[[2]int]bool
}

// NewLayerViewModel creates a viewer positioned on the first layer.
func NewLayerViewModel(name string, m *model.Model) LayerViewModel {
	v := LayerViewModel{
		Name:   name,
		Model:  m,
		Height: 20,
		bad:    make([]map[[2]int]bool, len(m.Borders)),
	}
	for _, w := range m.Warnings {
		if w.Layer < 0 || w.Layer >= len(v.bad) {
			continue
		}
		cells := make(map[[2]int]bool, len(w.Violations))
		for _, vi := range w.Violations {
			cells[[2]int{vi.Row, vi.Col}] = true
		}
		v.bad[w.Layer] = cells
	}
	return v
}

func (m LayerViewModel) Init() tea.Cmd {
	return nil
}

func (m LayerViewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "left", "h":
			if m.Index > 0 {
				m.Index--
				m.Offset = 0
			}
		case "right", "l", "tab":
			if m.Index < len(m.Model.Borders)-1 {
				m.Index++
				m.Offset = 0
			}
		case "up", "k":
			if m.Offset > 0 {
				m.Offset--
			}
		case "down", "j":
			if m.Offset < m.rows()-m.Height {
				m.Offset++
			}
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-10, 5)
		m.Offset = min(m.Offset, max(m.rows()-m.Height, 0))
	}
	return m, nil
}

func (m LayerViewModel) rows() int {
	if len(m.Model.Borders) == 0 {
		return 0
	}
	return m.Model.Borders[m.Index].Rows()
}

func (m LayerViewModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(m.Name))
	b.WriteString("\n")
	b.WriteString(viewDimStyle.Render("←/→ layer  ↑/↓ scroll  q quit"))
	b.WriteString("\n\n")

	if len(m.Model.Borders) == 0 {
		b.WriteString(viewDimStyle.Render("  no layers"))
		return b.String()
	}

	for i := range m.Model.Borders {
		tab := fmt.Sprintf(" %d ", i)
		if i == m.Index {
			b.WriteString(viewTabActiveStyle.Render("[" + tab + "]"))
		} else {
			b.WriteString(viewTabStyle.Render(" " + tab + " "))
		}
	}
	b.WriteString("\n")

	l := m.Model.Borders[m.Index]
	limits := layerLimits(m.Model, m.Index, l)
	if m.Model.Params != nil {
		typ, _ := m.Model.Params.Borders().Recipe(m.Index)
		b.WriteString(viewDimStyle.Render(fmt.Sprintf("  %s %s", typ, limits)))
		b.WriteString("\n")
	}

	end := min(m.Offset+m.Height, l.Rows())
	rows := make([][]string, 0, end-m.Offset)
	for r := m.Offset; r < end; r++ {
		cells := make([]string, l.Cols()+1)
		cells[0] = strconv.Itoa(r)
		for c, v := range l[r] {
			cells[c+1] = strconv.FormatUint(uint64(v), 10)
		}
		rows = append(rows, cells)
	}

	headers := make([]string, l.Cols()+1)
	for c := range l.Cols() {
		headers[c+1] = strconv.Itoa(c)
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	bad := m.bad[m.Index]
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 || col == 0 {
				return headerStyle
			}
			r, c := m.Offset+row, col-1
			if bad[[2]int{r, c}] {
				return viewBadCellStyle
			}
			return cellStyle(l[r][c], limits)
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	lo, hi := l.Bounds()
	b.WriteString(viewDimStyle.Render(fmt.Sprintf("  layer %d/%d  rows %d-%d of %d  values %d..%d",
		m.Index+1, len(m.Model.Borders), m.Offset, end-1, l.Rows(), lo, hi)))

	return b.String()
}

// =============================================================================
// Helpers
// =============================================================================

// layerLimits returns the recipe limits of layer i, or the layer's own value
// range when the model carries no params.
func layerLimits(m *model.Model, i int, l layer.Layer) layer.Limits {
	if m.Params != nil {
		_, limits := m.Params.Borders().Recipe(i)
		return limits
	}
	lo, hi := l.Bounds()
	return layer.NewLimits(lo, hi)
}

// cellStyle shades v by its position within limits.
func cellStyle(v uint32, limits layer.Limits) lipgloss.Style {
	if !limits.Contains(v) {
		return viewBadCellStyle
	}
	span := limits.Max() - limits.Min()
	idx := 0
	if span > 0 {
		idx = int(uint64(v-limits.Min()) * uint64(len(viewRamp)-1) / uint64(span))
	}
	return lipgloss.NewStyle().Foreground(viewRamp[idx])
}

func formatRelativeTime(t time.Time) string {
	diff := time.Since(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	default:
		return t.Local().Format("Jan 2, 2006")
	}
}
