package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/grunt/pkg/model"
)

// Palette
var (
	colorCyan   = lipgloss.Color("36")
	colorGreen  = lipgloss.Color("35")
	colorYellow = lipgloss.Color("220")
	colorRed    = lipgloss.Color("167")
	colorBlue   = lipgloss.Color("75")
	colorWhite  = lipgloss.Color("255")
	colorGray   = lipgloss.Color("245")
	colorDim    = lipgloss.Color("240")
)

var (
	StyleTitle   = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	StyleDim     = lipgloss.NewStyle().Foreground(colorDim)
	StyleValue   = lipgloss.NewStyle().Foreground(colorWhite)
	StyleNumber  = lipgloss.NewStyle().Foreground(colorCyan)
	StyleSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)

	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)
	styleCommand     = lipgloss.NewStyle().Foreground(colorBlue)
	styleKey         = lipgloss.NewStyle().Foreground(colorGray).Width(12)
)

const (
	iconSuccess = "✓"
	iconArrow   = "→"
	iconCached  = "cached"
	iconFresh   = "fresh"
)

// marker is a colored status glyph that prefixes a line of output.
type marker struct {
	glyph                 string
	glyphStyle, textStyle lipgloss.Style
}

var (
	markSuccess = marker{iconSuccess, StyleSuccess, lipgloss.NewStyle()}
	markError   = marker{"✗", lipgloss.NewStyle().Foreground(colorRed), lipgloss.NewStyle()}
	markWarning = marker{"!", StyleWarning, StyleWarning}
	markInfo    = marker{"›", lipgloss.NewStyle().Foreground(colorGray), lipgloss.NewStyle()}
)

func (m marker) line(format string, args ...any) string {
	return m.glyphStyle.Render(m.glyph) + " " + m.textStyle.Render(fmt.Sprintf(format, args...))
}

func printSuccess(format string, args ...any) { fmt.Println(markSuccess.line(format, args...)) }
func printError(format string, args ...any)   { fmt.Println(markError.line(format, args...)) }
func printWarning(format string, args ...any) { fmt.Println(markWarning.line(format, args...)) }
func printInfo(format string, args ...any)    { fmt.Println(markInfo.line(format, args...)) }

// printDetail prints an indented, dimmed line under a status line.
func printDetail(format string, args ...any) {
	fmt.Println("  " + StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile prints the path of a written file.
func printFile(path string) {
	fmt.Printf("  %s %s\n", StyleDim.Render(iconArrow), StyleValue.Render(path))
}

func printKeyValue(key, value string) {
	fmt.Println(styleKey.Render(key) + " " + StyleValue.Render(value))
}

// printNextStep suggests a follow-up command.
func printNextStep(description, cmd string) {
	fmt.Println(StyleDim.Render(description+":") + " " + styleCommand.Render(cmd))
}

// statsLine renders model dimensions and cache status on a single line, e.g.
// "2 layers · 9×9 blocks · cached".
func statsLine(layers, rows, cols int, cached bool) string {
	status := lipgloss.NewStyle().Foreground(colorGray).Render(iconFresh)
	if cached {
		status = StyleSuccess.Render(iconCached)
	}
	sep := StyleDim.Render(" · ")
	return "  " + strings.Join([]string{
		StyleDim.Render(fmt.Sprintf("%d layers", layers)),
		StyleDim.Render(fmt.Sprintf("%d×%d blocks", rows, cols)),
		status,
	}, sep)
}

func printStats(layers, rows, cols int, cached bool) {
	fmt.Println(statsLine(layers, rows, cols, cached))
}

// maxListedViolations bounds the violations printed per layer.
const maxListedViolations = 3

// printWarnings lists the layers that broke their recipe.
func printWarnings(warnings []model.Warning) {
	for _, w := range warnings {
		printWarning("layer %d: %d violation(s)", w.Layer, len(w.Violations))
		for i, v := range w.Violations {
			if i == maxListedViolations {
				printDetail("… %d more", len(w.Violations)-i)
				break
			}
			printDetail("%s", v)
		}
	}
}
