package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/grunt/pkg/axis"
	"github.com/matzehuels/grunt/pkg/recipe"
)

// axisCommand creates the axis command.
func (c *CLI) axisCommand() *cobra.Command {
	var (
		def    recipe.Axis
		step   float64
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "axis",
		Short: "Build an axis and print its blocks",
		Long: `Build an axis and print its blocks.

Modes:
  edges              --start and --end are the outer edges of the blocks
  centers            --start and --end are the centers of the outer blocks
  points_as_edges    --points are the block edges
  points_as_centers  --points are the block centers

Values are rounded to three decimals.`,
		Example: `  grunt axis --start 1 --end 10
  grunt axis --mode centers --start 0 --end 3 --step 0.5
  grunt axis --mode points_as_edges --points 0,1.5,4,9`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("step") {
				def.Step = axis.Step(step)
			}
			ax, err := def.Build()
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(ax)
			}
			fmt.Println(renderAxis(ax))
			return nil
		},
	}

	cmd.Flags().StringVarP(&def.Mode, "mode", "m", recipe.ModeEdges, "edges, centers, points_as_edges or points_as_centers")
	cmd.Flags().Float64Var(&def.Start, "start", 0, "first edge or center")
	cmd.Flags().Float64Var(&def.End, "end", 0, "last edge or center")
	cmd.Flags().Float64Var(&step, "step", axis.DefaultStep, "distance between edges or centers")
	cmd.Flags().Float64SliceVar(&def.Points, "points", nil, "explicit points (comma-separated)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the axis as JSON")

	return cmd
}

// renderAxis renders the blocks of ax as a table of index, edges and center.
func renderAxis(ax *axis.Axis) string {
	edges, centers := ax.Edges(), ax.Centers()
	rows := make([][]string, len(centers))
	for i, c := range centers {
		rows[i] = []string{
			strconv.Itoa(i),
			formatCoord(edges[i]),
			formatCoord(edges[i+1]),
			formatCoord(c),
		}
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Block", "From", "To", "Center").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if col == 0 {
				return StyleDim
			}
			return StyleNumber
		})

	title := StyleTitle.Render(fmt.Sprintf("%d blocks", ax.BlocksCount()))
	if step, ok := ax.Step(); ok {
		title += StyleDim.Render(fmt.Sprintf("  step %s", formatCoord(step)))
	}
	return title + "\n" + t.Render()
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
