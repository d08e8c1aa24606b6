package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/grunt/pkg/export"
	"github.com/matzehuels/grunt/pkg/model"
	"github.com/matzehuels/grunt/pkg/pipeline"
	"github.com/matzehuels/grunt/pkg/store"
)

// modelsCommand creates the models command for the local model store.
func (c *CLI) modelsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "models",
		Aliases: []string{"model"},
		Short:   "Manage stored models",
		Long: `Manage stored models.

Models generated with 'grunt generate --save' are kept under
$XDG_DATA_HOME/grunt/models (or ~/.local/share/grunt/models).`,
	}

	cmd.AddCommand(c.modelsListCommand())
	cmd.AddCommand(c.modelsShowCommand())
	cmd.AddCommand(c.modelsExportCommand())
	cmd.AddCommand(c.modelsViewCommand())
	cmd.AddCommand(c.modelsDeleteCommand())
	cmd.AddCommand(c.modelsPathCommand())

	return cmd
}

func (c *CLI) modelsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List stored models, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := newStore()
			if err != nil {
				return err
			}
			defer st.Close()

			recs, err := st.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(recs) == 0 {
				printInfo("No stored models")
				printNextStep("Store one", "grunt generate --save")
				return nil
			}
			fmt.Println(renderRecords(recs))
			return nil
		},
	}
}

func (c *CLI) modelsShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show [id]",
		Short: "Show the details of a stored model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, err := c.newRunner(true, true)
			if err != nil {
				return err
			}
			defer runner.Close()

			rec, m, err := runner.Load(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("load model %s: %w", args[0], err)
			}

			fmt.Println(StyleTitle.Render(rec.Name))
			printKeyValue("id", rec.ID)
			printKeyValue("seed", strconv.FormatUint(rec.Seed, 10))
			printKeyValue("created", rec.CreatedAt.Local().Format("2006-01-02 15:04"))
			printKeyValue("axis x", m.Params.AxisX().String())
			printKeyValue("axis y", m.Params.AxisY().String())
			b := m.Params.Borders()
			for i := range b.NumberOfBorders() {
				typ, limits := b.Recipe(i)
				printKeyValue(fmt.Sprintf("layer %d", i), fmt.Sprintf("%s %s", typ, limits))
			}
			printStats(rec.Borders, rec.Rows, rec.Cols, false)
			printWarnings(rec.Warnings)
			return nil
		},
	}
}

func (c *CLI) modelsExportCommand() *cobra.Command {
	var (
		sections string
		compress bool
		dir      string
	)
	cmd := &cobra.Command{
		Use:   "export [id]",
		Short: "Write the export file of a stored model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			secs, err := parseSections(sections)
			if err != nil {
				return err
			}
			runner, err := c.newRunner(false, true)
			if err != nil {
				return err
			}
			defer runner.Close()

			rec, m, err := runner.Load(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("load model %s: %w", args[0], err)
			}
			opts := pipeline.Options{
				Name:     rec.Name,
				Params:   m.Params,
				Seed:     m.Seed,
				Sections: secs,
				Compress: compress,
				Dir:      dir,
			}
			data, err := runner.Export(cmd.Context(), m, opts)
			if err != nil {
				return err
			}
			written, err := export.Write(rec.Name, data, opts.ExportOptions())
			if err != nil {
				return err
			}
			printSuccess("Exported %s", StyleValue.Render(rec.Name))
			printFile(written.Path)
			return nil
		},
	}
	cmd.Flags().StringVar(&sections, "sections", "", "export sections: params,borders (default: all)")
	cmd.Flags().BoolVarP(&compress, "compress", "z", false, "write a zstd compressed export")
	cmd.Flags().StringVarP(&dir, "output-dir", "o", "", "output directory (default: current directory)")
	return cmd
}

func (c *CLI) modelsViewCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "view [id|export]",
		Short: "Browse the layers of a model interactively",
		Long: `Browse the layers of a model interactively.

The argument is a stored model ID or the path of an export file.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, name, err := c.loadForView(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			final, err := tea.NewProgram(NewLayerViewModel(name, m)).Run()
			if err != nil {
				return fmt.Errorf("viewer: %w", err)
			}
			if v, ok := final.(LayerViewModel); ok && v.Index >= 0 {
				c.Logger.Debug("viewer closed", "layer", v.Index)
			}
			return nil
		},
	}
}

// loadForView loads a model from an export file, or from the store when arg
// is not a file.
func (c *CLI) loadForView(ctx context.Context, arg string) (*model.Model, string, error) {
	if _, err := os.Stat(arg); err == nil {
		doc, err := export.ReadFile(arg)
		if err != nil {
			return nil, "", fmt.Errorf("read export %s: %w", arg, err)
		}
		if doc.Params == nil || doc.Borders == nil {
			return nil, "", fmt.Errorf("export %s needs both params and borders sections", arg)
		}
		name := strings.TrimSuffix(strings.TrimSuffix(arg, ".zst"), ".json")
		return &model.Model{Params: doc.Params, Borders: doc.Borders}, name, nil
	}

	runner, err := c.newRunner(true, true)
	if err != nil {
		return nil, "", err
	}
	defer runner.Close()
	rec, m, err := runner.Load(ctx, arg)
	if err != nil {
		return nil, "", fmt.Errorf("load model %s: %w", arg, err)
	}
	return m, rec.Name, nil
}

func (c *CLI) modelsDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "delete [id...]",
		Aliases: []string{"rm"},
		Short:   "Delete stored models",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := newStore()
			if err != nil {
				return err
			}
			defer st.Close()

			for _, id := range args {
				if err := st.Delete(cmd.Context(), id); err != nil {
					return fmt.Errorf("delete model %s: %w", id, err)
				}
				printSuccess("Deleted %s", id)
			}
			return nil
		},
	}
}

func (c *CLI) modelsPathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the model store directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := dataDir()
			if err != nil {
				return fmt.Errorf("get data dir: %w", err)
			}
			fmt.Println(dir)
			return nil
		},
	}
}

// renderRecords renders record summaries as a table.
func renderRecords(recs []*store.Record) string {
	rows := make([][]string, len(recs))
	for i, r := range recs {
		status := iconSuccess
		if r.Invalid > 0 {
			status = fmt.Sprintf("%d invalid", r.Invalid)
		}
		rows[i] = []string{
			r.ID,
			r.Name,
			strconv.Itoa(r.Borders),
			fmt.Sprintf("%d×%d", r.Rows, r.Cols),
			status,
			formatRelativeTime(r.CreatedAt),
		}
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("ID", "Name", "Layers", "Blocks", "Status", "Created").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == -1:
				return headerStyle
			case col == 0 || col == 5:
				return StyleDim
			case col == 4 && recs[row].Invalid > 0:
				return StyleWarning
			case col == 4:
				return StyleSuccess
			}
			return StyleValue
		}).
		Render()
}
