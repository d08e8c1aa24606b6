package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/grunt/pkg/model"
	"github.com/matzehuels/grunt/pkg/recipe"
)

// recipeCommand creates the recipe command.
func (c *CLI) recipeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recipe",
		Short: "Create and check model recipes",
	}

	cmd.AddCommand(c.recipeInitCommand())
	cmd.AddCommand(c.recipeCheckCommand())

	return cmd
}

func (c *CLI) recipeInitCommand() *cobra.Command {
	var (
		format string
		output string
		force  bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default recipe",
		Long: `Write the default recipe: a 9×9 grid with two random borders.

Without --output the recipe is printed to stdout. The format follows the
output file extension unless --format is set.`,
		Example: `  grunt recipe init -o model.toml
  grunt recipe init --format yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := recipe.Format(format)
			if output != "" && !cmd.Flags().Changed("format") {
				var err error
				if f, err = recipe.FormatFromPath(output); err != nil {
					return err
				}
			}

			r := recipe.Default()
			if output != "" {
				r.Name = nameFromPath(output)
			}
			data, err := recipe.Encode(r, f)
			if err != nil {
				return err
			}

			if output == "" {
				_, err := os.Stdout.Write(data)
				return err
			}
			if _, err := os.Stat(output); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", output)
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return fmt.Errorf("write recipe: %w", err)
			}
			printSuccess("Wrote recipe %s", StyleValue.Render(r.Name))
			printFile(output)
			printNextStep("Generate the model", "grunt generate "+output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", string(recipe.FormatTOML), "toml, yaml or json")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

func (c *CLI) recipeCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check [recipe...]",
		Short: "Check that recipes build valid model parameters",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			failed := 0
			for _, path := range args {
				params, err := checkRecipe(path)
				if err != nil {
					failed++
					printError("%s: %v", path, err)
					continue
				}
				printSuccess("%s %s", path, StyleDim.Render(statsLine(
					params.Borders().NumberOfBorders(), params.Rows(), params.Cols(), false)))
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d recipes are invalid", failed, len(args))
			}
			return nil
		},
	}
}

func checkRecipe(path string) (*model.Params3D, error) {
	r, err := recipe.Load(path)
	if err != nil {
		return nil, err
	}
	if _, err := r.Options(); err != nil {
		return nil, err
	}
	return r.Params()
}

// nameFromPath returns the file name of path without its extension.
func nameFromPath(path string) string {
	base := filepath.Base(path)
	return base[:len(base)-len(filepath.Ext(base))]
}
