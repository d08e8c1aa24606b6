package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	gerrors "github.com/matzehuels/grunt/pkg/errors"
	"github.com/matzehuels/grunt/pkg/export"
	"github.com/matzehuels/grunt/pkg/layer"
	"github.com/matzehuels/grunt/pkg/model"
	"github.com/matzehuels/grunt/pkg/recipe"
)

// validateCommand creates the validate command.
func (c *CLI) validateCommand() *cobra.Command {
	var recipePath string

	cmd := &cobra.Command{
		Use:   "validate [export]",
		Short: "Check the layers of an export against their recipes",
		Long: `Check the layers of an export against their recipes.

Every layer must stay within its limits and, for step-limited borders, differ
from its left and upper neighbors by at most the step. Exports written without
the params section need --recipe to supply the border recipes.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := export.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read export %s: %w", args[0], err)
			}
			if recipePath != "" {
				r, err := recipe.Load(recipePath)
				if err != nil {
					return err
				}
				if doc.Params, err = r.Params(); err != nil {
					return err
				}
			}
			return c.runValidate(doc)
		},
	}

	cmd.Flags().StringVarP(&recipePath, "recipe", "r", "", "recipe supplying the border parameters")
	return cmd
}

// runValidate validates every layer of doc and fails if any is invalid.
func (c *CLI) runValidate(doc *export.Document) error {
	if doc.Params == nil {
		return gerrors.New(gerrors.ErrCodeInvalidInput, "export has no params section; pass --recipe")
	}
	if doc.Borders == nil {
		return gerrors.New(gerrors.ErrCodeInvalidInput, "export has no borders section")
	}

	b := doc.Params.Borders()
	if len(doc.Borders) != b.NumberOfBorders() {
		printWarning("export holds %d layers, recipe expects %d", len(doc.Borders), b.NumberOfBorders())
	}

	invalid := 0
	for i, l := range doc.Borders {
		typ, limits := b.Recipe(i)
		err := model.ValidateLayer(l, typ, limits)
		if err == nil {
			printSuccess("layer %d %s", i, StyleDim.Render(fmt.Sprintf("%s %s", typ, limits)))
			continue
		}
		var verr *layer.ValidationError
		if !errors.As(err, &verr) {
			return err
		}
		invalid++
		printError("layer %d %s", i, StyleDim.Render(fmt.Sprintf("%s %s", typ, limits)))
		printWarnings([]model.Warning{{Layer: i, Violations: verr.Violations}})
		c.Logger.Debug("layer violations", "layer", i, "count", len(verr.Violations),
			"out_of_bounds", verr.Count(layer.OutOfBounds),
			"step_left", verr.Count(layer.StepViolationLeft),
			"step_up", verr.Count(layer.StepViolationUp))
	}

	if invalid > 0 {
		return gerrors.New(gerrors.ErrCodeLayerValidation, "%d of %d layers are invalid", invalid, len(doc.Borders))
	}
	return nil
}
