package cli

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/matzehuels/grunt/pkg/model"
	"github.com/matzehuels/grunt/pkg/pipeline"
	"github.com/matzehuels/grunt/pkg/recipe"
)

// generateOpts holds the flags of the generate command. Flags that are set
// override the recipe.
type generateOpts struct {
	name       string
	seed       uint64
	validation string
	parallel   int
	sections   string
	compress   bool
	dir        string
	stdout     bool
	save       bool
	noCache    bool
	refresh    bool
	maxCells   int64
}

// generateCommand creates the generate command.
func (c *CLI) generateCommand() *cobra.Command {
	var opts generateOpts

	cmd := &cobra.Command{
		Use:   "generate [recipe]",
		Short: "Generate a model from a recipe and export it",
		Long: `Generate a model from a recipe and export it.

The recipe is a TOML, YAML or JSON file describing the axes, borders and fill
values (see 'grunt recipe init'). Without a recipe the default model is built:
a 9×9 grid with two random borders.

The export is written to <name>.json (or <name>.json.zst with --compress).
Models with a fixed seed are cached locally, so regenerating them is instant.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r := recipe.Default()
			if len(args) == 1 {
				var err error
				if r, err = recipe.Load(args[0]); err != nil {
					return err
				}
			}
			flags := cmd.Flags()
			if flags.Changed("seed") {
				r.Seed = opts.seed
			}
			if flags.Changed("validation") {
				r.Validation = opts.validation
			}
			if flags.Changed("parallel") {
				r.Parallelism = opts.parallel
			}
			if flags.Changed("name") {
				r.Name = opts.name
			}
			return c.runGenerate(cmd.Context(), r, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.name, "name", "n", "", "model name, also the export file name (default: recipe name)")
	cmd.Flags().Uint64Var(&opts.seed, "seed", 0, "random seed (0 draws a fresh one)")
	cmd.Flags().StringVar(&opts.validation, "validation", "", "layer validation: off (default), warn, strict")
	cmd.Flags().IntVarP(&opts.parallel, "parallel", "p", runtime.GOMAXPROCS(0), "layers generated concurrently")
	cmd.Flags().StringVar(&opts.sections, "sections", "", "export sections: params,borders (default: all)")
	cmd.Flags().BoolVarP(&opts.compress, "compress", "z", false, "write a zstd compressed export")
	cmd.Flags().StringVarP(&opts.dir, "output-dir", "o", "", "output directory (default: current directory)")
	cmd.Flags().BoolVar(&opts.stdout, "stdout", false, "write the export to stdout instead of a file")
	cmd.Flags().BoolVar(&opts.save, "save", false, "store the model for 'grunt models'")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "regenerate even if cached")
	cmd.Flags().Int64Var(&opts.maxCells, "max-cells", pipeline.DefaultMaxCells, "maximum rows × cols × borders (negative: unlimited)")

	return cmd
}

// runGenerate runs the pipeline for r and reports the result.
func (c *CLI) runGenerate(ctx context.Context, r *recipe.Recipe, opts generateOpts) error {
	popts, err := pipeline.FromRecipe(r)
	if err != nil {
		return err
	}
	if popts.Sections, err = parseSections(opts.sections); err != nil {
		return err
	}
	if popts.Parallelism == 0 {
		popts.Parallelism = runtime.GOMAXPROCS(0)
	}
	popts.Compress = opts.compress
	popts.Dir = opts.dir
	popts.Write = !opts.stdout
	popts.Save = opts.save
	popts.Refresh = opts.refresh
	popts.MaxCells = opts.maxCells
	popts.Logger = c.Logger

	runner, err := c.newRunner(opts.noCache, opts.save)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	spinner := newSpinner(ctx, fmt.Sprintf("Generating %s...", popts.Name))
	spinner.Start()
	prog := newProgress(c.Logger)

	result, err := runner.Execute(ctx, popts)
	if err != nil {
		spinner.StopWithError("Generation failed")
		return err
	}
	spinner.Stop()
	prog.done("pipeline finished", "layers", result.Stats.Layers)

	if opts.stdout {
		_, err := os.Stdout.Write(result.Data)
		return err
	}

	m := result.Model
	printSuccess("Generated %s", StyleValue.Render(popts.Name))
	printStats(result.Stats.Layers, result.Stats.Rows, result.Stats.Cols, result.CacheInfo.ModelHit)
	printKeyValue("seed", fmt.Sprint(m.Seed))
	if popts.Validation != model.ValidateOff {
		printKeyValue("validation", popts.Validation.String())
	}
	printWarnings(m.Warnings)
	printFile(result.Path)
	if result.RecordID != "" {
		printKeyValue("stored", result.RecordID)
		printNextStep("Browse the layers", "grunt models view "+result.RecordID)
	} else {
		printNextStep("Check the layers", "grunt validate "+result.Path)
	}
	return nil
}
