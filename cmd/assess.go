package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/gradekit/repograde/pkg/assess"
	"github.com/gradekit/repograde/pkg/cli"
	"github.com/gradekit/repograde/pkg/report"
	"github.com/gradekit/repograde/pkg/store"
)

var (
	assessWeights   []string
	assessStrict    bool
	assessFailBelow float64
	assessNoHistory bool
)

var assessCmd = &cobra.Command{
	Use:   "assess <measurements.yml> [more.yml...]",
	Short: "Score measurement documents and print certification results",
	Long: `Assess converts per-attribute measurements into a weighted quality
score and a certification level.

Measurement documents are YAML; one file may hold several documents
separated by ---, each scored independently:

  repograde assess ./measurements.yml
  repograde assess --weight test_coverage=0.08 --fail-below 60 ./m.yml`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAssess,
}

func init() {
	assessCmd.Flags().StringArrayVar(&assessWeights, "weight", nil, "weight override as attribute_id=value (repeatable)")
	assessCmd.Flags().BoolVar(&assessStrict, "strict", false, "treat weight-sum deviations as errors")
	assessCmd.Flags().Float64Var(&assessFailBelow, "fail-below", 0, "exit 1 when any overall score falls below this value")
	assessCmd.Flags().BoolVar(&assessNoHistory, "no-history", false, "skip recording results in the history store")
	rootCmd.AddCommand(assessCmd)
}

// formatter writes an assessment result to a writer.
type formatter interface {
	Format(w io.Writer, res *assess.Result) error
}

// assessment pairs an input document with its scored result.
type assessment struct {
	source string
	doc    cli.MeasurementsDoc
	result *assess.Result
}

func runAssess(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	// 1. Load configuration and CLI weight overrides.
	cfg, err := cli.LoadConfig(cfgFile)
	if err != nil {
		return fmt.Errorf("assess: %w", err)
	}
	applyOutputConfig(cmd, cfg)

	overrides, err := cli.ParseWeightOverrides(assessWeights)
	if err != nil {
		return fmt.Errorf("assess: %w", err)
	}

	// 2. Load every measurement document named on the command line.
	var runs []assessment
	for _, path := range args {
		docs, err := cli.LoadMeasurements(path)
		if err != nil {
			return fmt.Errorf("assess: %w", err)
		}
		for _, doc := range docs {
			runs = append(runs, assessment{source: path, doc: doc})
		}
	}

	slog.Info("measurement documents loaded", "files", len(args), "documents", len(runs))

	// 3. Score all documents. Each run is independent, so they fan out
	// concurrently; results land at their input index.
	var opts []assess.RunnerOption
	if assessStrict || cfg.Strict {
		opts = append(opts, assess.WithStrictWeights())
	}
	runner := assess.NewRunner(opts...)

	g, gctx := errgroup.WithContext(ctx)
	for i := range runs {
		i := i
		g.Go(func() error {
			target := runs[i].doc.Target
			if target == "" {
				target = runs[i].source
			}
			res, err := runner.Run(gctx, target, runs[i].doc.Measurements, cfg.WeightVector(), overrides)
			if err != nil {
				return fmt.Errorf("scoring %s: %w", target, err)
			}
			runs[i].result = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("assess: %w", err)
	}

	// 4. Record results in the history store unless disabled.
	if cfg.History.IsEnabled() && !assessNoHistory {
		if err := recordHistory(ctx, cfg, runs); err != nil {
			return fmt.Errorf("assess: %w", err)
		}
	}

	// 5. Select formatter and write results in input order.
	f := selectFormatter(format)

	var w io.Writer = os.Stdout
	if output != "" {
		file, fileErr := os.Create(output)
		if fileErr != nil {
			return fmt.Errorf("assess: creating output file: %w", fileErr)
		}
		defer file.Close() // best-effort cleanup
		w = file
	}

	for _, run := range runs {
		if err := f.Format(w, run.result); err != nil {
			return fmt.Errorf("assess: writing result: %w", err)
		}
	}

	// 6. Exit nonzero when any score falls below the gate.
	if failed := failingGate(runs, assessFailBelow); failed != nil {
		slog.Warn("score below gate",
			"target", failed.Target,
			"score", failed.OverallScore,
			"gate", assessFailBelow,
		)
		os.Exit(1)
	}

	return nil
}

// failingGate returns the first result below the gate score, or nil when
// the gate is disabled or every result clears it.
func failingGate(runs []assessment, gate float64) *assess.Result {
	if gate <= 0 {
		return nil
	}
	for _, run := range runs {
		if run.result.OverallScore < gate {
			return run.result
		}
	}
	return nil
}

// recordHistory saves every result and prunes the store down to the
// configured retention.
func recordHistory(ctx context.Context, cfg *cli.Config, runs []assessment) error {
	st, err := store.Open(cfg.History.Path)
	if err != nil {
		return fmt.Errorf("opening history store: %w", err)
	}
	defer st.Close()

	for _, run := range runs {
		id, err := st.Save(ctx, run.result)
		if err != nil {
			return fmt.Errorf("recording %s: %w", run.result.Target, err)
		}
		slog.Info("assessment recorded", "id", id, "target", run.result.Target)
	}

	if cfg.History.Keep > 0 {
		removed, err := st.Prune(ctx, cfg.History.Keep)
		if err != nil {
			return fmt.Errorf("pruning history: %w", err)
		}
		if removed > 0 {
			slog.Debug("history pruned", "removed", removed, "keep", cfg.History.Keep)
		}
	}

	return nil
}

// selectFormatter returns the result formatter for the given format name.
func selectFormatter(name string) formatter {
	switch name {
	case "json":
		return report.NewJSONFormatter()
	default:
		return report.NewTableFormatter()
	}
}
