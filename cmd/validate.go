package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/gradekit/repograde/pkg/cli"
	"github.com/gradekit/repograde/pkg/weights"
)

var (
	validateWeights []string
	validateStrict  bool
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the weight configuration without scoring anything",
	Long: `Validate resolves the config-file weights and any --weight overrides
against the tier defaults and reports every error and warning found,
along with the effective weight vector when the configuration is usable.

  repograde validate
  repograde validate --weight claude_md_file=0.15 --strict`,
	Args: cobra.NoArgs,
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().StringArrayVar(&validateWeights, "weight", nil, "weight override as attribute_id=value (repeatable)")
	validateCmd.Flags().BoolVar(&validateStrict, "strict", false, "treat weight-sum deviations as errors")
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := cli.LoadConfig(cfgFile)
	if err != nil {
		return fmt.Errorf("validate: %w", err)
	}
	applyOutputConfig(cmd, cfg)

	overrides, err := cli.ParseWeightOverrides(validateWeights)
	if err != nil {
		return fmt.Errorf("validate: %w", err)
	}

	var opts []weights.Option
	if validateStrict || cfg.Strict {
		opts = append(opts, weights.WithStrict())
	}
	rep := weights.Validate(cfg.WeightVector(), overrides, opts...)

	if format == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(rep); err != nil {
			return fmt.Errorf("validate: writing report: %w", err)
		}
	} else {
		printValidationReport(rep)
	}

	if !rep.Valid {
		os.Exit(1)
	}
	return nil
}

func printValidationReport(rep weights.Report) {
	okText := color.New(color.FgGreen, color.Bold)
	errText := color.New(color.FgRed, color.Bold)
	warnLine := color.New(color.FgYellow)

	if rep.Valid {
		fmt.Println(okText.Sprintf("✓ weight configuration is valid (%d attributes, sum %.4f)",
			len(rep.Effective), rep.Effective.Sum()))
	} else {
		fmt.Println(errText.Sprintf("✗ weight configuration is invalid (%d errors)", len(rep.Errors)))
		for _, issue := range rep.Errors {
			fmt.Printf("  %s\n", errText.Sprint(issue.Message))
		}
	}

	for _, issue := range rep.Warnings {
		fmt.Printf("  %s\n", warnLine.Sprintf("warning: %s", issue.Message))
	}
}
