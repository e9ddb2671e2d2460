// Package cmd implements the repograde CLI commands using Cobra.
package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/gradekit/repograde/pkg/cli"
)

var (
	cfgFile string
	verbose bool
	format  string
	output  string
)

var rootCmd = &cobra.Command{
	Use:   "repograde",
	Short: "Repository quality scoring and certification",
	Long: `repograde computes a reproducible quality score for a software
repository from a fixed catalog of 25 weighted attributes.

External detectors measure the repository and hand repograde a measurement
document; repograde converts each measurement into a 0-100 sub-score,
resolves the weight configuration, and aggregates everything into an
overall score and certification level.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupLogging()
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and returns any error.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path (default: .repograde.yml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&format, "format", "f", "table", "output format (table|json)")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "", "write output to file instead of stdout")
}

func setupLogging() error {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))

	return nil
}

// applyOutputConfig honors the config file's output section for settings
// the command line left untouched.
func applyOutputConfig(cmd *cobra.Command, cfg *cli.Config) {
	if !cmd.Flags().Changed("format") && cfg.Output.Format != "" {
		format = cfg.Output.Format
	}
	if !cmd.Flags().Changed("verbose") && cfg.Output.Verbose {
		verbose = true
		_ = setupLogging()
	}
}
