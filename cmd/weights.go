package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/gradekit/repograde/pkg/attribute"
	"github.com/gradekit/repograde/pkg/cli"
	"github.com/gradekit/repograde/pkg/weights"
)

var (
	weightsOverride []string
	weightsStrict   bool
)

var weightsCmd = &cobra.Command{
	Use:   "weights",
	Short: "Show the effective weight vector and where each entry came from",
	Long: `Weights resolves tier defaults, config-file weights, and --weight
overrides exactly as an assessment would, then prints the final
post-rescale vector with the source layer of every entry.`,
	Args: cobra.NoArgs,
	RunE: runWeights,
}

func init() {
	weightsCmd.Flags().StringArrayVar(&weightsOverride, "weight", nil, "weight override as attribute_id=value (repeatable)")
	weightsCmd.Flags().BoolVar(&weightsStrict, "strict", false, "treat weight-sum deviations as errors")
	rootCmd.AddCommand(weightsCmd)
}

// weightEntry is one row of the effective vector with its provenance.
type weightEntry struct {
	AttributeID attribute.ID `json:"attribute_id"`
	Tier        int          `json:"tier"`
	Weight      float64      `json:"weight"`
	Source      string       `json:"source"`
}

func runWeights(cmd *cobra.Command, args []string) error {
	cfg, err := cli.LoadConfig(cfgFile)
	if err != nil {
		return fmt.Errorf("weights: %w", err)
	}
	applyOutputConfig(cmd, cfg)

	overrides, err := cli.ParseWeightOverrides(weightsOverride)
	if err != nil {
		return fmt.Errorf("weights: %w", err)
	}

	var opts []weights.Option
	if weightsStrict || cfg.Strict {
		opts = append(opts, weights.WithStrict())
	}

	configVec := cfg.WeightVector()
	final, warnings, err := weights.Resolve(configVec, overrides, opts...)
	if err != nil {
		return fmt.Errorf("weights: %w", err)
	}

	entries := make([]weightEntry, 0, len(final))
	for _, attr := range attribute.Catalog() {
		entries = append(entries, weightEntry{
			AttributeID: attr.ID,
			Tier:        int(attr.Tier),
			Weight:      final[attr.ID],
			Source:      weightSource(attr.ID, configVec, overrides),
		})
	}

	if format == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"weights":  entries,
			"sum":      final.Sum(),
			"warnings": warnings,
		})
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ATTRIBUTE\tTIER\tWEIGHT\tSOURCE")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%d\t%.4f\t%s\n", e.AttributeID, e.Tier, e.Weight, e.Source)
	}
	fmt.Fprintf(tw, "\t\t%.4f\t(sum)\n", final.Sum())
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("weights: writing table: %w", err)
	}

	for _, issue := range warnings {
		fmt.Printf("warning: %s\n", issue.Message)
	}
	return nil
}

// weightSource names the precedence layer a final weight came from. The
// value itself may differ from that layer's raw entry after rescaling.
func weightSource(id attribute.ID, config, overrides weights.Vector) string {
	if _, ok := overrides[id]; ok {
		return "cli"
	}
	if _, ok := config[id]; ok {
		return "config"
	}
	return "default"
}
