package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/gradekit/repograde/pkg/attribute"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "List the attribute catalog",
	Long: `Catalog prints all 25 assessable attributes with their tier, scoring
direction, default threshold, and tier-default weight.`,
	Args: cobra.NoArgs,
	RunE: runCatalog,
}

func init() {
	rootCmd.AddCommand(catalogCmd)
}

func runCatalog(cmd *cobra.Command, args []string) error {
	catalog := attribute.Catalog()

	if format == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(catalog)
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ATTRIBUTE\tNAME\tTIER\tDIRECTION\tTHRESHOLD\tDEFAULT WEIGHT")
	for _, attr := range catalog {
		fmt.Fprintf(tw, "%s\t%s\t%d (%s)\t%s\t%g\t%.2f%%\n",
			attr.ID, attr.Name, int(attr.Tier), attr.Tier,
			attr.Polarity, attr.Threshold, attr.Tier.DefaultWeight()*100)
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("catalog: writing table: %w", err)
	}
	return nil
}
