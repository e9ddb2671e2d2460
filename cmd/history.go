package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/gradekit/repograde/pkg/cli"
	"github.com/gradekit/repograde/pkg/store"
)

var (
	historyTarget string
	historyLimit  int
	historyKeep   int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect stored assessment results",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored assessments, newest first",
	Args:  cobra.NoArgs,
	RunE:  runHistoryList,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one stored assessment in full",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete all but the newest stored assessments",
	Args:  cobra.NoArgs,
	RunE:  runHistoryPrune,
}

func init() {
	historyListCmd.Flags().StringVar(&historyTarget, "target", "", "only list assessments of this target")
	historyListCmd.Flags().IntVar(&historyLimit, "limit", 0, "maximum rows to list (default 50)")
	historyPruneCmd.Flags().IntVar(&historyKeep, "keep", 0, "assessments to keep (default: history.keep from config)")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyPruneCmd)
	rootCmd.AddCommand(historyCmd)
}

// openHistory opens the configured history store.
func openHistory() (*store.Store, *cli.Config, error) {
	cfg, err := cli.LoadConfig(cfgFile)
	if err != nil {
		return nil, nil, err
	}
	if !cfg.History.IsEnabled() {
		return nil, nil, fmt.Errorf("history is disabled in the configuration")
	}
	st, err := store.Open(cfg.History.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening history store: %w", err)
	}
	return st, cfg, nil
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	st, cfg, err := openHistory()
	if err != nil {
		return fmt.Errorf("history: %w", err)
	}
	defer st.Close()
	applyOutputConfig(cmd, cfg)

	records, err := st.List(cmd.Context(), historyTarget, historyLimit)
	if err != nil {
		return fmt.Errorf("history: %w", err)
	}

	if format == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}

	if len(records) == 0 {
		fmt.Println("no stored assessments")
		return nil
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTARGET\tSCORE\tLEVEL\tASSESSED\tGENERATED")
	for _, rec := range records {
		fmt.Fprintf(tw, "%s\t%s\t%.1f\t%s\t%d\t%s\n",
			rec.ID, rec.Target, rec.OverallScore, rec.Certification,
			rec.AssessedCount, rec.GeneratedAt.Format("2006-01-02 15:04:05"))
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("history: writing table: %w", err)
	}
	return nil
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	st, cfg, err := openHistory()
	if err != nil {
		return fmt.Errorf("history: %w", err)
	}
	defer st.Close()
	applyOutputConfig(cmd, cfg)

	res, err := st.Get(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("history: %w", err)
	}

	if err := selectFormatter(format).Format(os.Stdout, res); err != nil {
		return fmt.Errorf("history: writing result: %w", err)
	}
	return nil
}

func runHistoryPrune(cmd *cobra.Command, args []string) error {
	st, cfg, err := openHistory()
	if err != nil {
		return fmt.Errorf("history: %w", err)
	}
	defer st.Close()

	keep := historyKeep
	if keep <= 0 {
		keep = cfg.History.Keep
	}

	removed, err := st.Prune(cmd.Context(), keep)
	if err != nil {
		return fmt.Errorf("history: %w", err)
	}

	fmt.Printf("kept %d newest assessments, removed %d\n", keep, removed)
	return nil
}
