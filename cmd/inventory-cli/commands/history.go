package commands

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/spherical-ai/spherical/libs/inventory-engine/cmd/inventory-cli/ui"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recently answered questions from the audit log",
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of entries to show")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	engine, err := openEngine(ctx)
	if err != nil {
		return err
	}
	defer engine.Close()

	if engine.QueryLog == nil {
		return fmt.Errorf("query audit log is disabled; set audit.enabled in the config")
	}

	entries, err := engine.QueryLog.Recent(ctx, historyLimit)
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(os.Stdout, entries)
	}
	if len(entries) == 0 {
		ui.Info("No questions recorded yet.")
		return nil
	}

	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			e.OccurredAt.Local().Format("2006-01-02 15:04:05"),
			ui.Truncate(e.Question, 48),
			e.Outcome,
			e.Source,
			strconv.Itoa(e.ResultCount),
			strconv.FormatInt(e.LatencyMs, 10) + "ms",
		})
	}
	ui.Table([]string{"When", "Question", "Outcome", "Source", "Results", "Latency"}, rows)
	return nil
}
