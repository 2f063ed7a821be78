package commands

import (
	"context"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spherical-ai/spherical/libs/inventory-engine/cmd/inventory-cli/ui"
	"github.com/spherical-ai/spherical/libs/inventory-engine/internal/retrieval"
)

var (
	askPage     int
	askPageSize int
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer a single question",
	Example: `  inventory-cli ask "top costing items"
  inventory-cli ask "qty greater than 100" --page 2 --page-size 5`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().IntVar(&askPage, "page", 1, "page number, starting at 1")
	askCmd.Flags().IntVar(&askPageSize, "page-size", 0, "records per page (default from config)")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	engine, err := openEngine(ctx)
	if err != nil {
		return err
	}
	defer engine.Close()

	req := retrieval.Request{
		Question: strings.Join(args, " "),
		Page:     askPage - 1,
		PageSize: askPageSize,
	}

	var spin *ui.Spinner
	if !jsonOutput {
		spin = ui.NewSpinner("Thinking...")
		spin.Start()
	}
	resp, err := engine.Router.Query(ctx, req)
	if spin != nil {
		spin.Stop()
	}
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(os.Stdout, resp)
	}
	renderResponse(resp)
	return nil
}
