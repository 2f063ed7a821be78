package commands

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/spherical-ai/spherical/libs/inventory-engine/cmd/inventory-cli/ui"
	"github.com/spherical-ai/spherical/libs/inventory-engine/internal/catalog"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect the inventory catalog",
}

var catalogStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show record counts, categories and value domains",
	RunE:  runCatalogStats,
}

var catalogValidateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Check that a catalog file loads",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := catalog.LoadFile(args[0])
		if err != nil {
			return err
		}
		ui.Success("%s: %d records", args[0], c.Len())
		return nil
	},
}

func init() {
	catalogCmd.AddCommand(catalogStatsCmd, catalogValidateCmd)
	rootCmd.AddCommand(catalogCmd)
}

func runCatalogStats(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	c, err := catalog.LoadFile(cfg.Catalog.Path)
	if err != nil {
		return err
	}
	stats := c.Stats()

	if jsonOutput {
		return printJSON(os.Stdout, stats)
	}

	ui.Section("Catalog")
	ui.KeyValue("Source", cfg.Catalog.Path)
	ui.KeyValue("Records", strconv.Itoa(stats.Records))
	ui.KeyValue("Total stock value", catalog.FormatNumber(stats.TotalStockValue))
	ui.Newline()

	rows := make([][]string, 0, len(stats.Categories))
	for _, cc := range stats.Categories {
		rows = append(rows, []string{cc.Major, strconv.Itoa(cc.Count)})
	}
	ui.Table([]string{"Category", "Items"}, rows)
	ui.Newline()

	domains := make([][]string, 0, len(catalog.DomainFields))
	for _, f := range catalog.DomainFields {
		domains = append(domains, []string{string(f), fmt.Sprint(stats.DomainSizes[f])})
	}
	ui.Table([]string{"Field", "Distinct values"}, domains)
	return nil
}
