package commands

import (
	"github.com/spf13/cobra"

	"github.com/spherical-ai/spherical/libs/inventory-engine/cmd/inventory-cli/ui"
)

var (
	cfgFile     string
	catalogPath string
	verbose     bool
	noColor     bool
	jsonOutput  bool
)

var rootCmd = &cobra.Command{
	Use:   "inventory-cli",
	Short: "Ask natural-language questions about the chemicals and dyes inventory",
	Long: `inventory-cli answers questions about the stores inventory catalog.
Questions are resolved locally against the catalog first; curated answers and
the configured language model are consulted only when the question carries
no recognizable field or intent.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		ui.InitUI(noColor, verbose)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&catalogPath, "catalog", "", "inventory catalog file (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print machine-readable JSON")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
