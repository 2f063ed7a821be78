package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spherical-ai/spherical/libs/inventory-engine/internal/app"
	"github.com/spherical-ai/spherical/libs/inventory-engine/internal/config"
	"github.com/spherical-ai/spherical/libs/inventory-engine/internal/observability"
)

// loadConfig reads the config file named by --config or CONFIG_PATH and
// applies command-line overrides.
func loadConfig() (*config.Config, error) {
	path := cfgFile
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if catalogPath != "" {
		cfg.Catalog.Path = catalogPath
	}
	return cfg, nil
}

// cliLogger keeps engine logs off the terminal unless --verbose is set.
func cliLogger(cfg *config.Config) *observability.Logger {
	level := "error"
	if verbose {
		level = "debug"
	}
	return observability.NewLogger(observability.LogConfig{
		Level:       level,
		Format:      "console",
		Output:      os.Stderr,
		ServiceName: cfg.Observability.ServiceName,
	})
}

// openEngine builds the engine without a file watcher.
func openEngine(ctx context.Context) (*app.App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	cfg.Observability.MetricsEnabled = false

	engine, err := app.New(ctx, cfg, cliLogger(cfg), app.Options{DisableWatch: true})
	if err != nil {
		return nil, fmt.Errorf("open engine: %w", err)
	}
	return engine, nil
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
