// Command chartview serves the stock chart API and renders charts to PNG.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"StockAnalyzerView/internal/config"
	"StockAnalyzerView/internal/logging"
)

var cfgPath string

func main() {
	rootCmd := &cobra.Command{
		Use:   "chartview",
		Short: "Stock chart views with moving averages, volume and market breadth",
		Long: `chartview fetches historical price series, computes SMA, weighted-close
and volume indicators, and lays them out as a multi-pane chart. It serves the
chart over HTTP and websockets or renders it once to a PNG file.`,
		SilenceUsage: true,
	}

	defaultCfg := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		defaultCfg = v
	}
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", defaultCfg, "Path to the YAML config file")

	rootCmd.AddCommand(newServeCmd(), newRenderCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// setup loads and validates the config and builds the logger.
func setup() (*config.Config, *logrus.Logger, io.Closer, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, nil, fmt.Errorf("config validation: %w", err)
	}
	logger, closer, err := logging.New(logging.Options{
		Level:  cfg.Log.Level,
		File:   cfg.Log.File,
		Format: cfg.Log.Format,
	})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init logging: %w", err)
	}
	return cfg, logger, closer, nil
}
