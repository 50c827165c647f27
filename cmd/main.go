package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/duynhne/study-service/config"
	"github.com/duynhne/study-service/internal/logger"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "study-service",
	Short: "Pomodoro study session tracker API",
	Long: `study-service serves the study session API: user accounts with cookie
sessions, study sessions and the pomodoro blocks logged against them.

Running without a subcommand starts the HTTP server.`,
	SilenceUsage: true,
	RunE:         runServe,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "YAML config file (overrides CONFIG_FILE)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
}

// loadConfig loads and validates configuration and sets up the global logger.
func loadConfig() (*config.Config, error) {
	if configFile != "" {
		if err := os.Setenv("CONFIG_FILE", configFile); err != nil {
			return nil, err
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.File)
	return cfg, nil
}
