// stagesim is a frame-stepped stage simulator for bullet-hell content.
//
// Usage:
//
//	stagesim stages <project.yaml>   - List stages and their journaled runs
//	stagesim run <project.yaml>      - Step a stage and record the run
//	stagesim scrub <project.yaml>    - Fast-forward to frames through the snapshot cache
//	stagesim runs                    - Show recently journaled runs
//	stagesim schema                  - Print the project file JSON schema
//
// Global flags:
//
//	--config <path>     - Simulator config YAML
//	--log-level <level> - Override logging.level
//	--db <path>         - Override storage.db_path
package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/stagesim/internal/config"
)

var (
	// Global flags
	flagConfig   string
	flagLogLevel string
	flagDBPath   string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "stagesim",
	Short: "Stage simulator - step and scrub bullet-hell stages",
	Long: `stagesim loads a project file and simulates its stages frame by frame,
the way an editor preview would.

Available commands:
  stages   - List the stages of a project
  run      - Step a stage sequentially and journal the run
  scrub    - Jump to frames using the snapshot cache
  runs     - View journaled runs
  schema   - Print the project JSON schema

Examples:
  stagesim stages demo.yaml
  stagesim run demo.yaml --stage 100 --mode enemies
  stagesim run demo.yaml --stage 100 --mode full --frames 1200 --hold z,left
  stagesim scrub demo.yaml --stage 100 --to 300,90,600
  stagesim runs`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to simulator config YAML")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "", "Path to the run journal database")

	rootCmd.AddCommand(stagesCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(scrubCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(schemaCmd)
}

// setup loads configuration and applies global flag overrides.
func setup() (config.Config, *log.Logger, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return config.Config{}, nil, err
	}
	if flagLogLevel != "" {
		cfg.Logging.Level = flagLogLevel
	}
	if flagDBPath != "" {
		cfg.Storage.DBPath = flagDBPath
	}

	level, err := log.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("invalid log level %q: %w", cfg.Logging.Level, err)
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: cfg.Logging.Timestamps,
		Prefix:          "stagesim",
		Level:           level,
	})
	return cfg, logger, nil
}
