// Package config provides YAML-based configuration for the stage simulator.
package config

import (
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/stagesim/internal/core"
)

// Config contains all simulator configuration.
type Config struct {
	Simulation  SimulationConfig `yaml:"simulation"`
	Scripts     ScriptsConfig    `yaml:"scripts"`
	Logging     LoggingConfig    `yaml:"logging"`
	Storage     StorageConfig    `yaml:"storage"`
	KeyBindings core.Bindings    `yaml:"key_bindings"`
}

// SimulationConfig configures the frame stepper.
type SimulationConfig struct {
	CacheInterval int   `yaml:"cache_interval"` // Frames between fast-forward snapshots
	Seed          int64 `yaml:"seed"`
	StrictScripts bool  `yaml:"strict_scripts"` // Abort a frame on the first script fault
}

// ScriptsConfig bounds the work a pattern script may do per call.
type ScriptsConfig struct {
	MaxSteps int `yaml:"max_steps"`
	MaxFire  int `yaml:"max_fire"`
}

// LoggingConfig configures the CLI logger.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	Timestamps bool   `yaml:"timestamps"`
}

// StorageConfig configures the run journal.
type StorageConfig struct {
	DBPath string `yaml:"db_path"`
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if c.Simulation.CacheInterval < 1 {
		return fmt.Errorf("config: simulation.cache_interval must be positive, got %d", c.Simulation.CacheInterval)
	}
	if c.Scripts.MaxSteps < 0 || c.Scripts.MaxFire < 0 {
		return fmt.Errorf("config: script limits must not be negative")
	}
	if _, err := log.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("config: logging.level: %w", err)
	}
	return nil
}
