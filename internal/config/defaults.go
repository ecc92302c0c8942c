package config

import (
	_ "embed"

	"github.com/vovakirdan/stagesim/internal/core"
)

//go:embed defaults/stagesim.yaml
var defaultYAML []byte

// Default returns the hardcoded default configuration.
func Default() Config {
	return Config{
		Simulation: SimulationConfig{
			CacheInterval: 30,
			Seed:          1,
		},
		Scripts: ScriptsConfig{
			MaxSteps: 64,
			MaxFire:  256,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Timestamps: true,
		},
		Storage: StorageConfig{
			DBPath: "~/.stagesim/runs.db",
		},
		KeyBindings: core.DefaultBindings(),
	}
}
