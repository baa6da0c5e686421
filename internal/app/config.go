package app

import (
	"forrest/internal/config"
)

// Config holds the application configuration
type Config struct {
	// Debug forces debug logging regardless of logLevel.
	Debug bool

	// Custom configuration directory (optional).
	// Empty means the default user configuration directory.
	ConfigPath string

	// Loaded configuration. When set before NewApplication, loading is skipped.
	ForrestConfig *config.ForrestConfig
}

// NewConfig creates a new application configuration
func NewConfig(debug bool, configPath string) *Config {
	return &Config{
		Debug:      debug,
		ConfigPath: configPath,
	}
}
