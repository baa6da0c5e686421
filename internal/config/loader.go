package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"forrest/pkg/logging"
)

const (
	userConfigDir  = ".config/forrest"
	configFileName = "config.yaml"
	envFileName    = ".env"
)

// envRefPattern matches ${NAME}. Bare $NAME and $$ are left alone so that
// literal secrets may contain dollar signs.
var envRefPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// osUserHomeDir is swapped out in tests.
var osUserHomeDir = os.UserHomeDir

// GetDefaultConfigPath returns the directory configuration is loaded from
// when no explicit path is given.
func GetDefaultConfigPath() (string, error) {
	homeDir, err := osUserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine user config directory: %w", err)
	}
	return filepath.Join(homeDir, userConfigDir), nil
}

// LoadConfig loads configuration from the given directory.
//
// The directory may contain config.yaml and a .env file. Variables from .env
// are loaded into the process environment (without overriding variables that
// are already set) and ${VAR} references in config.yaml are expanded before
// parsing. A missing config.yaml yields the defaults.
func LoadConfig(configPath string) (ForrestConfig, error) {
	cfg := GetDefaultConfig()

	envFilePath := filepath.Join(configPath, envFileName)
	if err := godotenv.Load(envFilePath); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return ForrestConfig{}, ConfigurationError{
				FilePath:  envFilePath,
				FileName:  envFileName,
				ErrorType: "parse",
				Message:   "failed to load environment file",
				Details:   err.Error(),
			}
		}
	} else {
		logging.Debug("Config", "Loaded environment from %s", envFilePath)
	}

	configFilePath := filepath.Join(configPath, configFileName)
	data, err := os.ReadFile(configFilePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logging.Info("Config", "No config.yaml found at %s, using defaults", configFilePath)
			return cfg, nil
		}
		return ForrestConfig{}, fmt.Errorf("failed to read %s: %w", configFilePath, err)
	}

	if err := yaml.Unmarshal(expandEnv(data), &cfg); err != nil {
		return ForrestConfig{}, ConfigurationError{
			FilePath:    configFilePath,
			FileName:    configFileName,
			ErrorType:   "parse",
			Message:     "malformed YAML",
			Details:     err.Error(),
			Suggestions: []string{"run 'forrest config publish' to start from the packaged template"},
		}
	}

	logging.Info("Config", "Loaded configuration from %s", configFilePath)
	return cfg, nil
}

// expandEnv replaces ${NAME} references with the environment value; unset
// variables expand to "".
func expandEnv(data []byte) []byte {
	return envRefPattern.ReplaceAllFunc(data, func(ref []byte) []byte {
		return []byte(os.Getenv(string(ref[2 : len(ref)-1])))
	})
}
