package app

import (
	"context"
	"fmt"
	"io"
	"os"

	"forrest/internal/config"
	"forrest/pkg/logging"
)

// Application bootstraps and runs forrest.
type Application struct {
	config   *Config
	services *Services
}

// NewApplication loads the configuration, initializes logging and builds
// every service. It fails when the configuration is invalid or the API client
// cannot be built from it.
func NewApplication(cfg *Config) (*Application, error) {
	return newApplication(cfg, os.Stderr)
}

func newApplication(cfg *Config, logOutput io.Writer) (*Application, error) {
	appLogLevel := logging.LevelInfo
	if cfg.Debug {
		appLogLevel = logging.LevelDebug
	}
	logging.InitForCLI(appLogLevel, logOutput)

	if cfg.ForrestConfig == nil {
		loaded, err := loadConfig(cfg.ConfigPath)
		if err != nil {
			return nil, err
		}
		cfg.ForrestConfig = &loaded
	}

	if !cfg.Debug && cfg.ForrestConfig.LogLevel != "" {
		logging.InitForCLI(logging.ParseLevel(cfg.ForrestConfig.LogLevel), logOutput)
	}

	if err := config.Validate(*cfg.ForrestConfig); err != nil {
		logging.Error("Bootstrap", err, "Invalid configuration")
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	services, err := InitializeServices(cfg)
	if err != nil {
		logging.Error("Bootstrap", err, "Failed to initialize services")
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	return &Application{
		config:   cfg,
		services: services,
	}, nil
}

func loadConfig(configPath string) (config.ForrestConfig, error) {
	if configPath == "" {
		defaultPath, err := config.GetDefaultConfigPath()
		if err != nil {
			return config.ForrestConfig{}, err
		}
		configPath = defaultPath
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logging.Error("Bootstrap", err, "Failed to load configuration from path: %s", configPath)
		return config.ForrestConfig{}, fmt.Errorf("failed to load configuration from path %s: %w", configPath, err)
	}
	return cfg, nil
}

// Services returns the initialized services.
func (a *Application) Services() *Services {
	return a.services
}

// Run serves until ctx is cancelled or the process is signalled.
func (a *Application) Run(ctx context.Context) error {
	defer func() {
		if err := a.services.Close(); err != nil {
			logging.Warn("Bootstrap", "Failed to release services: %v", err)
		}
	}()
	return runServer(ctx, a.services)
}
