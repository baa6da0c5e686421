package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"forrest/pkg/logging"
)

//go:embed template/config.yaml
var configTemplate []byte

// ErrAlreadyPublished is returned by Publish when the destination exists and force is not set.
var ErrAlreadyPublished = errors.New("configuration file already exists")

// Template returns a copy of the packaged configuration template.
func Template() []byte {
	out := make([]byte, len(configTemplate))
	copy(out, configTemplate)
	return out
}

// Publish copies the packaged configuration template into dir as config.yaml
// and returns the path written. An existing file is only replaced when force is true.
func Publish(dir string, force bool) (string, error) {
	if dir == "" {
		return "", fmt.Errorf("destination directory cannot be empty")
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	target := filepath.Join(dir, configFileName)
	if _, err := os.Stat(target); err == nil && !force {
		return target, fmt.Errorf("%w: %s", ErrAlreadyPublished, target)
	}

	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, configTemplate, 0o600); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, target); err != nil {
		return "", fmt.Errorf("failed to move %s into place: %w", target, err)
	}

	logging.Info("Config", "Published configuration template to %s", target)
	return target, nil
}
