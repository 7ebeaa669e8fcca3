package recipe

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ErrMissingWorkingDirectory is returned when the user config has no working_directory.
var ErrMissingWorkingDirectory = errors.New("no `working_directory` key found in the config file")

// UserConfig is the per-user configuration shared by all recipes.
type UserConfig struct {
	WorkingDirectory string `yaml:"working_directory"`
}

// DefaultConfigPath returns ~/.config/harmonize/harmonize_config.yml.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate home directory: %w", err)
	}
	return filepath.Join(home, ".config", "harmonize", "harmonize_config.yml"), nil
}

// LoadConfig reads the user config at path.
func LoadConfig(path string) (*UserConfig, error) {
	data, err := os.ReadFile(path) //nolint:gosec // Config path is user supplied on purpose.
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("no config file was found at '%s': %w", path, err)
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	var cfg UserConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if cfg.WorkingDirectory == "" {
		return nil, ErrMissingWorkingDirectory
	}
	return &cfg, nil
}

// Dirs returns the download, ingest and output roots below the working directory.
func (c *UserConfig) Dirs() (download, ingest, output string) {
	return filepath.Join(c.WorkingDirectory, "download"),
		filepath.Join(c.WorkingDirectory, "ingest"),
		filepath.Join(c.WorkingDirectory, "output")
}
