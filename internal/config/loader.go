package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	DefaultDataDir = ".authkit"
	ConfigFileName = "config.json"
)

// LoadFromFile loads configuration from a specific file. An empty path
// loads defaults only.
func LoadFromFile(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath != "" {
		if err := loadConfigFile(configPath, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := finalize(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load loads configuration from file, environment, and defaults. The file
// is taken from the AUTHKIT_CONFIG override or found in the standard
// locations; a missing file is not an error.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	setupViper()

	configPath := viper.GetString("config")
	if configPath != "" {
		if err := loadConfigFile(configPath, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	} else if found, location, err := findAndLoadConfigFile(cfg); err != nil && found {
		return nil, fmt.Errorf("failed to load config file %s: %w", location, err)
	}

	applyEnvOverrides(cfg)

	if err := finalize(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// finalize fills in the data directory, creates it, and validates.
func finalize(cfg *Config) error {
	if cfg.DataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get user home directory: %w", err)
		}
		cfg.DataDir = filepath.Join(homeDir, DefaultDataDir)
	}
	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		return fmt.Errorf("failed to create data directory %s: %w", cfg.DataDir, err)
	}

	if cfg.Cache == nil {
		cfg.Cache = &CacheConfig{EnableDisk: true}
	}
	if cfg.Cache.Dir == "" {
		cfg.Cache.Dir = filepath.Join(cfg.DataDir, "cache")
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// setupViper configures viper with environment variable handling.
func setupViper() {
	viper.SetEnvPrefix("AUTHKIT")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	viper.SetDefault("config", "")
	viper.SetDefault("data-dir", "")
	viper.SetDefault("log-level", "")
}

// applyEnvOverrides applies scalar environment overrides that bypass the
// config file.
func applyEnvOverrides(cfg *Config) {
	if value := viper.GetString("data-dir"); value != "" {
		cfg.DataDir = value
	}
	if value := viper.GetString("log-level"); value != "" {
		if cfg.Logging == nil {
			cfg.Logging = DefaultConfig().Logging
		}
		cfg.Logging.Level = value
	}
}

// findAndLoadConfigFile tries the standard config file locations.
func findAndLoadConfigFile(cfg *Config) (found bool, path string, err error) {
	locations := []string{
		ConfigFileName,
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		locations = append(locations, filepath.Join(homeDir, DefaultDataDir, ConfigFileName))
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return true, location, loadConfigFile(location, cfg)
		}
	}
	return false, "", nil
}

// loadConfigFile loads configuration from a JSON file. An empty file is
// treated as no configuration so --config=/dev/null means defaults only.
func loadConfigFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

// SaveConfig saves configuration to file. The file carries credentials in
// whatever reference form the user wrote, so it stays 0600.
func SaveConfig(cfg *Config, path string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// GetConfigPath returns the path to the configuration file in the data
// directory.
func GetConfigPath(dataDir string) string {
	if dataDir == "" {
		homeDir, _ := os.UserHomeDir()
		dataDir = filepath.Join(homeDir, DefaultDataDir)
	}
	return filepath.Join(dataDir, ConfigFileName)
}
