package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const defaultSweepInterval = 24 * time.Hour

// Config represents the application configuration
type Config struct {
	DatabaseURL string `yaml:"databaseURL" validate:"required"`
	// SweepInterval is how often the expiration sweeper runs in daemon
	// mode, as a Go duration string. Defaults to 24h.
	SweepInterval string `yaml:"sweepInterval,omitempty"`
	// MetricsAddr is the listen address for the Prometheus metrics
	// endpoint in daemon mode. Empty disables the endpoint.
	MetricsAddr string `yaml:"metricsAddr,omitempty"`
	LogEnv      string `yaml:"logEnv,omitempty"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Load loads and validates the configuration from postulate_config.yaml
// It looks for the config file in the current directory first, then in the user's home directory
func Load() (*Config, error) {
	configPath, err := findConfigFile()
	if err != nil {
		return nil, fmt.Errorf("failed to find config file: %w", err)
	}

	return LoadFromPath(configPath)
}

// LoadFromPath loads and validates the configuration from a specific path
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate validates the configuration struct and checks the sweep
// interval syntax
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	if cfg.SweepInterval != "" {
		d, err := time.ParseDuration(cfg.SweepInterval)
		if err != nil {
			return fmt.Errorf("invalid sweepInterval: %w", err)
		}
		if d <= 0 {
			return fmt.Errorf("invalid sweepInterval: must be positive")
		}
	}

	return nil
}

// SweepEvery returns the configured sweep interval, or the 24h default
// when none is set. Validate has already checked the syntax.
func (c *Config) SweepEvery() time.Duration {
	if c.SweepInterval == "" {
		return defaultSweepInterval
	}
	d, err := time.ParseDuration(c.SweepInterval)
	if err != nil {
		return defaultSweepInterval
	}
	return d
}

// Env returns the log environment name, defaulting to "postulate".
func (c *Config) Env() string {
	if c.LogEnv == "" {
		return "postulate"
	}
	return c.LogEnv
}

// findConfigFile searches for postulate_config.yaml in current directory and home directory
func findConfigFile() (string, error) {
	configFileName := "postulate_config.yaml"

	// Check current directory
	if _, err := os.Stat(configFileName); err == nil {
		return configFileName, nil
	}

	// Check home directory
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	homeConfigPath := filepath.Join(homeDir, configFileName)
	if _, err := os.Stat(homeConfigPath); err == nil {
		return homeConfigPath, nil
	}

	return "", fmt.Errorf("config file not found in current directory or home directory")
}
