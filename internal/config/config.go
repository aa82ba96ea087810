// Package config provides unified configuration loading for varsim.
// It supports loading from YAML files and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config contains all varsim settings.
type Config struct {
	// Population is the fixed integer range samples are drawn from.
	Population PopulationConfig `json:"population" yaml:"population"`

	// Sampling bounds the per-iteration sample size.
	Sampling SamplingConfig `json:"sampling" yaml:"sampling"`

	// Simulation controls the iteration cadence.
	Simulation SimulationConfig `json:"simulation" yaml:"simulation"`

	// Server configures the visualization server.
	Server ServerConfig `json:"server" yaml:"server"`

	// Logging contains settings for operational and trace logging.
	Logging LoggingConfig `json:"logging" yaml:"logging"`
}

// PopulationConfig defines the inclusive integer range of the population.
type PopulationConfig struct {
	Low  int `json:"low" yaml:"low"`
	High int `json:"high" yaml:"high"`
}

// SamplingConfig bounds the randomly chosen sample size. Sizes beyond the
// population size are clamped at draw time, not rejected here.
type SamplingConfig struct {
	// MinSize must stay at least 2 so the n-1 estimator is always defined.
	MinSize int `json:"min_size" yaml:"min_size"`
	MaxSize int `json:"max_size" yaml:"max_size"`
}

// SimulationConfig controls the sampling loop.
type SimulationConfig struct {
	// Interval is the pause between iterations while running.
	Interval time.Duration `json:"interval" yaml:"interval"`
}

// ServerConfig configures the visualization server.
type ServerConfig struct {
	// AutoOpen controls whether `varsim run` opens the browser.
	AutoOpen bool `json:"auto_open" yaml:"auto_open"`
}

// LoggingConfig configures varsim's logging behavior.
type LoggingConfig struct {
	// Level sets the log verbosity: "info" (default), "debug", or "trace".
	// "debug" enables iteration tracing to .varsim/trace.jsonl.
	// "trace" additionally logs every draw to stderr.
	Level string `json:"level" yaml:"level"`
}

// Default returns the reference simulation settings: population 1..20,
// sample sizes 2..10, a 350ms iteration interval.
func Default() *Config {
	return &Config{
		Population: PopulationConfig{Low: 1, High: 20},
		Sampling:   SamplingConfig{MinSize: 2, MaxSize: 10},
		Simulation: SimulationConfig{Interval: 350 * time.Millisecond},
		Server:     ServerConfig{AutoOpen: true},
		Logging:    LoggingConfig{Level: "info"},
	}
}

// Load loads configuration from the default locations and environment variables.
// Order: defaults -> ~/.varsim/config.yaml -> environment variables
func Load() (*Config, error) {
	config := Default()

	homeDir, err := os.UserHomeDir()
	if err == nil {
		configPath := filepath.Join(homeDir, ".varsim", "config.yaml")
		if _, statErr := os.Stat(configPath); statErr == nil {
			fileConfig, loadErr := LoadFromFile(configPath)
			if loadErr != nil {
				return nil, fmt.Errorf("loading config file: %w", loadErr)
			}
			config = fileConfig
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// LoadFromFile loads configuration from a specific YAML file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	return config, nil
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.Population.High-c.Population.Low < 1 {
		return fmt.Errorf("population range [%d, %d] must contain at least 2 values",
			c.Population.Low, c.Population.High)
	}

	if c.Sampling.MinSize < 2 {
		return fmt.Errorf("sampling min_size must be at least 2, got %d", c.Sampling.MinSize)
	}
	if c.Sampling.MaxSize < c.Sampling.MinSize {
		return fmt.Errorf("sampling max_size %d below min_size %d",
			c.Sampling.MaxSize, c.Sampling.MinSize)
	}

	if c.Simulation.Interval <= 0 {
		return fmt.Errorf("simulation interval must be positive, got %v", c.Simulation.Interval)
	}

	validLevels := map[string]bool{"info": true, "debug": true, "trace": true}
	if c.Logging.Level != "" && !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (valid: info, debug, trace, or empty for default)", c.Logging.Level)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(config *Config) {
	if v := os.Getenv("VARSIM_POPULATION_LOW"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Population.Low = n
		}
	}
	if v := os.Getenv("VARSIM_POPULATION_HIGH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Population.High = n
		}
	}

	if v := os.Getenv("VARSIM_SAMPLE_MIN"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Sampling.MinSize = n
		}
	}
	if v := os.Getenv("VARSIM_SAMPLE_MAX"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Sampling.MaxSize = n
		}
	}

	if v := os.Getenv("VARSIM_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			config.Simulation.Interval = d
		}
	}

	if v := os.Getenv("VARSIM_NO_OPEN"); v != "" {
		config.Server.AutoOpen = !(v == "true" || v == "1")
	}

	if v := os.Getenv("VARSIM_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
}
