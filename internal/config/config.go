// Package config provides configuration loading and structs for the semsim demo.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug         bool                `yaml:"debug"`
	Server        ServerConfig        `yaml:"server"`
	API           APIConfig           `yaml:"api"`
	Samples       SamplesConfig       `yaml:"samples"`
	Visualization VisualizationConfig `yaml:"visualization"`
	Storage       StorageConfig       `yaml:"storage"`
}

// ServerConfig holds settings for the demo web server.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// APIConfig describes the similarity API the demo talks to.
type APIConfig struct {
	BaseURL          string        `yaml:"base_url"`
	Timeout          time.Duration `yaml:"timeout"`
	DefaultElements  string        `yaml:"default_elements"`
	DefaultThreshold float64       `yaml:"default_threshold"`
	PollInterval     time.Duration `yaml:"poll_interval"`
	PollAttempts     int           `yaml:"poll_attempts"`
}

// SamplesConfig holds the sample XML library settings.
type SamplesConfig struct {
	// Directory holds small.xml, medium.xml and large.xml. Empty uses the built-in samples.
	Directory string `yaml:"directory"`
	Watch     *bool  `yaml:"watch"`
}

// WatchOrDefault returns whether to reload samples on change; defaults to true when unset.
func (s *SamplesConfig) WatchOrDefault() bool {
	if s.Watch != nil {
		return *s.Watch
	}
	return true
}

// VisualizationConfig holds chart sizing.
type VisualizationConfig struct {
	// ContainerHeight is the chart container height in pixels.
	ContainerHeight float64 `yaml:"container_height"`
	// TerminalRows is the height of the terminal bar chart.
	TerminalRows int `yaml:"terminal_rows"`
}

// StorageConfig holds the run history database path.
type StorageConfig struct {
	HistoryPath string `yaml:"history_path"`
}

// Load reads and parses the config file at path, applies env overrides,
// expands paths and applies defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := ApplyEnv(&cfg); err != nil {
		return nil, err
	}
	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.HistoryPath = expandPath(cfg.Storage.HistoryPath, configDir)
	if cfg.Samples.Directory != "" {
		cfg.Samples.Directory = expandPath(cfg.Samples.Directory, configDir)
	}

	return &cfg, nil
}

// Default returns a config with only defaults and env overrides applied,
// for running without a config file.
func Default() (*Config, error) {
	var cfg Config
	if err := ApplyEnv(&cfg); err != nil {
		return nil, err
	}
	ApplyDefaults(&cfg)
	return &cfg, nil
}

// ApplyEnv overrides cfg with SEMSIM_* environment variables when they are set.
func ApplyEnv(cfg *Config) error {
	if v := os.Getenv("SEMSIM_API_URL"); v != "" {
		cfg.API.BaseURL = v
	}
	if v := os.Getenv("SEMSIM_SAMPLES_DIR"); v != "" {
		cfg.Samples.Directory = v
	}
	if v := os.Getenv("SEMSIM_HISTORY_PATH"); v != "" {
		cfg.Storage.HistoryPath = v
	}
	if v := os.Getenv("SEMSIM_DEBUG"); v != "" {
		debug, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid SEMSIM_DEBUG %q: %w", v, err)
		}
		cfg.Debug = debug
	}
	if v := os.Getenv("SEMSIM_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid SEMSIM_PORT %q: %w", v, err)
		}
		cfg.Server.Port = port
	}
	return nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
