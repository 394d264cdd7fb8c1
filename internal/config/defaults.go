package config

import "time"

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8090
	}
	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = "http://localhost:8080"
	}
	if cfg.API.Timeout == 0 {
		cfg.API.Timeout = 30 * time.Second
	}
	if cfg.API.DefaultElements == "" {
		cfg.API.DefaultElements = "p"
	}
	if cfg.API.DefaultThreshold == 0 {
		cfg.API.DefaultThreshold = 0.75
	}
	if cfg.API.PollInterval == 0 {
		cfg.API.PollInterval = 2 * time.Second
	}
	if cfg.API.PollAttempts == 0 {
		cfg.API.PollAttempts = 30
	}
	if cfg.Visualization.ContainerHeight == 0 {
		cfg.Visualization.ContainerHeight = 300
	}
	if cfg.Visualization.TerminalRows == 0 {
		cfg.Visualization.TerminalRows = 12
	}
	if cfg.Storage.HistoryPath == "" {
		cfg.Storage.HistoryPath = "/usr/local/var/semsim/history.db"
	}
	// Watch defaults to true when a samples directory is configured.
	if cfg.Samples.Directory != "" && cfg.Samples.Watch == nil {
		t := true
		cfg.Samples.Watch = &t
	}
}
