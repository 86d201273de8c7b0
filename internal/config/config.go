// Package config manages TALON user-level configuration.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
)

const (
	ConfigDirName   = ".talon"
	ConfigFileName  = "config.json"
	DefaultLogLevel = "info"
)

// GlobalConfig holds user-level configuration for the TALON console.
type GlobalConfig struct {
	LogLevel       string `json:"log_level"`
	DataDir        string `json:"data_dir"`         // Run history, audit log, loot vault
	Operator       string `json:"operator"`         // Recorded in run and audit records
	DefaultDelayMs int    `json:"default_delay_ms"` // Inter-attempt delay for brute modules
	ReportTitle    string `json:"report_title"`
}

// DefaultGlobalConfig returns sensible defaults.
func DefaultGlobalConfig() GlobalConfig {
	home, _ := os.UserHomeDir()
	return GlobalConfig{
		LogLevel:       DefaultLogLevel,
		DataDir:        filepath.Join(home, ConfigDirName, "data"),
		Operator:       "local",
		DefaultDelayMs: 500,
		ReportTitle:    "TALON Assessment Report",
	}
}

// ConfigDir returns the global TALON config directory path.
func ConfigDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ConfigDirName)
}

// LoadGlobalConfig loads the global config from ~/.talon/config.json.
func LoadGlobalConfig() (GlobalConfig, error) {
	path := filepath.Join(ConfigDir(), ConfigFileName)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultGlobalConfig(), nil
		}
		return GlobalConfig{}, err
	}

	cfg := DefaultGlobalConfig()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return GlobalConfig{}, err
	}
	return cfg, nil
}

// SaveGlobalConfig persists the global config to ~/.talon/config.json.
func SaveGlobalConfig(cfg GlobalConfig) error {
	dir := ConfigDir()
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(dir, ConfigFileName), data, 0600)
}
