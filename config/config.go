// Package config loads SDK settings from a YAML file with environment
// overrides. Everything here is optional; the zero configuration uses the
// Gemini CLI's credentials and the default model.
package config

import (
	"fmt"
	"strings"
)

// Config is the root configuration.
type Config struct {
	Auth     AuthConfig     `yaml:"auth"`
	API      APIConfig      `yaml:"api"`
	Model    ModelConfig    `yaml:"model"`
	Defaults DefaultsConfig `yaml:"defaults"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// AuthConfig selects where credentials come from.
type AuthConfig struct {
	// CredentialPath overrides ~/.gemini/oauth_creds.json.
	CredentialPath string `yaml:"credential_path"`
	ClientID       string `yaml:"client_id"`
	ClientSecret   string `yaml:"client_secret"`
	// AutoRefresh enables the background token refresh loop.
	AutoRefresh *bool `yaml:"auto_refresh"`
}

// APIConfig points at the Code Assist API.
type APIConfig struct {
	BaseURL   string `yaml:"base_url"`
	ProjectID string `yaml:"project_id"`
}

// ModelConfig selects the default model for new sessions.
type ModelConfig struct {
	Name string `yaml:"name"`
}

// DefaultsConfig holds generation defaults applied to sessions that do not
// configure their own.
type DefaultsConfig struct {
	Temperature     *float64 `yaml:"temperature"`
	MaxOutputTokens int      `yaml:"max_output_tokens"`
	IncludeThoughts *bool    `yaml:"include_thoughts"`
	ThinkingBudget  int      `yaml:"thinking_budget"`
	Streaming       *bool    `yaml:"streaming"`
}

// LoggingConfig controls SDK log output.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error, none.
	Level string `yaml:"level"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		Model:   ModelConfig{Name: "gemini-2.5-pro"},
		Logging: LoggingConfig{Level: "warn"},
	}
}

// Validate checks fields with a constrained value set.
func (c *Config) Validate() error {
	switch strings.ToLower(strings.TrimSpace(c.Logging.Level)) {
	case "", "debug", "info", "warn", "warning", "error", "none":
	default:
		return fmt.Errorf("invalid logging.level %q: expected debug, info, warn, error or none", c.Logging.Level)
	}
	if c.Defaults.MaxOutputTokens < 0 {
		return fmt.Errorf("defaults.max_output_tokens must be >= 0")
	}
	if c.Defaults.ThinkingBudget < 0 {
		return fmt.Errorf("defaults.thinking_budget must be >= 0")
	}
	if c.Defaults.Temperature != nil && (*c.Defaults.Temperature < 0 || *c.Defaults.Temperature > 2) {
		return fmt.Errorf("defaults.temperature must be between 0 and 2")
	}
	return nil
}
