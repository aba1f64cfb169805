package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/OEvortex/geminicli-sdk/internal/logging"
)

// Load reads the global config file, then applies environment overrides.
// A missing file is not an error.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	if path := configPath(); path != "" {
		if err := loadFromFile(cfg, path); err != nil {
			if !os.IsNotExist(err) {
				return nil, err
			}
		}
	}

	loadFromEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile reads a specific config file plus environment overrides. Unlike
// Load, a missing file is an error.
func LoadFile(path string) (*Config, error) {
	cfg := DefaultConfig()
	if err := loadFromFile(cfg, path); err != nil {
		return nil, err
	}
	loadFromEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// configPath returns ~/.config/geminisdk/config.yaml, honoring
// XDG_CONFIG_HOME.
func configPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "geminisdk", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "geminisdk", "config.yaml")
}

func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	// The file may carry a client secret, so nudge toward tight modes.
	if info, statErr := os.Stat(path); statErr == nil {
		if mode := info.Mode().Perm(); mode&0o077 != 0 {
			logging.Warn("config file has insecure permissions",
				"path", path, "mode", fmt.Sprintf("%04o", mode), "recommended", "0600")
		}
	}

	expanded := expandSafeEnvVars(string(data))
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// safeEnvVars limits which variables expand inside config files, so a
// config cannot pull arbitrary secrets out of the environment.
var safeEnvVars = map[string]bool{
	"HOME":            true,
	"USER":            true,
	"XDG_CONFIG_HOME": true,
	"XDG_DATA_HOME":   true,
	"TMPDIR":          true,
	"PWD":             true,
}

func expandSafeEnvVars(data string) string {
	return os.Expand(data, func(key string) string {
		if safeEnvVars[key] {
			return os.Getenv(key)
		}
		return "${" + key + "}"
	})
}

func loadFromEnv(cfg *Config) {
	if path := os.Getenv("GEMINI_SDK_OAUTH_PATH"); path != "" {
		cfg.Auth.CredentialPath = path
	}
	if project := os.Getenv("GOOGLE_CLOUD_PROJECT"); project != "" {
		cfg.API.ProjectID = project
	}
	if model := os.Getenv("GEMINI_SDK_MODEL"); model != "" {
		cfg.Model.Name = model
	}
	if level := os.Getenv("GEMINI_SDK_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
}
