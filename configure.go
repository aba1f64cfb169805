package geminisdk

import (
	"io"
	"log/slog"
	"strings"

	"github.com/OEvortex/geminicli-sdk/client"
	"github.com/OEvortex/geminicli-sdk/config"
	"github.com/OEvortex/geminicli-sdk/internal/logging"
)

// SetLogLevel adjusts SDK log verbosity: debug, info, warn, error or none.
// Unknown values are ignored.
func SetLogLevel(level string) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		logging.SetLevel(slog.LevelDebug)
	case "info":
		logging.SetLevel(slog.LevelInfo)
	case "warn", "warning":
		logging.SetLevel(slog.LevelWarn)
	case "error":
		logging.SetLevel(slog.LevelError)
	case "none":
		logging.SetLevel(slog.Level(127))
	}
}

// SetLogOutput redirects SDK log output.
func SetLogOutput(w io.Writer) {
	logging.SetOutput(w)
}

// NewClientFromConfig builds a client from a loaded configuration and
// applies its logging level.
func NewClientFromConfig(cfg *config.Config) *Client {
	SetLogLevel(cfg.Logging.Level)

	opts := ClientOptions{
		CredentialPath: cfg.Auth.CredentialPath,
		ClientID:       cfg.Auth.ClientID,
		ClientSecret:   cfg.Auth.ClientSecret,
		BaseURL:        cfg.API.BaseURL,
		ProjectID:      cfg.API.ProjectID,
	}
	if cfg.Auth.AutoRefresh != nil && !*cfg.Auth.AutoRefresh {
		opts.DisableAutoRefresh = true
	}
	return NewClient(opts)
}

// SessionDefaults turns configured generation defaults into a
// SessionConfig that CreateSession can extend.
func SessionDefaults(cfg *config.Config) SessionConfig {
	sc := SessionConfig{
		Model:     cfg.Model.Name,
		Streaming: cfg.Defaults.Streaming,
	}

	if cfg.Defaults.Temperature != nil || cfg.Defaults.MaxOutputTokens > 0 {
		gen := &client.GenerationConfig{Temperature: 0.7}
		if cfg.Defaults.Temperature != nil {
			gen.Temperature = *cfg.Defaults.Temperature
		}
		gen.MaxOutputTokens = cfg.Defaults.MaxOutputTokens
		sc.GenerationConfig = gen
	}

	if cfg.Defaults.IncludeThoughts != nil || cfg.Defaults.ThinkingBudget > 0 {
		think := &client.ThinkingConfig{IncludeThoughts: true}
		if cfg.Defaults.IncludeThoughts != nil {
			think.IncludeThoughts = *cfg.Defaults.IncludeThoughts
		}
		think.ThinkingBudget = cfg.Defaults.ThinkingBudget
		sc.ThinkingConfig = think
	}

	return sc
}
