package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/tailscale/hujson"
)

var envTemplateRe = regexp.MustCompile(`\$\{\{\s*\.Env\.(\w+)\s*\}\}`)

// Load reads a JSONC config file, expands ${{ .Env.VAR }} templates,
// standardizes it to plain JSON, unmarshals it into Config, and applies defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes a JSONC document into Config.
func Parse(data []byte) (*Config, error) {
	// Expand environment variable templates (before standardizing, since templates are in strings)
	expanded := expandEnvTemplates(string(data))

	std, err := hujson.Standardize([]byte(expanded))
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(std, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

// Default returns a configuration with every default applied.
func Default() *Config {
	var cfg Config
	applyDefaults(&cfg)
	return &cfg
}

// expandEnvTemplates replaces ${{ .Env.VAR }} with the env var value.
func expandEnvTemplates(s string) string {
	return envTemplateRe.ReplaceAllStringFunc(s, func(match string) string {
		parts := envTemplateRe.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}
		return os.Getenv(parts[1])
	})
}

// applyDefaults fills in zero-value fields with sensible defaults.
func applyDefaults(cfg *Config) {
	if cfg.Gateway.Host == "" {
		cfg.Gateway.Host = "127.0.0.1"
	}
	if cfg.Gateway.Port == 0 {
		cfg.Gateway.Port = 18480
	}
	if cfg.Events.BufferSize == 0 {
		cfg.Events.BufferSize = 1024
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if len(cfg.Host.ImageCreatePrefix) == 0 {
		cfg.Host.ImageCreatePrefix = []string{"画", "看", "找"}
	}

	// Weather
	if cfg.Weather.BaseURL == "" {
		cfg.Weather.BaseURL = "https://restapi.amap.com/v3"
	}
	if cfg.Weather.AdcodeDB == "" {
		cfg.Weather.AdcodeDB = filepath.Join(LeobotPath(), "adcode.db")
	}
	if cfg.Weather.Timeout == 0 {
		cfg.Weather.Timeout = Duration(defaultWeatherTimeout)
	}

	// Drawing
	if cfg.Draw.DataDir == "" {
		cfg.Draw.DataDir = filepath.Join(LeobotPath(), "draw")
	}
	if cfg.Draw.RulesFile == "" {
		cfg.Draw.RulesFile = filepath.Join(cfg.Draw.DataDir, "config.json")
	}
	if cfg.Draw.ImagesDir == "" {
		cfg.Draw.ImagesDir = filepath.Join(cfg.Draw.DataDir, "img")
	}
	if cfg.Draw.StateStore == "" {
		cfg.Draw.StateStore = "file"
	}
	if cfg.Draw.Painter.Driver == "" {
		cfg.Draw.Painter.Driver = "sdwebui"
	}
	if cfg.Draw.Painter.BaseURL == "" && cfg.Draw.Painter.Driver == "sdwebui" {
		cfg.Draw.Painter.BaseURL = "http://127.0.0.1:7860"
	}
	if cfg.Draw.Painter.Timeout == 0 {
		cfg.Draw.Painter.Timeout = Duration(defaultPainterTimeout)
	}
	// Auth resolution is deferred to models.ResolveAuth() at model init time.
}
