package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	content := `{
	// This is a JSONC comment
	"gateway": {
		"host": "0.0.0.0",
		"port": 9999,
	},
	"host": {
		"image_create_prefix": ["画"],
	},
	"models": {
		"default": "claude",
		"providers": {
			"claude": {
				"driver": "anthropic",
				"model": "claude-sonnet-4-20250514",
				"auth": {
					"api_key": "${{ .Env.ANTHROPIC_API_KEY }}"
				},
				"max_tokens": 4096
			}
		}
	},
	"weather": {
		"api_key": "${{ .Env.AMAP_KEY }}",
		"schedules": [
			{ "cron": "0 8 * * *", "city": "潮阳", "forecast": true },
		],
	},
	"draw": {
		"data_dir": "/tmp/leobot-draw",
		"painter": { "driver": "horde", "timeout": "90s" },
	},
}`

	dir := t.TempDir()
	path := filepath.Join(dir, "config.jsonc")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("ANTHROPIC_API_KEY", "test-key-123")
	t.Setenv("AMAP_KEY", "amap-456")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Gateway.Host != "0.0.0.0" {
		t.Errorf("expected host 0.0.0.0, got %s", cfg.Gateway.Host)
	}
	if cfg.Gateway.Port != 9999 {
		t.Errorf("expected port 9999, got %d", cfg.Gateway.Port)
	}
	if cfg.Models.Default != "claude" {
		t.Errorf("expected default claude, got %s", cfg.Models.Default)
	}
	if len(cfg.Host.ImageCreatePrefix) != 1 || cfg.Host.ImageCreatePrefix[0] != "画" {
		t.Errorf("expected image_create_prefix [画], got %v", cfg.Host.ImageCreatePrefix)
	}

	p, ok := cfg.Models.Providers["claude"]
	if !ok {
		t.Fatal("expected claude provider")
	}
	if p.Auth.APIKey != "test-key-123" {
		t.Errorf("expected api_key test-key-123, got %s", p.Auth.APIKey)
	}
	if p.MaxTokens != 4096 {
		t.Errorf("expected max_tokens 4096, got %d", p.MaxTokens)
	}

	if cfg.Weather.APIKey != "amap-456" {
		t.Errorf("expected weather api_key amap-456, got %s", cfg.Weather.APIKey)
	}
	if len(cfg.Weather.Schedules) != 1 || !cfg.Weather.Schedules[0].Forecast {
		t.Errorf("expected one forecast schedule, got %+v", cfg.Weather.Schedules)
	}

	if cfg.Draw.RulesFile != filepath.Join("/tmp/leobot-draw", "config.json") {
		t.Errorf("expected rules_file under data_dir, got %s", cfg.Draw.RulesFile)
	}
	if cfg.Draw.ImagesDir != filepath.Join("/tmp/leobot-draw", "img") {
		t.Errorf("expected images_dir under data_dir, got %s", cfg.Draw.ImagesDir)
	}
	if cfg.Draw.Painter.Driver != "horde" {
		t.Errorf("expected painter driver horde, got %s", cfg.Draw.Painter.Driver)
	}
	if cfg.Draw.Painter.BaseURL != "" {
		t.Errorf("expected no default base_url for horde, got %s", cfg.Draw.Painter.BaseURL)
	}
	if cfg.Draw.Painter.Timeout.Duration() != 90*time.Second {
		t.Errorf("expected painter timeout 90s, got %s", cfg.Draw.Painter.Timeout.Duration())
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("LEOBOT_PATH", "/tmp/test-leobot")

	content := `{}`
	dir := t.TempDir()
	path := filepath.Join(dir, "config.jsonc")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Gateway.Host != "127.0.0.1" {
		t.Errorf("expected default host 127.0.0.1, got %s", cfg.Gateway.Host)
	}
	if cfg.Gateway.Port != 18480 {
		t.Errorf("expected default port 18480, got %d", cfg.Gateway.Port)
	}
	if cfg.Events.BufferSize != 1024 {
		t.Errorf("expected default buffer 1024, got %d", cfg.Events.BufferSize)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected default log level 'info', got %q", cfg.Logging.Level)
	}
	if cfg.Weather.AdcodeDB != "/tmp/test-leobot/adcode.db" {
		t.Errorf("expected default adcode_db, got %s", cfg.Weather.AdcodeDB)
	}
	if cfg.Draw.DataDir != "/tmp/test-leobot/draw" {
		t.Errorf("expected default data_dir, got %s", cfg.Draw.DataDir)
	}
	if cfg.Draw.StateStore != "file" {
		t.Errorf("expected default state_store 'file', got %q", cfg.Draw.StateStore)
	}
	if cfg.Draw.Painter.Driver != "sdwebui" || cfg.Draw.Painter.BaseURL != "http://127.0.0.1:7860" {
		t.Errorf("expected sdwebui on 127.0.0.1:7860, got %s %s", cfg.Draw.Painter.Driver, cfg.Draw.Painter.BaseURL)
	}
	if !IsEnabled(cfg.Weather.Enabled) || !IsEnabled(cfg.Draw.Enabled) {
		t.Error("expected plugins enabled by default")
	}
}

func TestLoadInvalid(t *testing.T) {
	if _, err := Parse([]byte(`{"gateway": `)); err == nil {
		t.Fatal("expected error for truncated document")
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.jsonc")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestIsEnabled(t *testing.T) {
	off := false
	on := true
	if IsEnabled(&off) {
		t.Error("expected explicit false to disable")
	}
	if !IsEnabled(&on) {
		t.Error("expected explicit true to enable")
	}
}

func TestExpandEnvTemplates(t *testing.T) {
	t.Setenv("TEST_KEY", "my-secret")
	result := expandEnvTemplates(`{"key": "${{ .Env.TEST_KEY }}"}`)
	expected := `{"key": "my-secret"}`
	if result != expected {
		t.Errorf("expected %s, got %s", expected, result)
	}
}
