package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLeobotPath_Default(t *testing.T) {
	t.Setenv("LEOBOT_PATH", "")

	home, err := os.UserHomeDir()
	if err != nil {
		t.Fatal(err)
	}

	got := LeobotPath()
	want := filepath.Join(home, ".leobot")
	if got != want {
		t.Errorf("LeobotPath() = %q, want %q", got, want)
	}
}

func TestLeobotPath_EnvOverride(t *testing.T) {
	t.Setenv("LEOBOT_PATH", "/tmp/custom-leobot")

	got := LeobotPath()
	want := "/tmp/custom-leobot"
	if got != want {
		t.Errorf("LeobotPath() = %q, want %q", got, want)
	}
}

func TestConfigPath(t *testing.T) {
	t.Setenv("LEOBOT_PATH", "/tmp/test-leobot")

	got := ConfigPath()
	want := "/tmp/test-leobot/config.jsonc"
	if got != want {
		t.Errorf("ConfigPath() = %q, want %q", got, want)
	}
}

func TestDotenvPath(t *testing.T) {
	t.Setenv("LEOBOT_PATH", "/tmp/test-leobot")

	got := DotenvPath()
	want := "/tmp/test-leobot/.env"
	if got != want {
		t.Errorf("DotenvPath() = %q, want %q", got, want)
	}
}
