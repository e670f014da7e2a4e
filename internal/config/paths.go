package config

import (
	"os"
	"path/filepath"
	"time"
)

const (
	defaultWeatherTimeout = 10 * time.Second
	defaultPainterTimeout = 5 * time.Minute
)

// LeobotPath returns the root directory for leobot data.
// It uses $LEOBOT_PATH if set, otherwise defaults to ~/.leobot.
func LeobotPath() string {
	if v := os.Getenv("LEOBOT_PATH"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".leobot")
	}
	return filepath.Join(home, ".leobot")
}

// ConfigPath returns the path to the leobot config file.
func ConfigPath() string {
	return filepath.Join(LeobotPath(), "config.jsonc")
}

// DotenvPath returns the path to the leobot .env file.
func DotenvPath() string {
	return filepath.Join(LeobotPath(), ".env")
}
