package config

import "time"

// Config is the root configuration for leobot.
type Config struct {
	Gateway GatewayConfig `json:"gateway"`
	Events  EventsConfig  `json:"events"`
	Logging LoggingConfig `json:"logging"`
	Host    HostConfig    `json:"host"`
	Models  ModelsConfig  `json:"models"`
	Weather WeatherConfig `json:"weather"`
	Draw    DrawConfig    `json:"draw"`
}

// GatewayConfig holds the gateway server settings.
type GatewayConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// EventsConfig holds event bus settings.
type EventsConfig struct {
	BufferSize int `json:"buffer_size"`
}

// LoggingConfig controls the default slog handler.
type LoggingConfig struct {
	Level string `json:"level"` // debug, info, warn, error
	File  string `json:"file"`  // optional JSON log file, in addition to stderr
}

// HostConfig mirrors the chat host settings the plugins depend on.
type HostConfig struct {
	ImageCreatePrefix []string `json:"image_create_prefix"`
	// NoImageReply marks channels that cannot deliver image replies.
	NoImageReply bool `json:"no_image_reply,omitempty"`
}

// ModelsConfig holds model provider configuration.
type ModelsConfig struct {
	Default   string                    `json:"default"`
	Providers map[string]ProviderConfig `json:"providers"`
}

// ProviderConfig configures a single LLM provider.
type ProviderConfig struct {
	Driver    string         `json:"driver"` // "openai", "ollama", "anthropic", "gemini"
	Model     string         `json:"model"`
	BaseURL   string         `json:"base_url,omitempty"`
	Auth      AuthConfig     `json:"auth"`
	MaxTokens int            `json:"max_tokens,omitempty"`
	Timeout   Duration       `json:"timeout,omitempty"`
	Options   map[string]any `json:"options,omitempty"`
}

// AuthConfig configures API key resolution.
type AuthConfig struct {
	APIKey string `json:"api_key,omitempty"` // Direct API key or ${{ .Env.VAR }} template
}

// WeatherConfig configures the AMap weather plugin.
type WeatherConfig struct {
	Enabled   *bool             `json:"enabled,omitempty"`
	APIKey    string            `json:"api_key"`
	BaseURL   string            `json:"base_url"`
	AdcodeDB  string            `json:"adcode_db"` // SQLite city index (default: $LEOBOT_PATH/adcode.db)
	Timeout   Duration          `json:"timeout,omitempty"`
	Schedules []WeatherSchedule `json:"schedules,omitempty"`
}

// WeatherSchedule is a cron-triggered weather broadcast.
type WeatherSchedule struct {
	Cron     string `json:"cron"`
	City     string `json:"city"`
	Forecast bool   `json:"forecast,omitempty"`
}

// DrawConfig configures the Stable Diffusion drawing plugin.
type DrawConfig struct {
	Enabled    *bool         `json:"enabled,omitempty"`
	RulesFile  string        `json:"rules_file"`  // rule document (default: $LEOBOT_PATH/draw/config.json)
	DataDir    string        `json:"data_dir"`    // state.txt + model.txt (default: $LEOBOT_PATH/draw)
	ImagesDir  string        `json:"images_dir"`  // generated PNGs (default: <data_dir>/img)
	StateStore string        `json:"state_store"` // "file" (default) or "memory"
	Translator string        `json:"translator"`  // model provider name (empty = models.default)
	Painter    PainterConfig `json:"painter"`
}

// PainterConfig selects and configures the image backend.
type PainterConfig struct {
	Driver   string   `json:"driver"` // "sdwebui" (default) or "horde"
	BaseURL  string   `json:"base_url,omitempty"`
	Username string   `json:"username,omitempty"`
	Password string   `json:"password,omitempty"`
	APIKey   string   `json:"api_key,omitempty"` // horde only
	Timeout  Duration `json:"timeout,omitempty"`
}

// IsEnabled reports whether a plugin toggle is on. A nil toggle means enabled.
func IsEnabled(b *bool) bool {
	return b == nil || *b
}

// Duration wraps time.Duration for JSON unmarshaling.
type Duration time.Duration

func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	// Remove quotes
	s := string(b)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return []byte(`"` + time.Duration(d).String() + `"`), nil
}
