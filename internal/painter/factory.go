package painter

import (
	"fmt"

	"github.com/leo-bot/leobot/internal/config"
	"github.com/leo-bot/leobot/internal/drawing"
)

// New creates the painter selected by cfg.Driver.
func New(cfg config.PainterConfig) (drawing.Painter, error) {
	switch cfg.Driver {
	case "", "sdwebui":
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("sdwebui painter: base_url is required")
		}
		return NewSDWebUI(cfg.BaseURL, cfg.Username, cfg.Password, cfg.Timeout.Duration()), nil
	case "horde":
		return NewHorde(cfg.APIKey), nil
	default:
		return nil, fmt.Errorf("unsupported painter driver: %q", cfg.Driver)
	}
}

// WithStart overlays the rule document's start arguments on cfg.
func WithStart(cfg config.PainterConfig, start drawing.Start) config.PainterConfig {
	if u := start.URL(); u != "" {
		cfg.BaseURL = u
	}
	if start.Username != "" {
		cfg.Username = start.Username
		cfg.Password = start.Password
	}
	return cfg
}
