package commands

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/leo-bot/leobot/internal/callbacks"
	"github.com/leo-bot/leobot/internal/config"
	"github.com/leo-bot/leobot/internal/drawing"
	"github.com/leo-bot/leobot/internal/events"
	"github.com/leo-bot/leobot/internal/models"
	"github.com/leo-bot/leobot/internal/painter"
	"github.com/leo-bot/leobot/internal/translate"
	"github.com/leo-bot/leobot/internal/weather"
)

// loadConfig reads --config. A missing file yields the defaults; a broken
// one is fatal.
func loadConfig(cmd *cli.Command) (*config.Config, error) {
	path := cmd.String("config")
	cfg, err := config.Load(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			slog.Debug("config not found, using defaults", "path", path)
			return config.Default(), nil
		}
		return nil, err
	}
	return cfg, nil
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// setupLogging installs the default slog logger: text on stderr at the
// configured level (--debug forces debug), plus JSON lines to logging.file
// when set. The returned func closes the file.
func setupLogging(cmd *cli.Command, cfg *config.Config) (func(), error) {
	level := parseLevel(cfg.Logging.Level)
	if cmd.Bool("debug") {
		level = slog.LevelDebug
	}

	var h slog.Handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	closer := func() {}

	if cfg.Logging.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Logging.File), 0o755); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
		f, err := os.OpenFile(cfg.Logging.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		h = teeHandler{h, slog.NewJSONHandler(f, &slog.HandlerOptions{Level: level})}
		closer = func() { f.Close() }
	}

	slog.SetDefault(slog.New(h))
	return closer, nil
}

// setupStderrLogging is for commands whose stdout carries data.
func setupStderrLogging(cmd *cli.Command, level slog.Level) {
	if cmd.Bool("debug") {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// teeHandler sends each record to every handler that accepts its level.
type teeHandler []slog.Handler

func (t teeHandler) Enabled(ctx context.Context, l slog.Level) bool {
	for _, h := range t {
		if h.Enabled(ctx, l) {
			return true
		}
	}
	return false
}

func (t teeHandler) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range t {
		if h.Enabled(ctx, r.Level) {
			errs = append(errs, h.Handle(ctx, r.Clone()))
		}
	}
	return errors.Join(errs...)
}

func (t teeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(teeHandler, len(t))
	for i, h := range t {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (t teeHandler) WithGroup(name string) slog.Handler {
	out := make(teeHandler, len(t))
	for i, h := range t {
		out[i] = h.WithGroup(name)
	}
	return out
}

// buildWeather opens the city index and returns the weather plugin. The
// caller closes the index.
func buildWeather(ctx context.Context, cfg *config.Config) (*weather.Plugin, *weather.SQLiteCityIndex, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.Weather.AdcodeDB), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create adcode dir: %w", err)
	}
	index, err := weather.OpenCityIndex(cfg.Weather.AdcodeDB)
	if err != nil {
		return nil, nil, err
	}
	if n, err := index.Count(ctx); err == nil && n == 0 {
		slog.Warn("adcode index is empty, only numeric city codes resolve; run `leobot adcode import`", "path", index.Path())
	}
	client := weather.NewClient(cfg.Weather.BaseURL, cfg.Weather.APIKey, cfg.Weather.Timeout.Duration())
	if !client.HasKey() {
		slog.Warn("weather api_key is not set; weather questions will ask for it")
	}
	return weather.NewPlugin(client, index), index, nil
}

// buildDrawing wires the drawing controller. It returns nil, nil when the
// rule document is missing or invalid, which leaves drawing disabled.
func buildDrawing(ctx context.Context, cfg *config.Config, bus *events.Bus) (*drawing.Plugin, error) {
	rules, err := drawing.LoadRuleSet(cfg.Draw.RulesFile)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			slog.Warn("draw rules not found, drawing disabled", "path", cfg.Draw.RulesFile)
		} else {
			slog.Error("draw rules invalid, drawing disabled", "path", cfg.Draw.RulesFile, "error", err)
		}
		return nil, nil
	}

	p, err := painter.New(painter.WithStart(cfg.Draw.Painter, rules.Start))
	if err != nil {
		return nil, fmt.Errorf("init painter: %w", err)
	}

	registry := models.NewRegistry(cfg.Models)
	name := cfg.Draw.Translator
	if name == "" {
		name = registry.DefaultName()
	}
	pc, ok := registry.Config(name)
	if !ok {
		return nil, fmt.Errorf("translator model %q is not configured (have %v)", name, registry.Names())
	}
	chatModel, err := registry.Get(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("init translator model %q: %w", name, err)
	}
	slog.Info("translator ready", "provider", name, "driver", pc.Driver, "model", pc.Model)
	handler := callbacks.NewEventBusHandler(bus, events.SourcePlugin)
	translator := translate.NewLLMTranslator(chatModel, translate.WithCallbacks(name, handler))

	store, err := drawing.NewStateStore(cfg.Draw.StateStore, cfg.Draw.DataDir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.Draw.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create draw data dir: %w", err)
	}

	ctrl, err := drawing.NewController(drawing.ControllerConfig{
		Rules:      rules,
		Store:      store,
		Painter:    p,
		Translator: translator,
		Images:     drawing.NewImageStore(cfg.Draw.ImagesDir),
		Bus:        bus,
	})
	if err != nil {
		return nil, err
	}
	return drawing.NewPlugin(ctrl, cfg.Host.ImageCreatePrefix), nil
}
