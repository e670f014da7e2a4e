package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/leo-bot/leobot/internal/weather"
)

// ToolFunc runs a tool with its raw JSON arguments.
type ToolFunc func(ctx context.Context, args json.RawMessage) (string, error)

// Tool is a spec plus its implementation.
type Tool struct {
	Spec ToolSpec
	Run  ToolFunc
}

// WeatherReporter is the weather plugin surface the tools need.
type WeatherReporter interface {
	Report(ctx context.Context, city string, forecast bool) (string, error)
}

// ModelLister is the drawing surface the tools need. Listing models does not
// touch the drawing slot.
type ModelLister interface {
	CurrentModel() string
	ModelsText() string
}

type cityArgs struct {
	City string `json:"city"`
}

var cityParam = map[string]ParamSpec{
	"city": {
		Type:        "string",
		Description: "城市名 (如 潮阳区) 或高德 adcode (如 440513)",
		Required:    true,
	},
}

// WeatherTools returns weather_live and weather_forecast.
func WeatherTools(r WeatherReporter) []Tool {
	run := func(forecast bool) ToolFunc {
		return func(ctx context.Context, raw json.RawMessage) (string, error) {
			var args cityArgs
			if err := json.Unmarshal(raw, &args); err != nil {
				return "", fmt.Errorf("invalid arguments: %w", err)
			}
			city := strings.TrimSpace(args.City)
			if city == "" {
				return "", errors.New("city is required")
			}
			text, err := r.Report(ctx, city, forecast)
			if errors.Is(err, weather.ErrUnknownCity) {
				return "", fmt.Errorf("%s不存在", city)
			}
			return text, err
		}
	}

	return []Tool{
		{
			Spec: ToolSpec{
				Name:        "weather_live",
				Description: "Current weather for a Chinese city from AMap.",
				Parameters:  cityParam,
			},
			Run: run(false),
		},
		{
			Spec: ToolSpec{
				Name:        "weather_forecast",
				Description: "Multi-day weather forecast for a Chinese city from AMap.",
				Parameters:  cityParam,
			},
			Run: run(true),
		},
	}
}

// DrawTools returns draw_models.
func DrawTools(l ModelLister) []Tool {
	return []Tool{{
		Spec: ToolSpec{
			Name:        "draw_models",
			Description: "List the drawing model keywords and the current model.",
			Parameters:  map[string]ParamSpec{},
		},
		Run: func(context.Context, json.RawMessage) (string, error) {
			return fmt.Sprintf("当前模型是: [%s]\n\n%s", l.CurrentModel(), l.ModelsText()), nil
		},
	}}
}
