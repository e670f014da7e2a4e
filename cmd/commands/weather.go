package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/leo-bot/leobot/internal/weather"
)

// NewWeatherCommand returns the weather subcommand.
func NewWeatherCommand() *cli.Command {
	return &cli.Command{
		Name:      "weather",
		Usage:     "Answer a weather question locally, without the gateway",
		ArgsUsage: "<城市天气 | 现在城市天气>",
		Action:    runWeather,
	}
}

func runWeather(ctx context.Context, cmd *cli.Command) error {
	setupStderrLogging(cmd, slog.LevelWarn)

	text := strings.TrimSpace(strings.Join(cmd.Args().Slice(), " "))
	city, forecast, ok := weather.Match(text)
	if !ok {
		return fmt.Errorf("not a weather question: %q (try 深圳天气 or 现在深圳天气)", text)
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	wp, index, err := buildWeather(ctx, cfg)
	if err != nil {
		return err
	}
	defer index.Close()

	fmt.Fprintln(os.Stdout, strings.TrimPrefix(wp.Answer(ctx, city, forecast), "\n"))
	return nil
}
