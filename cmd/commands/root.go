package commands

import (
	"github.com/urfave/cli/v3"

	"github.com/leo-bot/leobot/internal/config"
)

// NewRootCommand returns the top-level CLI command.
func NewRootCommand() *cli.Command {
	return &cli.Command{
		Name:  "leobot",
		Usage: "Chat bot plugins: Stable Diffusion drawing and AMap weather",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file",
				Value:   config.ConfigPath(),
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
			},
		},
		Commands: []*cli.Command{
			NewGatewayCommand(),
			NewAskCommand(),
			NewStatusCommand(),
			NewDrawCommand(),
			NewWeatherCommand(),
			NewAdcodeCommand(),
			NewScheduleCommand(),
			NewMCPServeCommand(),
		},
	}
}
