package commands

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"

	"github.com/urfave/cli/v3"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/leo-bot/leobot/internal/config"
	"github.com/leo-bot/leobot/internal/drawing"
	leomcp "github.com/leo-bot/leobot/internal/mcp"
)

const version = "0.1.0"

// NewMCPServeCommand returns the mcp-serve subcommand.
func NewMCPServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "mcp-serve",
		Usage: "Expose the weather and draw-model tools as an MCP server (stdio)",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name:      "filter",
				UsageText: "Comma-separated tool names to expose (empty = all)",
			},
		},
		Action: runMCPServe,
	}
}

// storedModels answers model listings from the rule document and the
// persisted model without a painter or translator.
type storedModels struct {
	rules *drawing.RuleSet
	store drawing.StateStore
}

func (m storedModels) CurrentModel() string {
	name, err := m.store.ReadModel()
	if err != nil {
		slog.Warn("read current model failed", "error", err)
	}
	return name
}

func (m storedModels) ModelsText() string { return m.rules.ModelsText() }

func runMCPServe(ctx context.Context, cmd *cli.Command) error {
	// stdout carries the MCP stdio transport
	setupStderrLogging(cmd, slog.LevelWarn)

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	var tools []leomcp.Tool

	if config.IsEnabled(cfg.Weather.Enabled) {
		wp, index, err := buildWeather(ctx, cfg)
		if err != nil {
			return err
		}
		defer index.Close()
		tools = append(tools, leomcp.WeatherTools(wp)...)
	}

	if config.IsEnabled(cfg.Draw.Enabled) {
		rules, err := drawing.LoadRuleSet(cfg.Draw.RulesFile)
		switch {
		case err == nil:
			tools = append(tools, leomcp.DrawTools(storedModels{
				rules: rules,
				store: drawing.NewFileStateStore(cfg.Draw.DataDir),
			})...)
		case errors.Is(err, fs.ErrNotExist):
			slog.Debug("draw rules not found, draw tools disabled", "path", cfg.Draw.RulesFile)
		default:
			slog.Warn("draw rules invalid, draw tools disabled", "path", cfg.Draw.RulesFile, "error", err)
		}
	}

	filter := cmd.StringArg("filter")
	slog.Debug("starting MCP server", "filter", filter, "tools", len(tools))

	server := leomcp.NewMCPServer(version, tools, filter)
	return server.Run(ctx, &mcpsdk.StdioTransport{})
}
