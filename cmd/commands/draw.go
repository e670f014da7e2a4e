package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/leo-bot/leobot/internal/drawing"
)

// NewDrawCommand returns the draw subcommand.
func NewDrawCommand() *cli.Command {
	return &cli.Command{
		Name:  "draw",
		Usage: "Inspect or reset the drawing slot",
		Commands: []*cli.Command{
			{
				Name:   "state",
				Usage:  "Print the persisted drawing state and model",
				Action: runDrawState,
			},
			{
				Name:   "reset",
				Usage:  "Force the drawing state back to free",
				Action: runDrawReset,
			},
			{
				Name:   "models",
				Usage:  "List the model keywords from the rule document",
				Action: runDrawModels,
			},
		},
		DefaultCommand: "state",
	}
}

func runDrawState(_ context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	store := drawing.NewFileStateStore(cfg.Draw.DataDir)
	st, err := store.ReadState()
	if err != nil {
		return err
	}
	m, err := store.ReadModel()
	if err != nil {
		return err
	}
	fmt.Printf("state: %s (%s)\nmodel: %s\n", st, string(st), m)
	return nil
}

func runDrawReset(_ context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	store := drawing.NewFileStateStore(cfg.Draw.DataDir)
	from, err := store.ReadState()
	if err != nil {
		return err
	}
	if err := store.WriteState(drawing.StateFree); err != nil {
		return err
	}
	fmt.Printf("state: %s -> %s\n", from, drawing.StateFree)
	return nil
}

func runDrawModels(_ context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	rules, err := drawing.LoadRuleSet(cfg.Draw.RulesFile)
	if err != nil {
		return err
	}
	for _, group := range rules.KeywordGroups() {
		fmt.Println(strings.Join(group, ", "))
	}
	return nil
}
