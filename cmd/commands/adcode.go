package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/leo-bot/leobot/internal/weather"
)

// NewAdcodeCommand returns the adcode subcommand.
func NewAdcodeCommand() *cli.Command {
	return &cli.Command{
		Name:  "adcode",
		Usage: "Manage the city name to adcode index",
		Commands: []*cli.Command{
			{
				Name:      "import",
				Usage:     "Rebuild the index from an AMap adcode CSV (name,adcode[,citycode])",
				ArgsUsage: "<csv>",
				Action:    runAdcodeImport,
			},
			{
				Name:      "lookup",
				Usage:     "Resolve a place name to its adcode",
				ArgsUsage: "<name>",
				Action:    runAdcodeLookup,
			},
		},
	}
}

func openIndex(cmd *cli.Command) (*weather.SQLiteCityIndex, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Weather.AdcodeDB), 0o755); err != nil {
		return nil, fmt.Errorf("create adcode dir: %w", err)
	}
	return weather.OpenCityIndex(cfg.Weather.AdcodeDB)
}

func runAdcodeImport(ctx context.Context, cmd *cli.Command) error {
	path := cmd.Args().First()
	if path == "" {
		return fmt.Errorf("usage: leobot adcode import <csv>")
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	index, err := openIndex(cmd)
	if err != nil {
		return err
	}
	defer index.Close()

	n, err := index.ImportCSV(ctx, f)
	if err != nil {
		return err
	}
	fmt.Printf("imported %d cities into %s\n", n, index.Path())
	return nil
}

func runAdcodeLookup(ctx context.Context, cmd *cli.Command) error {
	name := cmd.Args().First()
	if name == "" {
		return fmt.Errorf("usage: leobot adcode lookup <name>")
	}
	index, err := openIndex(cmd)
	if err != nil {
		return err
	}
	defer index.Close()

	code, ok, err := index.Lookup(ctx, name)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%s不存在", name)
	}
	fmt.Println(code)
	return nil
}
