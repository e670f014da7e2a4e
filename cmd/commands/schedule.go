package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/leo-bot/leobot/internal/config"
	"github.com/leo-bot/leobot/internal/events"
	"github.com/leo-bot/leobot/internal/scheduler"
	"github.com/leo-bot/leobot/internal/storage"
)

// NewScheduleCommand returns the schedule subcommand.
func NewScheduleCommand() *cli.Command {
	return &cli.Command{
		Name:  "schedule",
		Usage: "View weather broadcast schedules and trigger history",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List configured schedules with their next run",
				Action: runScheduleList,
			},
			{
				Name:  "history",
				Usage: "Show recent schedule triggers from the event log",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "days",
						Usage: "How many daily logs to scan",
						Value: 7,
					},
				},
				Action: runScheduleHistory,
			},
		},
		DefaultCommand: "list",
	}
}

func runScheduleList(_ context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if len(cfg.Weather.Schedules) == 0 {
		fmt.Println("No weather schedules configured.")
		return nil
	}

	now := time.Now()
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CRON\tCITY\tKIND\tNEXT")
	for _, s := range cfg.Weather.Schedules {
		kind := "live"
		if s.Forecast {
			kind = "forecast"
		}
		next := "invalid"
		if expr, err := scheduler.ParseCron(s.Cron); err == nil {
			next = expr.Next(now).Format("2006-01-02 15:04")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", s.Cron, s.City, kind, next)
	}
	return w.Flush()
}

func runScheduleHistory(_ context.Context, cmd *cli.Command) error {
	dir := filepath.Join(config.LeobotPath(), "logs")

	var triggers []events.Event
	now := time.Now()
	for d := int(cmd.Int("days")) - 1; d >= 0; d-- {
		evs, err := storage.ReadEvents(storage.LogPath(dir, now.AddDate(0, 0, -d)), events.EventScheduleTrigger)
		if err != nil {
			return err
		}
		triggers = append(triggers, evs...)
	}
	if len(triggers) > 20 {
		triggers = triggers[len(triggers)-20:]
	}
	if len(triggers) == 0 {
		fmt.Println("No trigger history found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tCITY\tCRON\tERROR")
	for _, e := range triggers {
		city, _ := e.Payload["city"].(string)
		cron, _ := e.Payload["cron"].(string)
		errStr, _ := e.Payload["error"].(string)
		if errStr == "" {
			errStr = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			e.Timestamp.Format("2006-01-02 15:04:05"), city, cron, errStr)
	}
	return w.Flush()
}
