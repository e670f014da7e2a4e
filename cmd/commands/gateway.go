package commands

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"path/filepath"
	"strconv"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/leo-bot/leobot/internal/config"
	"github.com/leo-bot/leobot/internal/events"
	"github.com/leo-bot/leobot/internal/gateway"
	"github.com/leo-bot/leobot/internal/heartbeat"
	"github.com/leo-bot/leobot/internal/plugins"
	"github.com/leo-bot/leobot/internal/scheduler"
	"github.com/leo-bot/leobot/internal/storage"
)

// NewGatewayCommand returns the gateway subcommand.
func NewGatewayCommand() *cli.Command {
	return &cli.Command{
		Name:  "gateway",
		Usage: "Start the leobot gateway with every enabled plugin",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Host to listen on",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "Port to listen on",
			},
		},
		Action: runGateway,
	}
}

func heartbeatPath() string {
	return filepath.Join(config.LeobotPath(), "heartbeat.json")
}

func runGateway(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	closeLog, err := setupLogging(cmd, cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	if cmd.IsSet("host") {
		cfg.Gateway.Host = cmd.String("host")
	}
	if cmd.IsSet("port") {
		cfg.Gateway.Port = int(cmd.Int("port"))
	}

	bus := events.NewBus(cfg.Events.BufferSize)
	defer bus.Close()

	eventLog := storage.NewEventLogger(filepath.Join(config.LeobotPath(), "logs"), bus)
	defer eventLog.Close()

	registry := plugins.NewRegistry(bus)
	server := gateway.NewServer(bus, registry, cfg.Gateway.Host, cfg.Gateway.Port)
	server.SetImagePrefixes(cfg.Host.ImageCreatePrefix)

	var sched *scheduler.Scheduler
	if config.IsEnabled(cfg.Weather.Enabled) {
		wp, index, err := buildWeather(ctx, cfg)
		if err != nil {
			return fmt.Errorf("init weather: %w", err)
		}
		defer index.Close()
		if err := registry.Register(wp); err != nil {
			return err
		}

		if len(cfg.Weather.Schedules) > 0 {
			jobs := make([]scheduler.Job, len(cfg.Weather.Schedules))
			for i, s := range cfg.Weather.Schedules {
				jobs[i] = scheduler.Job{Cron: s.Cron, City: s.City, Forecast: s.Forecast}
			}
			sched, err = scheduler.New(scheduler.Config{Bus: bus, Reporter: wp, Jobs: jobs})
			if err != nil {
				return fmt.Errorf("init scheduler: %w", err)
			}
		}
	}

	drawState := func() string { return "" }
	if config.IsEnabled(cfg.Draw.Enabled) {
		dp, err := buildDrawing(ctx, cfg, bus)
		if err != nil {
			return fmt.Errorf("init drawing: %w", err)
		}
		if dp != nil {
			if err := registry.Register(dp); err != nil {
				return err
			}
			ctrl := dp.Controller()
			server.SetDrawing(ctrl)
			drawState = func() string { return ctrl.State().String() }
		}
	}

	names := make([]string, 0)
	for _, p := range registry.Plugins() {
		names = append(names, p.PluginName())
	}
	slog.Info("plugins loaded", "plugins", names)

	addr := net.JoinHostPort(cfg.Gateway.Host, strconv.Itoa(cfg.Gateway.Port))
	hb := heartbeat.NewWriter(heartbeatPath(),
		heartbeat.WithAddr(addr),
		heartbeat.WithPlugins(names),
		heartbeat.WithDrawState(drawState),
	)
	hb.Start()
	defer hb.Stop()

	if sched != nil {
		sched.Start()
		for _, e := range sched.Entries(time.Now()) {
			slog.Info("weather schedule", "cron", e.Job.Cron, "city", e.Job.City, "forecast", e.Job.Forecast, "next", e.Next)
		}
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if sched != nil {
			sched.Stop(shutdownCtx)
		}
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		if sched != nil {
			sched.Stop(context.Background())
		}
		return err
	}
}
