package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/leo-bot/leobot/internal/drawing"
	"github.com/leo-bot/leobot/internal/heartbeat"
)

// NewStatusCommand returns the status subcommand.
func NewStatusCommand() *cli.Command {
	return &cli.Command{
		Name:   "status",
		Usage:  "Show gateway liveness and the drawing slot",
		Action: runStatus,
	}
}

func runStatus(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	status, hb, err := heartbeat.Check(heartbeatPath(), 2*heartbeat.DefaultInterval+time.Minute)
	if err != nil {
		return fmt.Errorf("check heartbeat: %w", err)
	}

	addr := net.JoinHostPort(cfg.Gateway.Host, strconv.Itoa(cfg.Gateway.Port))
	switch status {
	case heartbeat.StatusAlive:
		fmt.Printf("Gateway: ALIVE (PID %d, uptime %s)\n", hb.PID, hb.Uptime)
		if hb.Addr != "" {
			addr = hb.Addr
		}
		if len(hb.Plugins) > 0 {
			fmt.Printf("Plugins: %v\n", hb.Plugins)
		}
	case heartbeat.StatusStale:
		fmt.Printf("Gateway: STALE (PID %d, last heartbeat %s ago)\n",
			hb.PID, time.Since(hb.Timestamp).Truncate(time.Second))
	case heartbeat.StatusDead:
		fmt.Println("Gateway: NOT RUNNING")
	}

	if status != heartbeat.StatusDead {
		fmt.Printf("Health:  %s\n", probeHealth(ctx, addr))
	}

	store := drawing.NewFileStateStore(cfg.Draw.DataDir)
	st, err := store.ReadState()
	if err != nil {
		fmt.Printf("Draw:    unreadable (%v)\n", err)
	} else {
		fmt.Printf("Draw:    %s\n", st)
	}
	if m, err := store.ReadModel(); err == nil && m != "" {
		fmt.Printf("Model:   %s\n", m)
	}
	return nil
}

func probeHealth(ctx context.Context, addr string) string {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://"+addr+"/api/health", nil)
	if err != nil {
		return err.Error()
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "unreachable (" + err.Error() + ")"
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return resp.Status
	}
	var body struct {
		Status        string `json:"status"`
		WSClients     int    `json:"ws_clients"`
		DroppedEvents uint64 `json:"dropped_events"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "ok (unreadable body)"
	}
	return fmt.Sprintf("%s (%d ws clients, %d dropped events)", body.Status, body.WSClients, body.DroppedEvents)
}
