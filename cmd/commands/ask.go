package commands

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	wsclient "github.com/leo-bot/leobot/clients/ws"
	"github.com/leo-bot/leobot/internal/gateway/ws"
	"github.com/leo-bot/leobot/internal/plugins"
)

// NewAskCommand returns the ask subcommand.
func NewAskCommand() *cli.Command {
	return &cli.Command{
		Name:      "ask",
		Usage:     "Send one chat message through the gateway and print the reply",
		ArgsUsage: "<message>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "gateway",
				Usage: "Gateway WebSocket URL",
				Value: "ws://127.0.0.1:18480/api/ws",
			},
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Usage:   "Where to write an image reply (default: leobot-<time>.png)",
			},
			&cli.BoolFlag{
				Name:  "events",
				Usage: "Print gateway events to stderr while waiting",
			},
			&cli.IntFlag{
				Name:  "timeout",
				Usage: "Response timeout in seconds",
				Value: 600,
			},
		},
		Action: runAsk,
	}
}

func runAsk(ctx context.Context, cmd *cli.Command) error {
	message := strings.Join(cmd.Args().Slice(), " ")
	if strings.TrimSpace(message) == "" {
		return fmt.Errorf("usage: leobot ask <message>")
	}

	ctx, cancel := context.WithTimeout(ctx, time.Duration(cmd.Int("timeout"))*time.Second)
	defer cancel()

	client, err := wsclient.Dial(ctx, cmd.String("gateway"))
	if err != nil {
		return fmt.Errorf("connect to gateway: %w", err)
	}
	defer client.Close()

	var onEvent func(ws.Frame)
	if cmd.Bool("events") {
		onEvent = func(f ws.Frame) {
			fmt.Fprintf(os.Stderr, "[%s] %s\n", f.Event, f.Payload)
		}
	}

	res, err := client.Ask(message, onEvent)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("timeout waiting for reply")
		}
		return err
	}
	if !res.Handled || res.Reply == nil {
		fmt.Fprintln(os.Stderr, "no plugin handled the message")
		return nil
	}

	switch res.Reply.Type {
	case string(plugins.ReplyImage):
		return writeImage(cmd.String("out"), res.Reply.Image)
	case string(plugins.ReplyError):
		return fmt.Errorf("%s", res.Reply.Content)
	default:
		fmt.Fprintln(os.Stdout, res.Reply.Content)
		return nil
	}
}

func writeImage(path string, png []byte) error {
	if len(png) == 0 {
		return fmt.Errorf("image reply carried no data")
	}
	if path == "" {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			_, err := os.Stdout.Write(png)
			return err
		}
		path = "leobot-" + time.Now().Format("20060102-150405") + ".png"
	}
	if err := os.WriteFile(path, png, 0o644); err != nil {
		return fmt.Errorf("write image: %w", err)
	}
	fmt.Fprintf(os.Stderr, "image written to %s (%d bytes)\n", path, len(png))
	return nil
}
