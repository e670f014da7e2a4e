package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"

	wsprotocol "github.com/leo-bot/leobot/internal/gateway/ws"
)

// stubGateway answers every request after sending one event frame first.
func stubGateway(t *testing.T, answer func(wsprotocol.Frame) wsprotocol.Frame) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "")
		ctx := r.Context()
		for {
			_, data, err := conn.Read(ctx)
			if err != nil {
				return
			}
			req, err := wsprotocol.UnmarshalFrame(data)
			if err != nil {
				return
			}
			ev, _ := wsprotocol.NewEventFrame("incoming.message", "s", map[string]string{"content": "x"})
			evData, _ := wsprotocol.MarshalFrame(ev)
			conn.Write(ctx, websocket.MessageText, evData)

			resData, _ := wsprotocol.MarshalFrame(answer(req))
			conn.Write(ctx, websocket.MessageText, resData)
		}
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *Client {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	c, err := Dial(ctx, url)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestAsk(t *testing.T) {
	url := stubGateway(t, func(req wsprotocol.Frame) wsprotocol.Frame {
		var p wsprotocol.SendMessageParams
		json.Unmarshal(req.Params, &p)
		f, _ := wsprotocol.NewResponseFrame(req.ID, true, wsprotocol.MessageResult{
			Handled: true,
			Plugin:  "echo",
			Reply:   &wsprotocol.ReplyBody{Type: "TEXT", Content: "echo: " + p.Content},
		}, "")
		return f
	})
	c := dial(t, url)

	var seen []string
	res, err := c.Ask("hello", func(f wsprotocol.Frame) { seen = append(seen, f.Event) })
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if !res.Handled || res.Reply == nil || res.Reply.Content != "echo: hello" {
		t.Fatalf("unexpected result %+v", res)
	}
	if len(seen) != 1 || seen[0] != "incoming.message" {
		t.Fatalf("expected one event before the reply, got %v", seen)
	}
}

func TestAsk_Error(t *testing.T) {
	url := stubGateway(t, func(req wsprotocol.Frame) wsprotocol.Frame {
		f, _ := wsprotocol.NewResponseFrame(req.ID, false, nil, "invalid params")
		return f
	})
	c := dial(t, url)

	if _, err := c.Ask("hello", nil); err == nil || err.Error() != "invalid params" {
		t.Fatalf("expected invalid params error, got %v", err)
	}
}

func TestHelp(t *testing.T) {
	url := stubGateway(t, func(req wsprotocol.Frame) wsprotocol.Frame {
		if req.Method != string(wsprotocol.MethodHelp) {
			f, _ := wsprotocol.NewResponseFrame(req.ID, false, nil, "unexpected method")
			return f
		}
		f, _ := wsprotocol.NewResponseFrame(req.ID, true, map[string]string{"help": "[Leoapi] weather"}, "")
		return f
	})
	c := dial(t, url)

	help, err := c.Help(false)
	if err != nil {
		t.Fatalf("Help: %v", err)
	}
	if help != "[Leoapi] weather" {
		t.Fatalf("help = %q", help)
	}
}
