package gateway

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/leo-bot/leobot/internal/events"
	"github.com/leo-bot/leobot/internal/gateway/ws"
)

func dialTestServer(t *testing.T, srv *Server) (*websocket.Conn, context.Context) {
	t.Helper()
	ts := httptest.NewServer(srv.httpServer.Handler)
	t.Cleanup(ts.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/ws?session_id=ws-test"
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "") })
	return conn, ctx
}

// readUntil reads frames until match returns true.
func readUntil(t *testing.T, ctx context.Context, conn *websocket.Conn, match func(ws.Frame) bool) ws.Frame {
	t.Helper()
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		f, err := ws.UnmarshalFrame(data)
		if err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if match(f) {
			return f
		}
	}
}

func TestWS_SendMessage(t *testing.T) {
	srv := newTestServer(t)
	conn, ctx := dialTestServer(t, srv)

	req, err := ws.NewRequestFrame("req-1", ws.MethodSendMessage, ws.SendMessageParams{Content: "hi"})
	if err != nil {
		t.Fatalf("NewRequestFrame: %v", err)
	}
	data, _ := ws.MarshalFrame(req)
	if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
		t.Fatalf("write: %v", err)
	}

	// The reply also goes out as an outgoing.reply event; the two frames may
	// arrive in either order.
	var res, ev *ws.Frame
	for res == nil || ev == nil {
		f := readUntil(t, ctx, conn, func(f ws.Frame) bool {
			return (f.Type == ws.FrameTypeResponse && f.ID == "req-1") ||
				(f.Type == ws.FrameTypeEvent && f.Event == string(events.EventOutgoingReply))
		})
		if f.Type == ws.FrameTypeResponse {
			res = &f
		} else {
			ev = &f
		}
	}

	if res.OK == nil || !*res.OK {
		t.Fatalf("expected ok response, got %+v", res)
	}
	var result ws.MessageResult
	if err := json.Unmarshal(res.Payload, &result); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if !result.Handled || result.Reply == nil || result.Reply.Content != "echo: hi" {
		t.Fatalf("unexpected result %+v", result)
	}
	if ev.SessionID != "ws-test" {
		t.Fatalf("event session = %q", ev.SessionID)
	}
}

func TestWS_UnknownMethod(t *testing.T) {
	srv := newTestServer(t)
	conn, ctx := dialTestServer(t, srv)

	data, _ := ws.MarshalFrame(ws.Frame{Type: ws.FrameTypeRequest, ID: "x", Method: "nope"})
	if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
		t.Fatalf("write: %v", err)
	}
	res := readUntil(t, ctx, conn, func(f ws.Frame) bool { return f.ID == "x" })
	if res.OK == nil || *res.OK || !strings.Contains(res.Error, "unknown method") {
		t.Fatalf("unexpected response %+v", res)
	}
}

func TestWS_Help(t *testing.T) {
	srv := newTestServer(t)
	conn, ctx := dialTestServer(t, srv)

	req, _ := ws.NewRequestFrame("h", ws.MethodHelp, ws.HelpParams{Verbose: true})
	data, _ := ws.MarshalFrame(req)
	if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
		t.Fatalf("write: %v", err)
	}
	res := readUntil(t, ctx, conn, func(f ws.Frame) bool { return f.ID == "h" })
	var body map[string]string
	if err := json.Unmarshal(res.Payload, &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !strings.Contains(body["help"], "echo everything") {
		t.Fatalf("unexpected help %q", body["help"])
	}
}

func TestWS_BroadcastEvent(t *testing.T) {
	srv := newTestServer(t)
	conn, ctx := dialTestServer(t, srv)

	// Wait for registration before publishing.
	deadline := time.Now().Add(2 * time.Second)
	for srv.hub.Clients() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	srv.bus.Publish(events.NewTypedEvent(events.SourceScheduler, events.OutgoingBroadcastPayload{
		Topic:   "weather",
		Content: "晴",
	}))

	ev := readUntil(t, ctx, conn, func(f ws.Frame) bool {
		return f.Type == ws.FrameTypeEvent && f.Event == string(events.EventOutgoingBroadcast)
	})
	var e events.Event
	if err := json.Unmarshal(ev.Payload, &e); err != nil {
		t.Fatalf("unmarshal event: %v", err)
	}
	if e.Payload["content"] != "晴" {
		t.Fatalf("unexpected payload %v", e.Payload)
	}
}
