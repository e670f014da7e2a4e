package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/leo-bot/leobot/internal/events"
)

// Handler answers the requests clients send over the socket.
type Handler interface {
	HandleMessage(ctx context.Context, sessionID, content string) (MessageResult, error)
	Help(verbose bool) string
}

// Client represents a connected WebSocket client.
type Client struct {
	conn      *websocket.Conn
	send      chan []byte
	hub       *Hub
	sessionID string
}

// Hub manages WebSocket clients and bridges them to the event bus.
type Hub struct {
	mu          sync.RWMutex
	clients     map[*Client]struct{}
	bus         *events.Bus
	handler     Handler
	unsubscribe func()
}

// NewHub creates a new WebSocket hub connected to an event bus. Every bus
// event is forwarded to every client as an event frame.
func NewHub(bus *events.Bus, handler Handler) *Hub {
	h := &Hub{
		clients: make(map[*Client]struct{}),
		bus:     bus,
		handler: handler,
	}

	h.unsubscribe = bus.Subscribe(func(e events.Event) {
		frame, err := NewEventFrame(string(e.Type), e.SessionID, e)
		if err != nil {
			slog.Error("marshal event frame", "error", err)
			return
		}
		data, err := MarshalFrame(frame)
		if err != nil {
			slog.Error("marshal frame", "error", err)
			return
		}
		h.broadcast(data)
	})

	return h
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// broadcast sends data to all connected clients.
func (h *Hub) broadcast(data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			// Client too slow, skip
		}
	}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
	slog.Info("ws client connected", "session_id", c.sessionID, "clients", len(h.clients))
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
		slog.Info("ws client disconnected", "session_id", c.sessionID, "clients", len(h.clients))
	}
}

// ServeWS handles a WebSocket upgrade and manages the client lifecycle.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // Allow any origin for dev
	})
	if err != nil {
		slog.Error("ws accept", "error", err)
		return
	}
	conn.SetReadLimit(1 << 20)

	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		sessionID = "ws_" + uuid.NewString()
	}

	client := &Client{
		conn:      conn,
		send:      make(chan []byte, 256),
		hub:       h,
		sessionID: sessionID,
	}

	h.register(client)

	ctx := r.Context()
	go client.writePump(ctx)
	client.readPump(ctx)
}

// readPump reads frames from the WS connection and dispatches them.
func (c *Client) readPump(ctx context.Context) {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != -1 {
				slog.Debug("ws read closed", "status", websocket.CloseStatus(err))
			} else {
				slog.Debug("ws read error", "error", err)
			}
			return
		}

		frame, err := UnmarshalFrame(data)
		if err != nil {
			slog.Error("ws unmarshal frame", "error", err)
			continue
		}

		c.handleFrame(ctx, frame)
	}
}

// handleFrame processes an incoming WS frame.
func (c *Client) handleFrame(ctx context.Context, frame Frame) {
	switch frame.Type {
	case FrameTypeRequest:
		c.handleRequest(ctx, frame)
	default:
		slog.Debug("ws unknown frame type", "type", frame.Type)
	}
}

// handleRequest processes a request frame (method dispatch).
func (c *Client) handleRequest(ctx context.Context, frame Frame) {
	sessionID := frame.SessionID
	if sessionID == "" {
		sessionID = c.sessionID
	}

	switch Method(frame.Method) {
	case MethodSendMessage:
		var params SendMessageParams
		if err := json.Unmarshal(frame.Params, &params); err != nil || params.Content == "" {
			c.sendError(ctx, frame.ID, "invalid params")
			return
		}

		res, err := c.hub.handler.HandleMessage(ctx, sessionID, params.Content)
		if err != nil {
			c.sendError(ctx, frame.ID, err.Error())
			return
		}
		c.sendOK(ctx, frame.ID, res)

	case MethodHelp:
		var params HelpParams
		if len(frame.Params) > 0 {
			if err := json.Unmarshal(frame.Params, &params); err != nil {
				c.sendError(ctx, frame.ID, "invalid params")
				return
			}
		}
		c.sendOK(ctx, frame.ID, map[string]string{"help": c.hub.handler.Help(params.Verbose)})

	default:
		c.sendError(ctx, frame.ID, "unknown method: "+frame.Method)
	}
}

// writePump writes queued messages to the WS connection.
func (c *Client) writePump(ctx context.Context) {
	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.Write(ctx, websocket.MessageText, msg); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func (c *Client) sendOK(ctx context.Context, id string, payload any) {
	f, err := NewResponseFrame(id, true, payload, "")
	c.enqueue(ctx, f, err)
}

func (c *Client) sendError(ctx context.Context, id string, errMsg string) {
	f, err := NewResponseFrame(id, false, nil, errMsg)
	c.enqueue(ctx, f, err)
}

// enqueue queues a response. Responses wait for room in the buffer, unlike
// broadcast events which are dropped for slow clients.
func (c *Client) enqueue(ctx context.Context, f Frame, err error) {
	if err != nil {
		slog.Error("build response frame", "error", err)
		return
	}
	data, err := MarshalFrame(f)
	if err != nil {
		slog.Error("marshal frame", "error", err)
		return
	}
	select {
	case c.send <- data:
	case <-ctx.Done():
	}
}

// Close shuts down the hub and all client connections.
func (h *Hub) Close() {
	if h.unsubscribe != nil {
		h.unsubscribe()
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		c.conn.Close(websocket.StatusGoingAway, "server shutdown")
		delete(h.clients, c)
	}
}
