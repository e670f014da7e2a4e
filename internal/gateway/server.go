// Package gateway exposes the plugin registry over HTTP and WebSocket.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/leo-bot/leobot/internal/drawing"
	"github.com/leo-bot/leobot/internal/events"
	"github.com/leo-bot/leobot/internal/gateway/ws"
	"github.com/leo-bot/leobot/internal/plugins"
)

// DrawStatus reports the drawing slot.
type DrawStatus interface {
	State() drawing.State
	CurrentModel() string
	// Reset forces the slot back to free.
	Reset() error
}

// Server is the leobot gateway HTTP server.
type Server struct {
	httpServer    *http.Server
	hub           *ws.Hub
	bus           *events.Bus
	registry      *plugins.Registry
	draw          DrawStatus
	imagePrefixes []string
	host          string
	port          int
}

// NewServer creates a new gateway server.
func NewServer(bus *events.Bus, registry *plugins.Registry, host string, port int) *Server {
	s := &Server{
		bus:      bus,
		registry: registry,
		host:     host,
		port:     port,
	}
	s.hub = ws.NewHub(bus, s)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)

	r.Get("/api/health", s.handleHealth)
	r.Get("/api/ws", s.hub.ServeWS)
	r.Get("/api/events", s.handleEvents)
	r.Get("/api/plugins", s.handlePlugins)
	r.Post("/api/messages", s.handleMessage)
	r.Get("/api/draw/state", s.handleDrawState)
	r.Post("/api/draw/reset", s.handleDrawReset)

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", host, port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s
}

// SetDrawing enables the /api/draw endpoints.
func (s *Server) SetDrawing(d DrawStatus) {
	s.draw = d
}

// SetImagePrefixes sets the prefixes that turn a message into an
// IMAGE_CREATE context.
func (s *Server) SetImagePrefixes(prefixes []string) {
	s.imagePrefixes = prefixes
}

// Start begins listening. It blocks until the server is stopped.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	slog.Info("leobot gateway listening", "addr", ln.Addr().String())
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.Close()
	return s.httpServer.Shutdown(ctx)
}

// HandleMessage runs content through the plugins on behalf of sessionID.
func (s *Server) HandleMessage(ctx context.Context, sessionID, content string) (ws.MessageResult, error) {
	msg := plugins.ParseContext(content, s.imagePrefixes)
	msg.SessionID = sessionID

	res := s.registry.Dispatch(events.ContextWithSessionID(ctx, sessionID), msg)
	out := ws.MessageResult{
		Handled: res.Handled(),
		Plugin:  res.Plugin,
	}
	if res.Reply != nil {
		out.Reply = &ws.ReplyBody{
			Type:    string(res.Reply.Type),
			Content: res.Reply.Content,
			Image:   res.Reply.Image,
		}
	}
	return out, nil
}

// Help returns the help of every visible plugin.
func (s *Server) Help(verbose bool) string {
	return s.registry.Help(verbose)
}

type healthResponse struct {
	Status        string `json:"status"`
	WSClients     int    `json:"ws_clients"`
	DroppedEvents uint64 `json:"dropped_events"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:        "ok",
		WSClients:     s.hub.Clients(),
		DroppedEvents: s.bus.Dropped(),
	})
}

type messageRequest struct {
	Content   string `json:"content"`
	SessionID string `json:"session_id,omitempty"`
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if req.Content == "" {
		http.Error(w, "content is required", http.StatusBadRequest)
		return
	}
	if req.SessionID == "" {
		req.SessionID = "http_" + middleware.GetReqID(r.Context())
	}

	res, err := s.HandleMessage(r.Context(), req.SessionID, req.Content)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	var types []events.EventType
	for _, t := range r.URL.Query()["type"] {
		types = append(types, events.EventType(t))
	}
	history := s.bus.History(limit, types...)

	type eventJSON struct {
		ID        string             `json:"id"`
		SessionID string             `json:"session_id,omitempty"`
		Type      string             `json:"type"`
		Timestamp string             `json:"timestamp"`
		Source    events.EventSource `json:"source"`
		Payload   map[string]any     `json:"payload"`
	}

	result := make([]eventJSON, len(history))
	for i, e := range history {
		result[i] = eventJSON{
			ID:        e.ID,
			SessionID: e.SessionID,
			Type:      string(e.Type),
			Timestamp: e.Timestamp.Format(time.RFC3339Nano),
			Source:    e.Source,
			Payload:   e.Payload,
		}
	}

	writeJSON(w, http.StatusOK, result)
}

type pluginJSON struct {
	Name        string `json:"name"`
	Priority    int    `json:"priority"`
	Description string `json:"description,omitempty"`
	Version     string `json:"version,omitempty"`
	Help        string `json:"help"`
}

func (s *Server) handlePlugins(w http.ResponseWriter, r *http.Request) {
	list := s.registry.Plugins()
	result := make([]pluginJSON, 0, len(list))
	for _, p := range list {
		info := p.Info()
		if info.Hidden {
			continue
		}
		result = append(result, pluginJSON{
			Name:        info.Name,
			Priority:    info.Priority,
			Description: info.Description,
			Version:     info.Version,
			Help:        p.Help(false),
		})
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleDrawState(w http.ResponseWriter, r *http.Request) {
	if s.draw == nil {
		http.Error(w, "drawing not enabled", http.StatusServiceUnavailable)
		return
	}
	st := s.draw.State()
	writeJSON(w, http.StatusOK, map[string]string{
		"state": st.String(),
		"code":  string(st),
		"model": s.draw.CurrentModel(),
	})
}

func (s *Server) handleDrawReset(w http.ResponseWriter, r *http.Request) {
	if s.draw == nil {
		http.Error(w, "drawing not enabled", http.StatusServiceUnavailable)
		return
	}
	from := s.draw.State()
	if err := s.draw.Reset(); err != nil {
		slog.Error("draw reset failed", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	slog.Warn("draw state reset over http", "from", from)
	writeJSON(w, http.StatusOK, map[string]string{
		"from": from.String(),
		"to":   drawing.StateFree.String(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("write json response", "error", err)
	}
}
