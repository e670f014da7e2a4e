package plugins

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/leo-bot/leobot/internal/events"
)

// Result is the outcome of dispatching one message.
type Result struct {
	Reply  *Reply
	Plugin string // plugin that produced Reply
	Action Action
}

// Handled reports whether any plugin replied.
func (r Result) Handled() bool {
	return r.Reply != nil
}

// Registry holds the registered plugins and dispatches messages to them.
// Dispatch is serialised: one message runs through the plugins at a time.
type Registry struct {
	mu       sync.RWMutex
	plugins  []Plugin
	byName   map[string]Plugin
	dispatch sync.Mutex
	bus      *events.Bus
}

// NewRegistry creates an empty registry. bus may be nil.
func NewRegistry(bus *events.Bus) *Registry {
	return &Registry{
		byName: make(map[string]Plugin),
		bus:    bus,
	}
}

// Register adds a plugin. Names must be unique.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := p.PluginName()
	if name == "" {
		return fmt.Errorf("plugin name is required")
	}
	if _, exists := r.byName[name]; exists {
		return fmt.Errorf("plugin %q already registered", name)
	}
	r.byName[name] = p
	r.plugins = append(r.plugins, p)
	sort.SliceStable(r.plugins, func(i, j int) bool {
		return r.plugins[i].PluginPriority() > r.plugins[j].PluginPriority()
	})
	slog.Info("plugin registered", "name", name, "priority", p.PluginPriority())
	return nil
}

// Plugins returns the registered plugins, highest priority first.
func (r *Registry) Plugins() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Plugin, len(r.plugins))
	copy(out, r.plugins)
	return out
}

// Get returns the plugin registered under name, or nil.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byName[name]
}

// Help returns the help text of every visible plugin.
func (r *Registry) Help(verbose bool) string {
	var sb strings.Builder
	for _, p := range r.Plugins() {
		info := p.Info()
		if info.Hidden {
			continue
		}
		fmt.Fprintf(&sb, "[%s] %s\n", info.Name, strings.TrimSpace(p.Help(verbose)))
	}
	return strings.TrimRight(sb.String(), "\n")
}

// Dispatch runs msg through the plugins in priority order until one sets
// ActionBreak or ActionBreakPass. The reply left on the event context is
// the result; a plugin replying with ActionContinue lets later plugins
// replace it.
func (r *Registry) Dispatch(ctx context.Context, msg *Context) Result {
	r.dispatch.Lock()
	defer r.dispatch.Unlock()

	if msg.SessionID == "" {
		msg.SessionID = events.SessionIDFromContext(ctx)
	}
	r.publish(events.IncomingMessagePayload{
		ContextID:   msg.ID,
		ContextType: string(msg.Type),
		Content:     msg.Content,
	}, msg.SessionID)

	ec := &EventContext{Context: msg, Action: ActionContinue}
	var res Result
	for _, p := range r.Plugins() {
		before := ec.Reply
		r.handle(ctx, p, ec)
		if ec.Reply != before {
			res.Plugin = p.PluginName()
		}
		if ec.Action != ActionContinue {
			break
		}
	}
	res.Reply = ec.Reply
	res.Action = ec.Action

	out := events.OutgoingReplyPayload{
		ContextID: msg.ID,
		Plugin:    res.Plugin,
		Handled:   res.Handled(),
	}
	if res.Reply != nil {
		out.ReplyType = string(res.Reply.Type)
		out.Content = res.Reply.Content
		out.ImageSize = len(res.Reply.Image)
	}
	r.publish(out, msg.SessionID)
	return res
}

// handle runs one plugin. A panicking plugin is logged and skipped.
func (r *Registry) handle(ctx context.Context, p Plugin, ec *EventContext) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("plugin panicked", "name", p.PluginName(), "panic", rec, "content", ec.Context.Content)
			ec.Action = ActionContinue
		}
	}()
	p.Handle(ctx, ec)
}

func (r *Registry) publish(payload events.EventPayload, sessionID string) {
	if r.bus == nil {
		return
	}
	r.bus.Publish(events.NewTypedEventWithSession(events.SourcePlugin, payload, sessionID))
}
