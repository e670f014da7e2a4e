package plugins

import "context"

// Action tells the registry what to do after a plugin ran.
type Action int

const (
	// ActionContinue passes the message to the next plugin.
	ActionContinue Action = iota
	// ActionBreak stops plugin dispatch but keeps host default handling.
	ActionBreak
	// ActionBreakPass stops plugin dispatch and skips default handling.
	ActionBreakPass
)

func (a Action) String() string {
	switch a {
	case ActionBreak:
		return "break"
	case ActionBreakPass:
		return "break_pass"
	default:
		return "continue"
	}
}

// EventContext is what a plugin receives and mutates while handling a message.
type EventContext struct {
	Context *Context
	Reply   *Reply
	Action  Action
}

// Plugin is a chat plugin. Handle inspects ec.Context and, when it takes
// the message, sets ec.Reply and ec.Action.
type Plugin interface {
	PluginName() string
	PluginPriority() int
	Info() Manifest
	Help(verbose bool) string
	Handle(ctx context.Context, ec *EventContext)
}
