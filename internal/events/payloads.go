package events

import (
	"encoding/json"
	"time"
)

// EventPayload is the interface all typed payloads implement.
type EventPayload interface {
	EventType() EventType
}

// =============================================================================
// MESSAGE EVENTS
// =============================================================================

// IncomingMessagePayload is a chat message entering the plugin registry.
type IncomingMessagePayload struct {
	ContextID   string `json:"context_id"`
	ContextType string `json:"context_type"`
	Content     string `json:"content"`
}

func (IncomingMessagePayload) EventType() EventType { return EventIncomingMessage }

// OutgoingReplyPayload is the single reply produced for an incoming message.
// Image bytes are not carried on the bus; only their size.
type OutgoingReplyPayload struct {
	ContextID string `json:"context_id"`
	Plugin    string `json:"plugin,omitempty"`
	Handled   bool   `json:"handled"`
	ReplyType string `json:"reply_type,omitempty"`
	Content   string `json:"content,omitempty"`
	ImageSize int    `json:"image_size,omitempty"`
}

func (OutgoingReplyPayload) EventType() EventType { return EventOutgoingReply }

// OutgoingBroadcastPayload is an unsolicited message pushed to every client.
type OutgoingBroadcastPayload struct {
	Topic   string `json:"topic"`
	Content string `json:"content"`
}

func (OutgoingBroadcastPayload) EventType() EventType { return EventOutgoingBroadcast }

// =============================================================================
// DRAWING EVENTS
// =============================================================================

// DrawStatePayload records a transition of the drawing slot.
type DrawStatePayload struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Model string `json:"model,omitempty"`
}

func (DrawStatePayload) EventType() EventType { return EventDrawState }

type DrawImagePayload struct {
	Path     string        `json:"path"`
	Model    string        `json:"model,omitempty"`
	Prompt   string        `json:"prompt,omitempty"`
	Duration time.Duration `json:"duration,omitempty"`
}

func (DrawImagePayload) EventType() EventType { return EventDrawImage }

// =============================================================================
// INTERNAL EVENTS
// =============================================================================

type LLMCallPayload struct {
	Phase        string        `json:"phase"`
	Model        string        `json:"model"`
	Provider     string        `json:"provider,omitempty"`
	MessageCount int           `json:"message_count,omitempty"`
	TokensInput  int           `json:"tokens_input,omitempty"`
	TokensOutput int           `json:"tokens_output,omitempty"`
	Duration     time.Duration `json:"duration,omitempty"`
	Error        string        `json:"error,omitempty"`
}

func (LLMCallPayload) EventType() EventType { return EventLLMCall }

type ScheduleTriggerPayload struct {
	Cron     string `json:"cron"`
	City     string `json:"city"`
	Forecast bool   `json:"forecast,omitempty"`
	Error    string `json:"error,omitempty"`
}

func (ScheduleTriggerPayload) EventType() EventType { return EventScheduleTrigger }

// =============================================================================
// TYPED EVENT CONSTRUCTORS
// =============================================================================

func NewTypedEvent(source EventSource, payload EventPayload) Event {
	return Event{
		ID:        generateEventID(),
		Type:      payload.EventType(),
		Timestamp: time.Now(),
		Source:    source,
		Payload:   toMap(payload),
	}
}

func NewTypedEventWithSession(source EventSource, payload EventPayload, sessionID string) Event {
	return Event{
		ID:        generateEventID(),
		SessionID: sessionID,
		Type:      payload.EventType(),
		Timestamp: time.Now(),
		Source:    source,
		Payload:   toMap(payload),
	}
}

func toMap(v any) map[string]any {
	var result map[string]any
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return nil
	}
	return result
}

// =============================================================================
// TYPED PAYLOAD EXTRACTORS
// =============================================================================

func ExtractPayload[T EventPayload](e Event) (T, bool) {
	var result T
	if e.Type != result.EventType() {
		return result, false
	}
	data, err := json.Marshal(e.Payload)
	if err != nil {
		return result, false
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return result, false
	}
	return result, true
}
