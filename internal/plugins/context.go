package plugins

import (
	"strings"

	"github.com/google/uuid"
)

// ContextType classifies an incoming message.
type ContextType string

const (
	ContextText        ContextType = "TEXT"
	ContextImageCreate ContextType = "IMAGE_CREATE"
)

// ChannelCaps describes what the delivering channel can send back.
type ChannelCaps struct {
	// NotSupported lists reply types the channel cannot deliver.
	NotSupported []ReplyType `json:"not_supported,omitempty"`
}

// Supports reports whether the channel can deliver replies of type t.
func (c ChannelCaps) Supports(t ReplyType) bool {
	for _, n := range c.NotSupported {
		if n == t {
			return false
		}
	}
	return true
}

// Context is a single chat message as seen by plugins.
type Context struct {
	ID        string      `json:"id"`
	Type      ContextType `json:"type"`
	Content   string      `json:"content"`
	SessionID string      `json:"session_id,omitempty"`
	Channel   ChannelCaps `json:"channel"`
}

// ParseContext builds a Context from raw message text. Text starting with
// one of imagePrefixes becomes an IMAGE_CREATE context with the prefix
// stripped; anything else is TEXT.
func ParseContext(text string, imagePrefixes []string) *Context {
	content := strings.TrimSpace(text)
	c := &Context{
		ID:      uuid.NewString(),
		Type:    ContextText,
		Content: content,
	}
	for _, prefix := range imagePrefixes {
		if prefix == "" {
			continue
		}
		if rest, ok := strings.CutPrefix(content, prefix); ok {
			c.Type = ContextImageCreate
			c.Content = strings.TrimSpace(rest)
			break
		}
	}
	return c
}
