package callbacks

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/leo-bot/leobot/internal/events"
)

func receive(t *testing.T, ch <-chan events.Event) events.LLMCallPayload {
	t.Helper()
	select {
	case e := <-ch:
		p, ok := events.ExtractPayload[events.LLMCallPayload](e)
		if !ok {
			t.Fatalf("unexpected event %s", e.Type)
		}
		return p
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for llm event")
	}
	return events.LLMCallPayload{}
}

func TestEventBusHandler_ChatModel(t *testing.T) {
	bus := events.NewBus(16)
	defer bus.Close()
	ch, unsub := bus.SubscribeChan(8, events.EventLLMCall)
	defer unsub()

	h := NewEventBusHandler(bus, events.SourcePlugin)
	info := &callbacks.RunInfo{Name: "translator", Type: "openai", Component: components.ComponentOfChatModel}

	ctx := h.OnStart(context.Background(), info, &model.CallbackInput{
		Messages: []*schema.Message{schema.SystemMessage("sys"), schema.UserMessage("画猫")},
	})
	start := receive(t, ch)
	if start.Phase != "request" || start.MessageCount != 2 || start.Model != "translator" {
		t.Fatalf("unexpected request payload %+v", start)
	}

	h.OnEnd(ctx, info, &model.CallbackOutput{Message: &schema.Message{
		Role:    schema.Assistant,
		Content: "a cat",
		ResponseMeta: &schema.ResponseMeta{
			Usage: &schema.TokenUsage{PromptTokens: 12, CompletionTokens: 3},
		},
	}})
	end := receive(t, ch)
	if end.Phase != "response" || end.TokensInput != 12 || end.TokensOutput != 3 {
		t.Fatalf("unexpected response payload %+v", end)
	}
	if end.Provider != "openai" {
		t.Fatalf("provider = %q", end.Provider)
	}
}

func TestEventBusHandler_Error(t *testing.T) {
	bus := events.NewBus(16)
	defer bus.Close()
	ch, unsub := bus.SubscribeChan(8, events.EventLLMCall)
	defer unsub()

	h := NewEventBusHandler(bus, "")
	info := &callbacks.RunInfo{Name: "translator", Component: components.ComponentOfChatModel}
	h.OnError(context.Background(), info, errors.New("rate limited"))

	p := receive(t, ch)
	if p.Phase != "error" || p.Error != "rate limited" {
		t.Fatalf("unexpected error payload %+v", p)
	}
}

func TestTruncatePayload(t *testing.T) {
	if got := truncatePayload("hello", 100); got != "hello" {
		t.Fatalf("expected %q, got %q", "hello", got)
	}
	if got := truncatePayload("hello world", 0); got != "hello world" {
		t.Fatalf("expected original string when maxLen=0, got %q", got)
	}
	long := truncatePayload(strings.Repeat("x", 200), 100)
	if len(long) != 100+len("... (truncated)") || !strings.HasSuffix(long, "... (truncated)") {
		t.Fatalf("unexpected truncation %q", long)
	}
}
