package events

import (
	"testing"
	"time"
)

func TestTypedEvent_IncomingMessage(t *testing.T) {
	evt := NewTypedEvent(SourceGateway, IncomingMessagePayload{ContextID: "c1", ContextType: "TEXT", Content: "潮阳区天气"})

	if evt.Type != EventIncomingMessage {
		t.Fatalf("expected type %q, got %q", EventIncomingMessage, evt.Type)
	}
	if evt.Source != SourceGateway {
		t.Fatalf("expected source %q, got %q", SourceGateway, evt.Source)
	}
	got, ok := ExtractPayload[IncomingMessagePayload](evt)
	if !ok {
		t.Fatal("ExtractPayload returned false")
	}
	if got.Content != "潮阳区天气" || got.ContextID != "c1" {
		t.Fatalf("unexpected payload %+v", got)
	}
}

func TestTypedEvent_OutgoingReply(t *testing.T) {
	evt := NewTypedEventWithSession(SourcePlugin, OutgoingReplyPayload{
		ContextID: "c1",
		Plugin:    "leosd",
		Handled:   true,
		ReplyType: "IMAGE",
		ImageSize: 2048,
	}, "sess_1")

	if evt.SessionID != "sess_1" {
		t.Fatalf("expected session sess_1, got %q", evt.SessionID)
	}
	got, ok := ExtractPayload[OutgoingReplyPayload](evt)
	if !ok {
		t.Fatal("ExtractPayload returned false")
	}
	if !got.Handled || got.Plugin != "leosd" || got.ImageSize != 2048 {
		t.Fatalf("unexpected payload %+v", got)
	}
}

func TestTypedEvent_DrawImage(t *testing.T) {
	evt := NewTypedEvent(SourcePlugin, DrawImagePayload{
		Path:     "/tmp/img/20240101120000.png",
		Model:    "二次元",
		Duration: 3 * time.Second,
	})
	got, ok := ExtractPayload[DrawImagePayload](evt)
	if !ok {
		t.Fatal("ExtractPayload returned false")
	}
	if got.Duration != 3*time.Second {
		t.Fatalf("expected duration 3s, got %s", got.Duration)
	}
}

func TestExtractPayload_WrongType(t *testing.T) {
	evt := NewTypedEvent(SourceScheduler, ScheduleTriggerPayload{Cron: "0 8 * * *", City: "潮阳"})
	if _, ok := ExtractPayload[DrawStatePayload](evt); ok {
		t.Fatal("expected extraction of a mismatched payload type to fail")
	}
	got, ok := ExtractPayload[ScheduleTriggerPayload](evt)
	if !ok || got.City != "潮阳" {
		t.Fatalf("unexpected payload %+v", got)
	}
}
