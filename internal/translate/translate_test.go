package translate

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

type fakeChatModel struct {
	answer string
	err    error
	seen   []*schema.Message
}

func (f *fakeChatModel) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	f.seen = input
	if f.err != nil {
		return nil, f.err
	}
	return schema.AssistantMessage(f.answer, nil), nil
}

func (f *fakeChatModel) Stream(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	f.seen = input
	return schema.StreamReaderFromArray([]*schema.Message{schema.AssistantMessage(f.answer, nil)}), nil
}

func TestTranslate(t *testing.T) {
	m := &fakeChatModel{answer: "\"A fluffy cat, curious and playful,\nsitting on a windowsill\"\n"}
	tr := NewLLMTranslator(m)

	got, err := tr.Translate(context.Background(), "一只猫")
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	want := "A fluffy cat, curious and playful, sitting on a windowsill"
	if got != want {
		t.Fatalf("Translate = %q, want %q", got, want)
	}

	if len(m.seen) != 1 || m.seen[0].Role != schema.User {
		t.Fatalf("expected a single user message, got %+v", m.seen)
	}
	if !strings.HasSuffix(m.seen[0].Content, "My Input: 一只猫") {
		t.Fatalf("topic not substituted: %q", m.seen[0].Content)
	}
	if !strings.Contains(m.seen[0].Content, "Stable Diffusion Art Prompt Generator") {
		t.Fatal("prompt template missing")
	}
}

func TestTranslate_ModelError(t *testing.T) {
	tr := NewLLMTranslator(&fakeChatModel{err: errors.New("429 too many requests")})
	if _, err := tr.Translate(context.Background(), "猫"); err == nil {
		t.Fatal("expected error")
	}
}

func TestTranslate_Empty(t *testing.T) {
	tr := NewLLMTranslator(&fakeChatModel{answer: " \"\" "})
	if _, err := tr.Translate(context.Background(), "猫"); !errors.Is(err, ErrEmptyTranslation) {
		t.Fatalf("expected ErrEmptyTranslation, got %v", err)
	}
}

func TestClean(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain", "plain"},
		{"  “quoted”  ", "quoted"},
		{"`backticks`", "backticks"},
		{"line one\n\nline two", "line one line two"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Clean(tt.in); got != tt.want {
			t.Errorf("Clean(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
