// Package translate turns a drawing topic, usually written in Chinese, into
// an English Stable Diffusion prompt using a chat model.
package translate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

const sdPromptTemplate = `I want you to act as a Stable Diffusion Art Prompt Generator. The formula for a prompt is made of parts, the parts are indicated by brackets. The [Subject] is the person place or thing the image is focused on. [Emotions] is the emotional look the subject or scene might have. [Verb] is What the subject is doing, such as standing, jumping, working and other varied that match the subject. [Adjectives] like beautiful, rendered, realistic, tiny, colorful and other varied that match the subject. 
I will give you a [Subject], you will respond in English with a full prompt. Present the result as one full sentence, no line breaks, no delimiters, and keep it as concise as possible while still conveying a full scene.
Here is a sample of how it should be output: "Beautiful woman, contemplative and reflective, sitting on a bench, cozy sweater, autumn park with colorful leaves"
Additionally, the topic I provide to you may be described in Chinese, but your response should only be in English.
My Input: {input}`

// ErrEmptyTranslation is returned when the model answers with nothing usable.
var ErrEmptyTranslation = errors.New("empty translation")

// LLMTranslator implements drawing.Translator on top of an eino chat model.
type LLMTranslator struct {
	model   model.BaseChatModel
	tmpl    prompt.ChatTemplate
	name    string
	handler callbacks.Handler
}

// Option configures an LLMTranslator.
type Option func(*LLMTranslator)

// WithCallbacks attaches an eino callback handler to every model call,
// reported under the given model name.
func WithCallbacks(name string, h callbacks.Handler) Option {
	return func(t *LLMTranslator) {
		t.name = name
		t.handler = h
	}
}

// NewLLMTranslator wraps a chat model.
func NewLLMTranslator(m model.BaseChatModel, opts ...Option) *LLMTranslator {
	t := &LLMTranslator{
		model: m,
		tmpl:  prompt.FromMessages(schema.FString, schema.UserMessage(sdPromptTemplate)),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Translate returns a single-sentence English prompt for text.
func (t *LLMTranslator) Translate(ctx context.Context, text string) (string, error) {
	msgs, err := t.tmpl.Format(ctx, map[string]any{"input": text})
	if err != nil {
		return "", fmt.Errorf("format prompt: %w", err)
	}

	if t.handler != nil {
		ctx = callbacks.InitCallbacks(ctx, &callbacks.RunInfo{
			Name:      t.name,
			Component: components.ComponentOfChatModel,
		}, t.handler)
	}

	resp, err := t.model.Generate(ctx, msgs)
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}
	if resp == nil {
		return "", ErrEmptyTranslation
	}

	out := Clean(resp.Content)
	if out == "" {
		return "", ErrEmptyTranslation
	}
	return out, nil
}

// Clean flattens a model answer into one line and strips wrapping quotes.
func Clean(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	for {
		trimmed := strings.Trim(s, "\"'“”`")
		trimmed = strings.TrimSpace(trimmed)
		if trimmed == s {
			return s
		}
		s = trimmed
	}
}
