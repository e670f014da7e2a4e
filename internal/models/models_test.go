package models

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"github.com/leo-bot/leobot/internal/config"
)

func TestResolveAuth_DirectAPIKey(t *testing.T) {
	cfg := config.ProviderConfig{
		Driver: "anthropic",
		Auth:   config.AuthConfig{APIKey: "sk-ant-test-123"},
	}
	auth, err := ResolveAuth(cfg)
	if err != nil {
		t.Fatalf("ResolveAuth: %v", err)
	}
	if auth.Kind != AuthAPIKey || auth.Value != "sk-ant-test-123" {
		t.Fatalf("unexpected auth %+v", auth)
	}
}

func TestResolveAuth_EnvVarSyntax(t *testing.T) {
	t.Setenv("LEOBOT_TEST_KEY", "custom-api-key-value")

	cfg := config.ProviderConfig{
		Driver: "openai",
		Auth:   config.AuthConfig{APIKey: "${LEOBOT_TEST_KEY}"},
	}
	auth, err := ResolveAuth(cfg)
	if err != nil {
		t.Fatalf("ResolveAuth: %v", err)
	}
	if auth.Value != "custom-api-key-value" {
		t.Fatalf("expected value %q, got %q", "custom-api-key-value", auth.Value)
	}
}

func TestResolveAuth_DriverFallback(t *testing.T) {
	tests := []struct {
		driver string
		env    string
	}{
		{"anthropic", "ANTHROPIC_API_KEY"},
		{"claude", "ANTHROPIC_API_KEY"},
		{"openai", "OPENAI_API_KEY"},
		{"gemini", "GEMINI_API_KEY"},
	}
	for _, tt := range tests {
		t.Run(tt.driver, func(t *testing.T) {
			t.Setenv(tt.env, "env-"+tt.driver)
			auth, err := ResolveAuth(config.ProviderConfig{Driver: tt.driver})
			if err != nil {
				t.Fatalf("ResolveAuth: %v", err)
			}
			if auth.Value != "env-"+tt.driver {
				t.Fatalf("expected value %q, got %q", "env-"+tt.driver, auth.Value)
			}
		})
	}
}

func TestResolveAuth_UnknownDriver(t *testing.T) {
	_, err := ResolveAuth(config.ProviderConfig{Driver: "mistral"})
	if err == nil || !strings.Contains(err.Error(), "unknown driver") {
		t.Fatalf("expected 'unknown driver' error, got %v", err)
	}
}

func TestResolveAuth_NothingSet(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")

	_, err := ResolveAuth(config.ProviderConfig{Driver: "anthropic"})
	if err == nil || !strings.Contains(err.Error(), "ANTHROPIC_API_KEY not set") {
		t.Fatalf("expected 'ANTHROPIC_API_KEY not set' error, got %v", err)
	}
}

func TestRegistry_GetUnknown(t *testing.T) {
	reg := NewRegistry(config.ModelsConfig{Default: "main"})

	_, err := reg.Get(context.Background(), "nonexistent")
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("expected 'not found' error, got %v", err)
	}
}

func TestRegistry_NoDefault(t *testing.T) {
	reg := NewRegistry(config.ModelsConfig{})
	if _, err := reg.Get(context.Background(), ""); err == nil {
		t.Fatal("expected error without default model")
	}
}

func TestRegistry_NamesAndConfig(t *testing.T) {
	reg := NewRegistry(config.ModelsConfig{
		Default: "translator",
		Providers: map[string]config.ProviderConfig{
			"translator": {Driver: "openai", Model: "gpt-4o-mini"},
			"local":      {Driver: "ollama", Model: "qwen2.5"},
		},
	})

	if reg.DefaultName() != "translator" {
		t.Fatalf("expected default name %q, got %q", "translator", reg.DefaultName())
	}
	if got := reg.Names(); !reflect.DeepEqual(got, []string{"local", "translator"}) {
		t.Fatalf("Names = %v", got)
	}
	cfg, ok := reg.Config("local")
	if !ok || cfg.Model != "qwen2.5" {
		t.Fatalf("Config(local) = %+v, %v", cfg, ok)
	}
	if _, ok := reg.Config("missing"); ok {
		t.Fatal("expected missing config")
	}
}

func TestCreateModel_UnknownDriver(t *testing.T) {
	_, err := CreateModel(context.Background(), config.ProviderConfig{Driver: "unknown-driver"})
	if err == nil || !strings.Contains(err.Error(), "unknown driver") {
		t.Fatalf("expected 'unknown driver' error, got %v", err)
	}
}

func TestCreateModel_MissingKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	_, err := CreateModel(context.Background(), config.ProviderConfig{Driver: "openai", Model: "gpt-4o-mini"})
	if err == nil || !strings.Contains(err.Error(), "resolve auth") {
		t.Fatalf("expected auth error, got %v", err)
	}
}

func TestCheckedTransport(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		contentType string
		body        string
		wantErr     bool
	}{
		{"json", http.StatusOK, "application/json", `{"ok":true}`, false},
		{"ndjson", http.StatusOK, "application/x-ndjson", `{"ok":true}`, false},
		{"plain text proxy", http.StatusOK, "text/plain", "no available server", true},
		{"server error", http.StatusBadGateway, "application/json", `{"error":"down"}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", tt.contentType)
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client := &http.Client{Transport: newCheckedTransport("ollama", nil)}
			resp, err := client.Get(srv.URL)
			if !tt.wantErr {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				resp.Body.Close()
				return
			}
			var unavailable *ErrModelUnavailable
			if !errors.As(err, &unavailable) {
				t.Fatalf("expected ErrModelUnavailable, got %v", err)
			}
			if unavailable.Body != tt.body {
				t.Fatalf("Body = %q, want %q", unavailable.Body, tt.body)
			}
		})
	}
}

func TestCheckedTransport_DialError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := &http.Client{Transport: newCheckedTransport("ollama", nil)}
	_, err := client.Get(url)
	var unavailable *ErrModelUnavailable
	if !errors.As(err, &unavailable) || unavailable.Cause == nil {
		t.Fatalf("expected ErrModelUnavailable with cause, got %v", err)
	}
}

func TestHandleError(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"status 401", "authentication failed"},
		{"429 too many requests", "rate limited"},
		{"model not found", "model not found"},
		{"dial tcp: connection refused", "connection error"},
	}
	for _, tt := range tests {
		got := HandleError(errors.New(tt.in))
		if !strings.HasPrefix(got.Error(), tt.want) {
			t.Errorf("HandleError(%q) = %v, want prefix %q", tt.in, got, tt.want)
		}
	}
	if HandleError(nil) != nil {
		t.Error("HandleError(nil) should be nil")
	}
}
