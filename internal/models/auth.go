package models

import (
	"fmt"
	"os"
	"strings"

	"github.com/leo-bot/leobot/internal/config"
)

// AuthKind distinguishes how the credential is sent.
type AuthKind int

const (
	AuthAPIKey AuthKind = iota
)

// ResolvedAuth holds the resolved credentials and their kind.
type ResolvedAuth struct {
	Kind  AuthKind
	Value string
}

// defaultKeyEnv is the env var each driver falls back to.
var defaultKeyEnv = map[string]string{
	"anthropic": "ANTHROPIC_API_KEY",
	"claude":    "ANTHROPIC_API_KEY",
	"openai":    "OPENAI_API_KEY",
	"gemini":    "GEMINI_API_KEY",
}

// ResolveAuth resolves the credentials for a provider.
// Resolution order: api_key (literal or ${VAR}) → driver default env.
func ResolveAuth(cfg config.ProviderConfig) (ResolvedAuth, error) {
	apiKey := strings.TrimSpace(cfg.Auth.APIKey)
	if strings.HasPrefix(apiKey, "${") && strings.HasSuffix(apiKey, "}") {
		apiKey = os.Getenv(apiKey[2 : len(apiKey)-1])
	}
	if apiKey != "" {
		return ResolvedAuth{Kind: AuthAPIKey, Value: apiKey}, nil
	}

	env, ok := defaultKeyEnv[strings.ToLower(cfg.Driver)]
	if !ok {
		return ResolvedAuth{}, fmt.Errorf("unknown driver %q: cannot resolve auth", cfg.Driver)
	}
	if key := os.Getenv(env); key != "" {
		return ResolvedAuth{Kind: AuthAPIKey, Value: key}, nil
	}
	return ResolvedAuth{}, fmt.Errorf("%s not set", env)
}
