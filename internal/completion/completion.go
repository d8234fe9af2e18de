// Package completion provides text-completion clients for the research
// stages.
//
// Stages depend only on the Completer interface; the concrete client is
// selected by configuration. Replies are opaque text that may or may not
// carry the JSON payload a stage asked for, so callers route every reply
// through the jsonx parse boundary.
package completion

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"
)

const (
	defaultAPIKeyEnv = "OPENAI_API_KEY"
	defaultTimeout   = 60 * time.Second
)

// Request is a single completion request.
type Request struct {
	SystemPrompt string
	UserMessage  string
}

// Completer executes a single blocking completion call.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Config is completion client configuration.
type Config struct {
	Provider  string
	Model     string
	BaseURL   string
	APIKey    string
	APIKeyEnv string
	Timeout   time.Duration
}

func (c Config) resolveAPIKey() (string, error) {
	if key := strings.TrimSpace(c.APIKey); key != "" {
		return key, nil
	}
	envKey := strings.TrimSpace(c.APIKeyEnv)
	if envKey == "" {
		envKey = defaultAPIKeyEnv
	}
	if key := strings.TrimSpace(os.Getenv(envKey)); key != "" {
		return key, nil
	}
	return "", fmt.Errorf("completion api key is required (set api_key or %s)", envKey)
}

func (c Config) timeout() time.Duration {
	if c.Timeout <= 0 {
		return defaultTimeout
	}
	return c.Timeout
}

// New constructs the configured completion client.
func New(cfg Config) (Completer, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", "openai":
		return NewOpenAIClient(cfg)
	case "gemini":
		return NewGeminiClient(context.Background(), cfg)
	default:
		return nil, fmt.Errorf("unknown completion provider %q", cfg.Provider)
	}
}
