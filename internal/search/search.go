// Package search provides web-search provider clients.
package search

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"
)

// Result is a single ranked search result.
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// Provider executes a search query. Zero matches yields an empty slice,
// not an error; errors are reserved for transport and provider faults.
type Provider interface {
	Search(ctx context.Context, query string, numResults int) ([]Result, error)
}

// Config is search provider configuration.
type Config struct {
	Provider  string
	BaseURL   string
	APIKey    string
	APIKeyEnv string
	Timeout   time.Duration
}

func (c Config) resolveAPIKey(defaultEnv string) (string, error) {
	if key := strings.TrimSpace(c.APIKey); key != "" {
		return key, nil
	}
	envKey := strings.TrimSpace(c.APIKeyEnv)
	if envKey == "" {
		envKey = defaultEnv
	}
	if key := strings.TrimSpace(os.Getenv(envKey)); key != "" {
		return key, nil
	}
	return "", fmt.Errorf("search api key is required (set api_key or %s)", envKey)
}

func (c Config) httpClient() *http.Client {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &http.Client{Timeout: timeout}
}

// New constructs the configured search provider.
func New(cfg Config) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", "tavily":
		return NewTavilyClient(cfg)
	case "serpapi":
		return NewSerpAPIClient(cfg)
	default:
		return nil, fmt.Errorf("unknown search provider %q", cfg.Provider)
	}
}
