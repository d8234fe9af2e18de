package completion

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"
)

// GeminiClient wraps the Gemini API for oneshot calls.
type GeminiClient struct {
	model   string
	timeout time.Duration
	client  *genai.Client
}

// NewGeminiClient constructs a Gemini completion client.
func NewGeminiClient(ctx context.Context, cfg Config) (*GeminiClient, error) {
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		return nil, fmt.Errorf("completion model is required")
	}

	apiKey, err := cfg.resolveAPIKey()
	if err != nil {
		return nil, err
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return &GeminiClient{
		model:   model,
		timeout: cfg.timeout(),
		client:  client,
	}, nil
}

// Complete executes a single generate-content request.
func (c *GeminiClient) Complete(ctx context.Context, req Request) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var genCfg *genai.GenerateContentConfig
	if strings.TrimSpace(req.SystemPrompt) != "" {
		genCfg = &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(req.SystemPrompt, genai.RoleUser),
		}
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(req.UserMessage), genCfg)
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}
	return resp.Text(), nil
}
