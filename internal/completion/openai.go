package completion

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"
)

const defaultOpenAIBaseURL = "https://api.openai.com/v1"

// OpenAIClient wraps the OpenAI Responses API for oneshot calls.
type OpenAIClient struct {
	model  string
	client openai.Client
}

// NewOpenAIClient constructs an OpenAI-compatible completion client.
func NewOpenAIClient(cfg Config) (*OpenAIClient, error) {
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		return nil, fmt.Errorf("completion model is required")
	}

	apiKey, err := cfg.resolveAPIKey()
	if err != nil {
		return nil, err
	}

	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL),
		option.WithRequestTimeout(cfg.timeout()),
	}

	return &OpenAIClient{
		model:  model,
		client: openai.NewClient(opts...),
	}, nil
}

// Complete executes a single Responses API request.
func (c *OpenAIClient) Complete(ctx context.Context, req Request) (string, error) {
	resp, err := c.client.Responses.New(ctx, responses.ResponseNewParams{
		Model:        c.model,
		Instructions: openai.String(req.SystemPrompt),
		Input: responses.ResponseNewParamsInputUnion{
			OfString: openai.String(req.UserMessage),
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai responses.create: %w", err)
	}
	if msg := strings.TrimSpace(resp.Error.Message); msg != "" {
		return "", fmt.Errorf("openai response failed: %s", msg)
	}
	return resp.OutputText(), nil
}
