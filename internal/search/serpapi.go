package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const defaultSerpAPIBaseURL = "https://serpapi.com"

// SerpAPIClient searches through the SerpAPI Google engine.
type SerpAPIClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewSerpAPIClient constructs a SerpAPI search client.
func NewSerpAPIClient(cfg Config) (*SerpAPIClient, error) {
	apiKey, err := cfg.resolveAPIKey("SERPAPI_API_KEY")
	if err != nil {
		return nil, err
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultSerpAPIBaseURL
	}
	return &SerpAPIClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  cfg.httpClient(),
	}, nil
}

type serpAPIResponse struct {
	OrganicResults []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
	} `json:"organic_results"`
}

// Search runs one query and returns up to numResults ranked snippets.
func (c *SerpAPIClient) Search(ctx context.Context, query string, numResults int) ([]Result, error) {
	params := url.Values{}
	params.Set("engine", "google")
	params.Set("q", query)
	params.Set("api_key", c.apiKey)
	params.Set("num", strconv.Itoa(numResults))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build serpapi request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("serpapi search: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("serpapi search: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var decoded serpAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode serpapi response: %w", err)
	}

	results := make([]Result, 0, len(decoded.OrganicResults))
	for _, item := range decoded.OrganicResults {
		if len(results) >= numResults {
			break
		}
		results = append(results, Result{
			Title:   item.Title,
			URL:     item.Link,
			Snippet: item.Snippet,
		})
	}
	return results, nil
}
