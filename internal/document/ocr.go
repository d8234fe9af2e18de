package document

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

const (
	defaultOCRBaseURL = "https://api.mistral.ai/v1"
	defaultOCRModel   = "mistral-ocr-latest"
)

// OCRClient extracts PDF text through a Mistral-compatible OCR endpoint.
type OCRClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewOCRClient constructs an OCR client.
func NewOCRClient(baseURL, apiKey string, timeout time.Duration) (*OCRClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("ocr api key is required")
	}
	if baseURL == "" {
		baseURL = defaultOCRBaseURL
	}
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &OCRClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}, nil
}

type ocrRequest struct {
	Model    string      `json:"model"`
	Document ocrDocument `json:"document"`
}

type ocrDocument struct {
	Type        string `json:"type"`
	DocumentURL string `json:"document_url"`
}

type ocrResponse struct {
	Pages []struct {
		Index    int    `json:"index"`
		Markdown string `json:"markdown"`
	} `json:"pages"`
}

// ExtractPDF uploads the file as a base64 data URL and returns per-page
// markdown text.
func (c *OCRClient) ExtractPDF(ctx context.Context, path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pdf: %w", err)
	}

	payload, err := json.Marshal(ocrRequest{
		Model: defaultOCRModel,
		Document: ocrDocument{
			Type:        "document_url",
			DocumentURL: "data:application/pdf;base64," + base64.StdEncoding.EncodeToString(data),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal ocr request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/ocr", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build ocr request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ocr request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("ocr request: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var decoded ocrResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode ocr response: %w", err)
	}

	pages := make([]string, 0, len(decoded.Pages))
	for _, page := range decoded.Pages {
		pages = append(pages, page.Markdown)
	}
	return pages, nil
}
