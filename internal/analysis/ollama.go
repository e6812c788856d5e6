package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"augments/internal/apperr"
)

// OllamaClient talks to a local Ollama server's generate endpoint.
type OllamaClient struct {
	BaseURL string
	Model   string
	hc      *http.Client
}

// NewOllamaClient creates a client for the given server and model.
func NewOllamaClient(baseURL, model string) *OllamaClient {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	return &OllamaClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Model:   model,
		hc:      &http.Client{Timeout: 5 * time.Minute},
	}
}

func (c *OllamaClient) Name() string { return "ollama/" + c.Model }

type ollamaRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type ollamaResponse struct {
	Response string `json:"response"`
	Error    string `json:"error,omitempty"`
}

// Generate completes prompt with a single non-streaming request.
func (c *OllamaClient) Generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(ollamaRequest{Model: c.Model, Prompt: prompt, Stream: false})
	if err != nil {
		return "", fmt.Errorf("analysis: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("analysis: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return "", fmt.Errorf("analysis: ollama request: %w: %w", apperr.ErrAnalysisProvider, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", fmt.Errorf("analysis: ollama: %w", apperr.ErrRateLimited)
	case resp.StatusCode != http.StatusOK:
		return "", fmt.Errorf("analysis: ollama status %d: %w", resp.StatusCode, apperr.ErrAnalysisProvider)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("analysis: read ollama response: %w: %w", apperr.ErrAnalysisProvider, err)
	}
	var out ollamaResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return "", fmt.Errorf("analysis: parse ollama response: %w: %w", apperr.ErrAnalysisProvider, err)
	}
	if out.Error != "" {
		return "", fmt.Errorf("analysis: ollama: %s: %w", out.Error, apperr.ErrAnalysisProvider)
	}
	return strings.TrimSpace(out.Response), nil
}
