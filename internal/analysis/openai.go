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

const defaultOpenAIURL = "https://api.openai.com/v1"

// OpenAIClient talks to the OpenAI chat completions API. It is used for
// the optional insight-enhancement pass and as an alternative analysis
// provider.
type OpenAIClient struct {
	BaseURL string
	Model   string
	apiKey  string
	hc      *http.Client
}

// NewOpenAIClient creates a client with the given API key and model.
func NewOpenAIClient(apiKey, model string) *OpenAIClient {
	if model == "" {
		model = "gpt-3.5-turbo"
	}
	return &OpenAIClient{
		BaseURL: defaultOpenAIURL,
		Model:   model,
		apiKey:  apiKey,
		hc:      &http.Client{Timeout: 2 * time.Minute},
	}
}

func (c *OpenAIClient) Name() string { return "openai/" + c.Model }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Generate completes prompt through the chat completions endpoint.
func (c *OpenAIClient) Generate(ctx context.Context, prompt string) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("analysis: openai api key not configured: %w", apperr.ErrAnalysisProvider)
	}

	body, err := json.Marshal(chatRequest{
		Model: c.Model,
		Messages: []chatMessage{
			{Role: "system", Content: "You are a helpful assistant that enhances and refines text."},
			{Role: "user", Content: prompt},
		},
		Temperature: 0.7,
	})
	if err != nil {
		return "", fmt.Errorf("analysis: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("analysis: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.hc.Do(req)
	if err != nil {
		return "", fmt.Errorf("analysis: openai request: %w: %w", apperr.ErrAnalysisProvider, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", fmt.Errorf("analysis: openai: %w", apperr.ErrRateLimited)
	case resp.StatusCode != http.StatusOK:
		return "", fmt.Errorf("analysis: openai status %d: %w", resp.StatusCode, apperr.ErrAnalysisProvider)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("analysis: read openai response: %w: %w", apperr.ErrAnalysisProvider, err)
	}
	var out chatResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return "", fmt.Errorf("analysis: parse openai response: %w: %w", apperr.ErrAnalysisProvider, err)
	}
	if out.Error != nil {
		return "", fmt.Errorf("analysis: openai: %s: %w", out.Error.Message, apperr.ErrAnalysisProvider)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("analysis: openai returned no choices: %w", apperr.ErrAnalysisProvider)
	}
	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}
