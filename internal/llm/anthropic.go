package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"ordersense/internal/domain"
)

const (
	anthropicEndpoint = "https://api.anthropic.com/v1/messages"
	anthropicVersion  = "2023-06-01"
	maxTokens         = 1024
)

// AnthropicClient implements Oracle against the Anthropic messages API.
type AnthropicClient struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
}

// NewAnthropicClient creates a client for the given API key and model.
func NewAnthropicClient(apiKey, model string) *AnthropicClient {
	return &AnthropicClient{
		apiKey:   apiKey,
		model:    model,
		endpoint: anthropicEndpoint,
		client:   &http.Client{Timeout: 60 * time.Second},
	}
}

// SetEndpoint overrides the API endpoint. Used by tests.
func (c *AnthropicClient) SetEndpoint(url string) { c.endpoint = url }

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system,omitempty"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Complete sends one prompt and returns the model's text response.
func (c *AnthropicClient) Complete(ctx context.Context, system, user string) (string, error) {
	if c.apiKey == "" {
		return "", domain.ErrUnavailable("anthropic api key not configured")
	}

	body, err := json.Marshal(anthropicRequest{
		Model:     c.model,
		MaxTokens: maxTokens,
		System:    system,
		Messages:  []anthropicMessage{{Role: "user", Content: user}},
	})
	if err != nil {
		return "", fmt.Errorf("marshal anthropic request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build anthropic request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", domain.ErrUnavailable("anthropic call failed: %v", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", domain.ErrUnavailable("read anthropic response: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", domain.ErrUnavailable("anthropic returned status %d", resp.StatusCode)
	}

	var parsed anthropicResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", domain.ErrUnavailable("decode anthropic response: %v", err)
	}
	if parsed.Error != nil {
		return "", domain.ErrUnavailable("anthropic error: %s", parsed.Error.Message)
	}
	for _, block := range parsed.Content {
		if block.Type == "text" && block.Text != "" {
			return block.Text, nil
		}
	}
	return "", domain.ErrUnavailable("anthropic response contained no text block")
}
