package providers

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"buildboard/internal/domain"
	"buildboard/internal/ports"
)

const (
	anthropicModel     = "claude-3-5-haiku-20241022"
	anthropicVersion   = "2023-06-01"
	anthropicMaxTokens = 1024
)

// AnthropicClient is the second provider in the chain.
type AnthropicClient struct {
	apiKey string
	client *resty.Client
}

var _ ports.Provider = (*AnthropicClient)(nil)

// NewAnthropicClient creates an Anthropic Messages API client
func NewAnthropicClient(apiKey string, timeout time.Duration) *AnthropicClient {
	client := resty.New()
	client.SetTimeout(timeout)
	client.SetBaseURL("https://api.anthropic.com")

	return &AnthropicClient{
		apiKey: apiKey,
		client: client,
	}
}

// Name implements Provider.Name
func (c *AnthropicClient) Name() string { return "anthropic" }

// Configured implements Provider.Configured
func (c *AnthropicClient) Configured() bool { return c.apiKey != "" }

type anthropicRequest struct {
	MaxTokens int           `json:"max_tokens"`
	Messages  []wireMessage `json:"messages"`
	Model     string        `json:"model"`
	System    string        `json:"system,omitempty"`
}

type anthropicResponse struct {
	Content []struct {
		Text string `json:"text"`
		Type string `json:"type"`
	} `json:"content"`
}

// Complete implements Provider.Complete. The Messages API takes the system
// prompt as a top-level field, not a conversation turn.
func (c *AnthropicClient) Complete(ctx context.Context, messages []domain.ChatMessage) (string, error) {
	system, turns := splitSystem(messages)

	var result anthropicResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("x-api-key", c.apiKey).
		SetHeader("anthropic-version", anthropicVersion).
		SetBody(anthropicRequest{
			MaxTokens: anthropicMaxTokens,
			Messages:  toWireMessages(turns),
			Model:     anthropicModel,
			System:    system,
		}).
		SetResult(&result).
		Post("/v1/messages")
	if err != nil {
		return "", fmt.Errorf("anthropic request failed: %w", err)
	}
	if !resp.IsSuccess() {
		return "", fmt.Errorf("anthropic returned status %d", resp.StatusCode())
	}
	if len(result.Content) == 0 || result.Content[0].Text == "" {
		return "", fmt.Errorf("anthropic returned an empty response")
	}

	return result.Content[0].Text, nil
}
