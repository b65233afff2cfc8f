package providers

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"buildboard/internal/domain"
	"buildboard/internal/ports"
)

const openAIModel = "gpt-4o-mini"

// OpenAIClient is the last provider in the chain.
type OpenAIClient struct {
	apiKey string
	client *resty.Client
}

var _ ports.Provider = (*OpenAIClient)(nil)

// NewOpenAIClient creates an OpenAI chat-completions client
func NewOpenAIClient(apiKey string, timeout time.Duration) *OpenAIClient {
	client := resty.New()
	client.SetTimeout(timeout)
	client.SetBaseURL("https://api.openai.com")

	return &OpenAIClient{
		apiKey: apiKey,
		client: client,
	}
}

// Name implements Provider.Name
func (c *OpenAIClient) Name() string { return "openai" }

// Configured implements Provider.Configured
func (c *OpenAIClient) Configured() bool { return c.apiKey != "" }

type openAIRequest struct {
	Messages []wireMessage `json:"messages"`
	Model    string        `json:"model"`
}

type openAIResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete implements Provider.Complete
func (c *OpenAIClient) Complete(ctx context.Context, messages []domain.ChatMessage) (string, error) {
	var result openAIResponse

	resp, err := c.client.R().
		SetContext(ctx).
		SetAuthToken(c.apiKey).
		SetBody(openAIRequest{
			Messages: toWireMessages(messages),
			Model:    openAIModel,
		}).
		SetResult(&result).
		Post("/v1/chat/completions")
	if err != nil {
		return "", fmt.Errorf("openai request failed: %w", err)
	}
	if !resp.IsSuccess() {
		return "", fmt.Errorf("openai returned status %d", resp.StatusCode())
	}
	if len(result.Choices) == 0 || result.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("openai returned an empty response")
	}

	return result.Choices[0].Message.Content, nil
}
