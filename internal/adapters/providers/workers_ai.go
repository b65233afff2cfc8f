package providers

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"buildboard/internal/domain"
	"buildboard/internal/ports"
)

const workersAIModel = "@cf/meta/llama-3.1-8b-instruct"

// WorkersAIClient is the edge inference provider, first in the chain.
type WorkersAIClient struct {
	accountID string
	apiToken  string
	client    *resty.Client
}

var _ ports.Provider = (*WorkersAIClient)(nil)

// NewWorkersAIClient creates a Cloudflare Workers AI client
func NewWorkersAIClient(accountID, apiToken string, timeout time.Duration) *WorkersAIClient {
	client := resty.New()
	client.SetTimeout(timeout)
	client.SetBaseURL("https://api.cloudflare.com/client/v4")

	return &WorkersAIClient{
		accountID: accountID,
		apiToken:  apiToken,
		client:    client,
	}
}

// Name implements Provider.Name
func (c *WorkersAIClient) Name() string { return "workers-ai" }

// Configured implements Provider.Configured
func (c *WorkersAIClient) Configured() bool {
	return c.accountID != "" && c.apiToken != ""
}

type workersAIRequest struct {
	Messages []wireMessage `json:"messages"`
}

type workersAIResponse struct {
	Result struct {
		Response string `json:"response"`
	} `json:"result"`
	Success bool `json:"success"`
}

// Complete implements Provider.Complete
func (c *WorkersAIClient) Complete(ctx context.Context, messages []domain.ChatMessage) (string, error) {
	var result workersAIResponse

	resp, err := c.client.R().
		SetContext(ctx).
		SetAuthToken(c.apiToken).
		SetBody(workersAIRequest{Messages: toWireMessages(messages)}).
		SetResult(&result).
		Post(fmt.Sprintf("/accounts/%s/ai/run/%s", c.accountID, workersAIModel))
	if err != nil {
		return "", fmt.Errorf("workers-ai request failed: %w", err)
	}
	if !resp.IsSuccess() || !result.Success {
		return "", fmt.Errorf("workers-ai returned status %d", resp.StatusCode())
	}
	if result.Result.Response == "" {
		return "", fmt.Errorf("workers-ai returned an empty response")
	}

	return result.Result.Response, nil
}
