// Package openai wraps the OpenAI chat completion API for first-pass
// lead scoring.
package openai

import (
	"context"

	"github.com/rotisserie/eris"
	sdk "github.com/sashabaranov/go-openai"
)

// Client defines the OpenAI operations used by the qualifier.
type Client interface {
	ChatCompletion(ctx context.Context, req CompletionRequest) (string, error)
}

// CompletionRequest is our own request type for ChatCompletion.
type CompletionRequest struct {
	Model       string
	System      string
	User        string
	Temperature float64
	MaxTokens   int
}

// sdkClient implements Client using sashabaranov/go-openai.
type sdkClient struct {
	inner *sdk.Client
}

// NewClient creates an OpenAI client with the given API key.
func NewClient(apiKey string) Client {
	return &sdkClient{inner: sdk.NewClient(apiKey)}
}

// ChatCompletion sends one system+user exchange and returns the assistant text.
func (c *sdkClient) ChatCompletion(ctx context.Context, req CompletionRequest) (string, error) {
	resp, err := c.inner.CreateChatCompletion(ctx, sdk.ChatCompletionRequest{
		Model: req.Model,
		Messages: []sdk.ChatCompletionMessage{
			{Role: sdk.ChatMessageRoleSystem, Content: req.System},
			{Role: sdk.ChatMessageRoleUser, Content: req.User},
		},
		Temperature: float32(req.Temperature),
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return "", eris.Wrap(err, "openai: create chat completion")
	}
	if len(resp.Choices) == 0 {
		return "", eris.New("openai: empty completion response")
	}
	return resp.Choices[0].Message.Content, nil
}
