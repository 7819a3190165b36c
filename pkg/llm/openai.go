package llm

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// Config tunes the completion client.
type Config struct {
	APIKey      string
	Model       string
	Timeout     time.Duration
	MaxTokens   int
	Temperature float64
}

// OpenAIClient performs single-shot chat completions against the OpenAI API.
// Calls are bounded by the configured timeout and are never retried.
type OpenAIClient struct {
	client      *openai.Client
	model       string
	timeout     time.Duration
	maxTokens   int
	temperature float32
}

// NewOpenAIClient returns a configured client.
func NewOpenAIClient(cfg Config) *OpenAIClient {
	if cfg.Model == "" {
		cfg.Model = openai.GPT4
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 2000
	}
	return &OpenAIClient{
		client:      openai.NewClient(cfg.APIKey),
		model:       cfg.Model,
		timeout:     cfg.Timeout,
		maxTokens:   cfg.MaxTokens,
		temperature: float32(cfg.Temperature),
	}
}

// Complete sends one system instruction plus one user prompt and returns the
// text of the first completion choice.
func (c *OpenAIClient) Complete(ctx context.Context, system, user string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
