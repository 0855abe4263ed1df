// Package llm generates grounded answers with an OpenAI chat model.
package llm

import (
	"context"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// Options configures a Client.
type Options struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
}

// Client calls the chat completions API and records call latency.
type Client struct {
	client      *openai.Client
	model       string
	temperature float32

	Stats *LLMStats
}

func NewClient(opts Options) *Client {
	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}
	cfg.HTTPClient = &http.Client{Timeout: 120 * time.Second}

	return &Client{
		client:      openai.NewClientWithConfig(cfg),
		model:       opts.Model,
		temperature: opts.Temperature,
		Stats:       NewLLMStats(time.Hour),
	}
}

// Model returns the configured chat model name.
func (c *Client) Model() string { return c.model }

// Answer asks the model to answer question from passages only.
func (c *Client) Answer(ctx context.Context, question string, passages []Passage) (string, error) {
	return c.Complete(ctx, BuildAnswerPrompt(question, passages))
}

// Complete sends prompt as a single user message. Rate limits and 5xx
// replies come back as *RetryableError.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: c.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	c.Stats.Record(time.Since(start).Milliseconds(), err != nil)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", Classify(err))
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
