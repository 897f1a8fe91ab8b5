// Package llm is the client for the external text-generation service. Any
// OpenAI-compatible chat completions endpoint works; the default points at Groq.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"scouthub/internal/domain"
)

// Defaults matching the hosted service the hub was built against.
const (
	DefaultBaseURL = "https://api.groq.com/openai/v1"
	DefaultModel   = "llama3-8b-8192"
	DefaultTimeout = 30 * time.Second
)

var _ domain.Generator = (*Client)(nil)

// Config configures a Client.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// Client sends single-message chat completions.
type Client struct {
	api     *openai.Client
	model   string
	timeout time.Duration
}

// New creates a Client. Empty fields take the package defaults.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	oc := openai.DefaultConfig(cfg.APIKey)
	oc.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	return &Client{api: openai.NewClientWithConfig(oc), model: cfg.Model, timeout: cfg.Timeout}
}

// Model returns the model identifier sent with each request.
func (c *Client) Model() string { return c.model }

// Generate implements domain.Generator. Transport failures, API errors and
// empty completions are returned as *domain.ServiceError.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0,
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			err = fmt.Errorf("status %d: %s", apiErr.HTTPStatusCode, apiErr.Message)
		}
		return "", &domain.ServiceError{Service: "llm", Err: err}
	}
	if len(resp.Choices) == 0 {
		return "", &domain.ServiceError{Service: "llm", Err: errors.New("response has no choices")}
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
