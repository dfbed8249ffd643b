// Package llm calls an OpenAI-compatible chat completion endpoint for answer synthesis.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/hyperjump/ticketrag/internal/config"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// Roles accepted in a Message.
const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// ErrDisabled is returned by a Completer when no model is configured.
var ErrDisabled = errors.New("language model disabled")

// Message is one entry of the ordered conversation sent to the model.
type Message struct {
	Role    string
	Content string
}

// Completer returns the model's text reply to an ordered message list.
type Completer interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}

// Client is a Completer backed by go-openai. Any OpenAI-compatible endpoint works,
// including the Gemini compatibility endpoint.
type Client struct {
	api         *openai.Client
	model       string
	temperature float32
	maxTokens   int
	logger      *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger for completion events.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient builds a client from cfg. It returns ErrDisabled when cfg is disabled or has no API key.
func NewClient(cfg *config.LLMConfig, opts ...Option) (*Client, error) {
	if !cfg.Enabled || cfg.APIKey == "" {
		return nil, ErrDisabled
	}
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	oc.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	c := &Client{
		api:         openai.NewClientWithConfig(oc),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Complete sends messages and returns the first choice's content.
func (c *Client) Complete(ctx context.Context, messages []Message) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
		Messages:    make([]openai.ChatCompletionMessage, len(messages)),
	}
	for i, m := range messages {
		req.Messages[i] = openai.ChatCompletionMessage{Role: m.Role, Content: m.Content}
	}

	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("llm %s: status %d: %s", c.model, apiErr.HTTPStatusCode, apiErr.Message)
		}
		return "", fmt.Errorf("llm %s: %w", c.model, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("llm %s: empty response", c.model)
	}
	c.logger.Debug("llm completion",
		zap.String("model", c.model),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
	)
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
