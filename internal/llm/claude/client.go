// Package claude implements llm.Provider against the Claude Messages API.
package claude

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/linnemanlabs/raven/internal/llm"
)

// callTimeout bounds a single oracle call. A timeout surfaces as an
// ordinary call failure; callers never retry.
const callTimeout = 120 * time.Second

// Client is an llm.Provider backed by the Claude API.
type Client struct {
	client anthropic.Client
	model  string
}

// New creates a Claude client with the given API key and model name.
func New(apiKey, model string) *Client {
	return &Client{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

// Complete sends a single-prompt completion and returns the model's text output.
func (c *Client) Complete(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: int64(req.MaxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("claude messages: %w", err)
	}

	return fromSDKMessage(msg), nil
}

// fromSDKMessage converts an SDK message into the provider-neutral
// response, concatenating all text blocks.
func fromSDKMessage(msg *anthropic.Message) *llm.Response {
	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}

	return &llm.Response{
		Text:  b.String(),
		Model: string(msg.Model),
		Usage: llm.Usage{
			InputTokens:  int(msg.Usage.InputTokens),
			OutputTokens: int(msg.Usage.OutputTokens),
		},
	}
}
