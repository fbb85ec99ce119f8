package llm

import (
	"context"
	"errors"
	"log"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const defaultAnthropicModel = "claude-3-5-haiku-latest"

// AnthropicClient calls the Anthropic Messages API. Constructed once at
// process start; it holds no per-call state and is safe for concurrent use.
type AnthropicClient struct {
	client anthropic.Client
	model  string
}

// NewAnthropicClient constructs an Anthropic-backed client. An empty model
// falls back to the package default.
func NewAnthropicClient(apiKey, model string) *AnthropicClient {
	if model == "" {
		model = defaultAnthropicModel
	}
	return &AnthropicClient{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

// Complete sends the messages to the Messages API and returns the text of
// the first text content block. System messages are lifted into the System
// field; the Messages API does not accept them inline.
func (c *AnthropicClient) Complete(ctx context.Context, messages []Message, params Sampling) (string, error) {
	var system []anthropic.TextBlockParam
	var turns []anthropic.MessageParam
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			system = append(system, anthropic.TextBlockParam{Text: m.Content})
		case RoleAssistant:
			turns = append(turns, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		default:
			turns = append(turns, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}

	req := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: int64(params.MaxTokens),
		Messages:  turns,
	}
	if len(system) > 0 {
		req.System = system
	}
	if params.Temperature > 0 {
		req.Temperature = anthropic.Float(params.Temperature)
	}
	if params.TopP > 0 {
		req.TopP = anthropic.Float(params.TopP)
	}

	message, err := c.client.Messages.New(ctx, req)
	if err != nil {
		return "", &UpstreamError{Provider: "anthropic", Err: err}
	}

	for _, block := range message.Content {
		if block.Type == "text" {
			log.Printf("llm anthropic response model=%s size=%d tokens_in=%d tokens_out=%d",
				c.model, len(block.Text), message.Usage.InputTokens, message.Usage.OutputTokens)
			return block.Text, nil
		}
	}
	return "", &UpstreamError{Provider: "anthropic", Err: errors.New("no text content in response")}
}
