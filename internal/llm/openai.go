package llm

import (
	"context"
	"errors"
	"log"

	openai "github.com/sashabaranov/go-openai"
)

const defaultOpenAIModel = "gpt-4o-mini"

// OpenAIClient calls the OpenAI chat completion API. The response envelope
// differs from Anthropic's (choices[0].message.content vs content blocks);
// Complete normalizes both into a plain string so callers never see the
// provider shape.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

// NewOpenAIClient constructs an OpenAI-backed client. An empty model falls
// back to the package default.
func NewOpenAIClient(apiKey, model string) *OpenAIClient {
	if model == "" {
		model = defaultOpenAIModel
	}
	return &OpenAIClient{
		client: openai.NewClient(apiKey),
		model:  model,
	}
}

// Complete sends the message history to the chat completion API and returns
// the assistant's raw reply text.
func (c *OpenAIClient) Complete(ctx context.Context, messages []Message, params Sampling) (string, error) {
	oaMsgs := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		role := m.Role
		if role != openai.ChatMessageRoleSystem && role != openai.ChatMessageRoleUser && role != openai.ChatMessageRoleAssistant {
			// coerce anything unknown to user
			role = openai.ChatMessageRoleUser
		}
		oaMsgs = append(oaMsgs, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}

	req := openai.ChatCompletionRequest{
		Model:     c.model,
		Messages:  oaMsgs,
		MaxTokens: params.MaxTokens,
	}
	if params.Temperature > 0 {
		req.Temperature = float32(params.Temperature)
	}
	if params.TopP > 0 {
		req.TopP = float32(params.TopP)
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", &UpstreamError{Provider: "openai", Err: err}
	}
	if len(resp.Choices) == 0 {
		return "", &UpstreamError{Provider: "openai", Err: errors.New("no choices in response")}
	}
	text := resp.Choices[0].Message.Content
	log.Printf("llm openai response model=%s size=%d tokens_in=%d tokens_out=%d",
		c.model, len(text), resp.Usage.PromptTokens, resp.Usage.CompletionTokens)
	return text, nil
}
