package llm

import "context"

// Message is a role-tagged chat message sent to the completion service.
// Role must be one of: "system", "user", or "assistant".
type Message struct {
	Role    string
	Content string
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Sampling carries the per-call sampling parameters. A zero Temperature or
// TopP means "provider default" and is omitted from the request.
type Sampling struct {
	MaxTokens   int
	Temperature float64
	TopP        float64
}

// Client is the gateway to the external completion service. Complete returns
// the raw text of the model's reply; the caller is responsible for locating
// and parsing any JSON inside it. Transport failures, API errors and
// malformed response envelopes surface as *UpstreamError — never retried,
// never substituted with a fallback reply.
type Client interface {
	Complete(ctx context.Context, messages []Message, params Sampling) (string, error)
}

// UpstreamError wraps a failed call to the completion service.
type UpstreamError struct {
	Provider string
	Err      error
}

func (e *UpstreamError) Error() string {
	return e.Provider + " completion failed: " + e.Err.Error()
}

func (e *UpstreamError) Unwrap() error { return e.Err }
