// Package llm implements the LLM Gateway: a concurrency-limited,
// timeout-bounded, circuit-broken wrapper around an external LLM provider
// exposing three call modes (quick, standard, deep).
package llm

import "context"

// Request is one generation call. Prompt is the fully composed prompt
// text; the Gateway does not template or assemble prompts itself.
type Request struct {
	Prompt      string
	MaxTokens   int
	Temperature float64
}

// Response is a successful generation result.
type Response struct {
	Text         string
	InputTokens  int
	OutputTokens int
}

// Provider is the uniform interface every concrete backend (Anthropic,
// OpenAI, Google, Ollama, or a test mock) implements. The Gateway is the
// only caller; nothing else in the engine talks to a Provider directly.
type Provider interface {
	Name() string
	Complete(ctx context.Context, req Request) (Response, error)
}
