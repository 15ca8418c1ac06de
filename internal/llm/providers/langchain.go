// Package providers adapts concrete LLM backends to the llm.Provider
// interface consumed by the Gateway.
package providers

import (
	"context"

	"github.com/tmc/langchaingo/llms"

	"github.com/reqflow/engine/internal/llm"
)

// langchainProvider wraps any langchaingo llms.Model behind llm.Provider,
// so the Gateway stays agnostic of which backend SDK answers a call.
type langchainProvider struct {
	name  string
	model llms.Model
}

func (p *langchainProvider) Name() string { return p.name }

func (p *langchainProvider) Complete(ctx context.Context, req llm.Request) (llm.Response, error) {
	opts := []llms.CallOption{
		llms.WithMaxTokens(req.MaxTokens),
		llms.WithTemperature(req.Temperature),
	}
	text, err := llms.GenerateFromSinglePrompt(ctx, p.model, req.Prompt, opts...)
	if err != nil {
		return llm.Response{}, classifyError(p.name, err)
	}
	return llm.Response{Text: text}, nil
}
