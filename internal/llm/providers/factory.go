package providers

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/reqflow/engine/internal/llm"
)

// New builds the llm.Provider named by cfg.Provider (anthropic, openai,
// google, ollama, or mock), wiring cfg.Endpoint/APIKey/Model into the
// matching langchaingo client.
func New(cfg llm.ProviderConfig) (llm.Provider, error) {
	switch cfg.Provider {
	case "anthropic":
		opts := []anthropic.Option{anthropic.WithToken(cfg.APIKey)}
		if cfg.Model != "" {
			opts = append(opts, anthropic.WithModel(cfg.Model))
		}
		if cfg.Endpoint != "" {
			opts = append(opts, anthropic.WithBaseURL(cfg.Endpoint))
		}
		model, err := anthropic.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("providers: anthropic client: %w", err)
		}
		return &langchainProvider{name: "anthropic", model: model}, nil

	case "openai":
		opts := []openai.Option{openai.WithToken(cfg.APIKey)}
		if cfg.Model != "" {
			opts = append(opts, openai.WithModel(cfg.Model))
		}
		if cfg.Endpoint != "" {
			opts = append(opts, openai.WithBaseURL(cfg.Endpoint))
		}
		model, err := openai.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("providers: openai client: %w", err)
		}
		return &langchainProvider{name: "openai", model: model}, nil

	case "google":
		opts := []googleai.Option{googleai.WithAPIKey(cfg.APIKey)}
		if cfg.Model != "" {
			opts = append(opts, googleai.WithDefaultModel(cfg.Model))
		}
		model, err := googleai.New(context.Background(), opts...)
		if err != nil {
			return nil, fmt.Errorf("providers: google client: %w", err)
		}
		return &langchainProvider{name: "google", model: model}, nil

	case "ollama":
		opts := []ollama.Option{}
		if cfg.Model != "" {
			opts = append(opts, ollama.WithModel(cfg.Model))
		}
		if cfg.Endpoint != "" {
			opts = append(opts, ollama.WithServerURL(cfg.Endpoint))
		}
		model, err := ollama.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("providers: ollama client: %w", err)
		}
		return &langchainProvider{name: "ollama", model: model}, nil

	case "mock":
		return NewMock(cfg.Model), nil

	default:
		return nil, fmt.Errorf("providers: unknown provider %q", cfg.Provider)
	}
}
