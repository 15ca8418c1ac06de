package llm

// ProviderConfig names the backend the Gateway talks to, sourced from the
// LLM_ENDPOINT/LLM_API_KEY/LLM_PROVIDER environment variables.
type ProviderConfig struct {
	Provider string `mapstructure:"provider" validate:"required,oneof=anthropic openai google ollama mock"`
	Endpoint string `mapstructure:"endpoint"`
	APIKey   string `mapstructure:"api_key"`
	Model    string `mapstructure:"model"`

	MaxConcurrent int `mapstructure:"max_concurrent" validate:"min=1"`
}
