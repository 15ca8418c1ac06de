package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Validator validates a fully loaded Config, kept separate from the loader
// so callers (tests, CLI) can substitute a stricter or looser validator
// without touching the load path.
type Validator interface {
	Validate(cfg *Config) error
}

type structValidator struct {
	v *validator.Validate
}

// NewValidator returns the default struct-tag-driven Validator.
func NewValidator() Validator {
	return &structValidator{v: validator.New()}
}

func (s *structValidator) Validate(cfg *Config) error {
	if err := s.v.Struct(cfg); err != nil {
		return fmt.Errorf("config: validation failed: %w", err)
	}
	return nil
}

// Load reads configuration from configFile (if non-empty and present),
// environment variables named in spec.md §6, and defaults, then validates
// the result with validate.
func Load(configFile string, validate Validator) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	bindEnv(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("config: read %s: %w", configFile, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	if validate == nil {
		validate = NewValidator()
	}
	if err := validate.Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("core.max_sessions", 100)
	v.SetDefault("core.idle_timeout_seconds", 1800)

	v.SetDefault("llm.provider", "mock")
	v.SetDefault("llm.max_concurrent_llm", 3)

	v.SetDefault("store.path", "./reqflow.db")

	v.SetDefault("event_bus.retention_window", 1024)
	v.SetDefault("event_bus.heartbeat_period", "10s")

	v.SetDefault("orchestrator.max_agents_per_session", 3)
	v.SetDefault("orchestrator.max_clarification_rounds", 8)
	v.SetDefault("orchestrator.gate_overall", 0.8)
	v.SetDefault("orchestrator.gate_critical", 0.7)
	v.SetDefault("orchestrator.floor_overall", 0.6)
	v.SetDefault("orchestrator.early_stop_epsilon", 0.02)
	v.SetDefault("orchestrator.stale_threshold", "15m")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.service_name", "reqflow-engine")

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.interval", "15s")
}

// bindEnv wires the environment variables spec.md §6 enumerates explicitly,
// plus a generic REQFLOW_ prefix fallback for everything else.
func bindEnv(v *viper.Viper) {
	v.SetEnvPrefix("REQFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	_ = v.BindEnv("llm.endpoint", "LLM_ENDPOINT")
	_ = v.BindEnv("llm.api_key", "LLM_API_KEY")
	_ = v.BindEnv("llm.provider", "LLM_PROVIDER")
	_ = v.BindEnv("llm.max_concurrent_llm", "MAX_CONCURRENT_LLM")
	_ = v.BindEnv("core.max_sessions", "MAX_SESSIONS")
	_ = v.BindEnv("core.idle_timeout_seconds", "IDLE_TIMEOUT_SECONDS")
	_ = v.BindEnv("store.path", "STORE_PATH")
	_ = v.BindEnv("orchestrator.role_file", "ROLE_FILE")
}
