// Package config loads the engine's configuration from environment
// variables and an optional config file via spf13/viper, validating the
// result with go-playground/validator before handing it to callers.
package config

import "time"

// Config is the root configuration struct, composed of per-concern
// sub-structs so each component owns its own slice of the schema.
type Config struct {
	Core         CoreConfig         `mapstructure:"core"`
	LLM          LLMConfig          `mapstructure:"llm"`
	Store        StoreConfig        `mapstructure:"store"`
	EventBus     EventBusConfig     `mapstructure:"event_bus"`
	Orchestrator OrchestratorConfig `mapstructure:"orchestrator"`
	Logging      LoggingConfig      `mapstructure:"logging"`
	Tracing      TracingConfig      `mapstructure:"tracing"`
	Metrics      MetricsConfig      `mapstructure:"metrics"`
}

// CoreConfig holds process-wide caps named in spec.md §6.
type CoreConfig struct {
	MaxSessions        int `mapstructure:"max_sessions" validate:"min=1"`
	IdleTimeoutSeconds int `mapstructure:"idle_timeout_seconds" validate:"min=1"`
}

// LLMConfig configures the LLM Gateway and its backing provider.
type LLMConfig struct {
	Provider      string  `mapstructure:"provider" validate:"required,oneof=anthropic openai google ollama mock"`
	Endpoint      string  `mapstructure:"endpoint"`
	APIKey        string  `mapstructure:"api_key"`
	Model         string  `mapstructure:"model"`
	MaxConcurrent int     `mapstructure:"max_concurrent_llm" validate:"min=1"`
	RateLimitPerSecond float64 `mapstructure:"rate_limit_per_second"`
	RateLimitBurst     int     `mapstructure:"rate_limit_burst"`
}

// StoreConfig configures the SQLite-backed Session Store.
type StoreConfig struct {
	Path            string        `mapstructure:"path" validate:"required"`
	RetentionPeriod time.Duration `mapstructure:"retention_period"`
}

// EventBusConfig configures per-session Event Bus retention.
type EventBusConfig struct {
	RetentionWindow int           `mapstructure:"retention_window" validate:"min=1"`
	HeartbeatPeriod time.Duration `mapstructure:"heartbeat_period"`
}

// OrchestratorConfig configures the Flow Orchestrator and the
// Quality-Driven Clarification Engine nested inside it.
type OrchestratorConfig struct {
	MaxAgentsPerSession  int     `mapstructure:"max_agents_per_session" validate:"min=1"`
	MaxClarificationRounds int   `mapstructure:"max_clarification_rounds" validate:"min=1"`
	GateOverall          float64 `mapstructure:"gate_overall" validate:"min=0,max=1"`
	GateCritical         float64 `mapstructure:"gate_critical" validate:"min=0,max=1"`
	FloorOverall         float64 `mapstructure:"floor_overall" validate:"min=0,max=1"`
	EarlyStopEpsilon     float64 `mapstructure:"early_stop_epsilon" validate:"min=0"`
	StaleThreshold       time.Duration `mapstructure:"stale_threshold"`

	// RoleFile optionally points at a YAML file of RoleSpec overrides
	// (internal/agent.LoadRoleSpecs); empty means agent.DefaultRoleSpecs.
	RoleFile string `mapstructure:"role_file"`
}

// LoggingConfig configures the slog handler.
type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=text json"`
}

// TracingConfig configures the OpenTelemetry tracer provider.
type TracingConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	ServiceName string `mapstructure:"service_name"`
}

// MetricsConfig configures the OpenTelemetry meter provider.
type MetricsConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Interval time.Duration `mapstructure:"interval"`
}
