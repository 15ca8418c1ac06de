package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsValidate(t *testing.T) {
	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.LLM.MaxConcurrent)
	assert.Equal(t, 100, cfg.Core.MaxSessions)
	assert.Equal(t, 0.8, cfg.Orchestrator.GateOverall)
}

func TestLoad_EnvOverridesDefault(t *testing.T) {
	t.Setenv("MAX_CONCURRENT_LLM", "7")
	t.Setenv("LLM_PROVIDER", "anthropic")
	t.Setenv("LLM_API_KEY", "secret")

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.LLM.MaxConcurrent)
	assert.Equal(t, "anthropic", cfg.LLM.Provider)
	assert.Equal(t, "secret", cfg.LLM.APIKey)
}

func TestLoad_InvalidProviderFailsValidation(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "not-a-provider")
	_, err := Load("", nil)
	require.Error(t, err)
}
