package config

import (
	"testing"
	"time"

	"sambou/internal/errors"
	"sambou/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{"LLM_PROVIDER", "OPENAI_API_KEY", "GEMINI_API_KEY", "LLM_MODEL", "TEMPERATURE",
		"MAX_TOKENS", "CORS_ORIGINS", "SNIPPET_TIMEOUT", "LLM_FALLBACK", "PORT"} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaultsToHeuristic(t *testing.T) {
	clearEnv(t)
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, models.ProviderHeuristic, cfg.AI.Provider)
	assert.True(t, cfg.AI.FallbackToHeuristic)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 60*time.Second, cfg.Server.SnippetTimeout)
	assert.Equal(t, []string{"http://localhost:3000", "http://localhost:9002"}, cfg.Server.CORSOrigins)
}

func TestProviderInferredFromKey(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEMINI_API_KEY", "g-key")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, models.ProviderGemini, cfg.AI.Provider)
	assert.Empty(t, cfg.AI.Model)

	t.Setenv("OPENAI_API_KEY", "o-key")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, models.ProviderOpenAI, cfg.AI.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.AI.Model)
	assert.Equal(t, "o-key", cfg.AI.LLMConfig().OpenAIKey)
}

func TestValidation(t *testing.T) {
	clearEnv(t)
	t.Setenv("LLM_PROVIDER", "openai")
	_, err := Load()
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.CodeConfigInvalid))

	t.Setenv("LLM_PROVIDER", "telepathy")
	_, err = Load()
	assert.Error(t, err)

	t.Setenv("LLM_PROVIDER", "")
	t.Setenv("TEMPERATURE", "3.5")
	_, err = Load()
	assert.Error(t, err)
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitList(" a, ,b "))
	assert.Nil(t, splitList(""))
}
