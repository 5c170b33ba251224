package config

import (
	"testing"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := parse(env.Options{Environment: map[string]string{}})
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "5000", cfg.HTTPPort)
	assert.Equal(t, ":5000", cfg.Addr())
	assert.Equal(t, "codementor.db", cfg.DatabaseURL)
	assert.Equal(t, ProviderOpenAI, cfg.InferenceProvider)
	assert.Equal(t, "gpt-4.1-mini", cfg.OpenAIModel)
	assert.Equal(t, 60*time.Second, cfg.InferenceTimeout)
	assert.Equal(t, CanonicalLanguages, cfg.SupportedLanguages)
	assert.Equal(t, int64(100<<10), cfg.MaxBodyBytes)
	assert.False(t, cfg.IsProduction())
	assert.False(t, cfg.UsesMongo())
	assert.Empty(t, cfg.InferenceAPIKey())
}

func TestParseFallbackVariables(t *testing.T) {
	cfg, err := parse(env.Options{Environment: map[string]string{
		"NODE_ENV":  "production",
		"HTTP_PORT": "8080",
		"MONGO_URI": "mongodb://localhost:27017/codementor",
	}})
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.True(t, cfg.UsesMongo())
}

func TestParseProviderSelection(t *testing.T) {
	cfg, err := parse(env.Options{Environment: map[string]string{
		"INFERENCE_PROVIDER": "Gemini",
		"GEMINI_API_KEY":     "g-key",
		"OPENAI_API_KEY":     "o-key",
	}})
	require.NoError(t, err)
	assert.Equal(t, ProviderGemini, cfg.InferenceProvider)
	assert.Equal(t, "g-key", cfg.InferenceAPIKey())

	_, err = parse(env.Options{Environment: map[string]string{"INFERENCE_PROVIDER": "ollama"}})
	assert.Error(t, err)
}

func TestParseSupportedLanguages(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    []string
		wantErr bool
	}{
		{"narrowed", "python, JavaScript ,java,cpp,c", []string{"python", "javascript", "java", "cpp", "c"}, false},
		{"blank entries ignored", "python,,", []string{"python"}, false},
		{"outside canonical set", "python,rust", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := parse(env.Options{Environment: map[string]string{"SUPPORTED_LANGUAGES": tt.raw}})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.SupportedLanguages)
		})
	}
}

func TestParseRejectsNonPositiveTimeout(t *testing.T) {
	_, err := parse(env.Options{Environment: map[string]string{"INFERENCE_TIMEOUT": "0s"}})
	assert.Error(t, err)
}
