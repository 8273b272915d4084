package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigFor(t *testing.T) {
	tests := []struct {
		provider     Provider
		wantProvider Provider
		lite         string
		standard     string
		baseURL      string
	}{
		{ProviderOpenAI, ProviderOpenAI, "gpt-4o-mini", "gpt-4o-mini", "https://api.openai.com/v1"},
		{ProviderGemini, ProviderGemini, "gemini-2.5-flash-lite", "gemini-2.5-flash", ""},
		{"mistral", ProviderOpenAI, "gpt-4o-mini", "gpt-4o-mini", "https://api.openai.com/v1"},
	}
	for _, tt := range tests {
		t.Run(string(tt.provider), func(t *testing.T) {
			cfg := ConfigFor(tt.provider)
			assert.Equal(t, tt.wantProvider, cfg.Provider)
			assert.Equal(t, tt.lite, cfg.GetModel(TierLite))
			assert.Equal(t, tt.standard, cfg.GetModel(TierStandard))
			assert.Equal(t, tt.baseURL, cfg.BaseURL)
		})
	}

	assert.Equal(t, DefaultOpenAIConfig(), DefaultConfig())
}

func TestConfigFor_ReturnsIndependentCopies(t *testing.T) {
	a := DefaultGeminiConfig()
	a.Models[TierStandard] = "tampered"

	assert.Equal(t, "gemini-2.5-flash", DefaultGeminiConfig().GetModel(TierStandard))
}

func TestGetModel_Fallback(t *testing.T) {
	tests := []struct {
		name   string
		models map[ModelTier]string
		tier   ModelTier
		want   string
	}{
		{"own tier", map[ModelTier]string{TierAdvanced: "big", TierStandard: "mid"}, TierAdvanced, "big"},
		{"falls back to standard", map[ModelTier]string{TierStandard: "mid", TierLite: "small"}, TierAdvanced, "mid"},
		{"falls back to lite", map[ModelTier]string{TierLite: "small"}, "unknown", "small"},
		{"empty value skipped", map[ModelTier]string{TierAdvanced: "", TierLite: "small"}, TierAdvanced, "small"},
		{"nothing configured", nil, TierStandard, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Provider: ProviderGemini, Models: tt.models}
			assert.Equal(t, tt.want, cfg.GetModel(tt.tier))
		})
	}
}

func TestWithModel_LeavesOriginalAlone(t *testing.T) {
	base := DefaultOpenAIConfig()
	tuned := base.WithModel(TierStandard, "gpt-4.1")

	assert.Equal(t, "gpt-4o-mini", base.GetModel(TierStandard))
	assert.Equal(t, "gpt-4.1", tuned.GetModel(TierStandard))
	assert.Equal(t, "gpt-4o-mini", tuned.GetModel(TierLite))
	assert.Equal(t, base.BaseURL, tuned.BaseURL)

	empty := (&Config{Provider: ProviderOpenAI}).WithModel(TierLite, "tiny")
	assert.Equal(t, "tiny", empty.GetModel(TierStandard))
}

func TestWithAllModels(t *testing.T) {
	cfg := DefaultGeminiConfig().WithAllModels("gemini-exp")

	for _, tier := range []ModelTier{TierLite, TierStandard, TierAdvanced} {
		assert.Equal(t, "gemini-exp", cfg.GetModel(tier))
	}
	assert.Equal(t, ProviderGemini, cfg.Provider)
}

func TestParseProvider(t *testing.T) {
	tests := []struct {
		input   string
		want    Provider
		wantErr bool
	}{
		{"", ProviderOpenAI, false},
		{"openai", ProviderOpenAI, false},
		{" Gemini ", ProviderGemini, false},
		{"anthropic", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseProvider(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "unsupported LLM provider")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
