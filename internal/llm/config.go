// Package llm provides LLM configuration and client abstractions for the screening pipeline.
// Stage 2 validation and model-backed name extraction both go through the Client interface, so the
// provider can be switched without touching either.
package llm

import (
	"fmt"
	"maps"
	"strings"
)

// ModelTier selects how capable a model a call needs.
type ModelTier string

const (
	// TierLite lists person names.
	TierLite ModelTier = "lite"
	// TierStandard decides whether an article mention is the candidate.
	TierStandard ModelTier = "standard"
	// TierAdvanced is unused by default screening.
	TierAdvanced ModelTier = "advanced"
)

// tierFallback is the order GetModel tries when a tier has no model of its own.
var tierFallback = []ModelTier{TierStandard, TierLite}

// Provider names an LLM backend.
type Provider string

const (
	ProviderGemini Provider = "gemini"
	ProviderOpenAI Provider = "openai"
)

const openAIBaseURL = "https://api.openai.com/v1"

// providerModels holds the built-in model names per provider and tier.
var providerModels = map[Provider]map[ModelTier]string{
	ProviderOpenAI: {
		TierLite:     "gpt-4o-mini",
		TierStandard: "gpt-4o-mini",
		TierAdvanced: "gpt-4o",
	},
	ProviderGemini: {
		TierLite:     "gemini-2.5-flash-lite",
		TierStandard: "gemini-2.5-flash",
		TierAdvanced: "gemini-2.5-pro",
	},
}

// Config selects a provider and the model used for each tier.
type Config struct {
	Provider Provider
	Models   map[ModelTier]string
	// BaseURL overrides the endpoint of OpenAI-compatible providers.
	BaseURL string
}

// DefaultConfig is the OpenAI configuration.
func DefaultConfig() *Config {
	return DefaultOpenAIConfig()
}

func DefaultOpenAIConfig() *Config {
	return ConfigFor(ProviderOpenAI)
}

func DefaultGeminiConfig() *Config {
	return ConfigFor(ProviderGemini)
}

// ConfigFor returns a fresh copy of the built-in configuration for provider.
// Unknown providers get the OpenAI models.
func ConfigFor(provider Provider) *Config {
	models, ok := providerModels[provider]
	if !ok {
		provider, models = ProviderOpenAI, providerModels[ProviderOpenAI]
	}
	cfg := &Config{Provider: provider, Models: maps.Clone(models)}
	if provider == ProviderOpenAI {
		cfg.BaseURL = openAIBaseURL
	}
	return cfg
}

// ParseProvider maps a provider name to a Provider. An empty name selects OpenAI.
func ParseProvider(name string) (Provider, error) {
	p := Provider(strings.ToLower(strings.TrimSpace(name)))
	if p == "" {
		return ProviderOpenAI, nil
	}
	if _, ok := providerModels[p]; !ok {
		return "", fmt.Errorf("unsupported LLM provider %q", name)
	}
	return p, nil
}

// GetModel returns the model for tier, falling back to the standard and then the lite model.
// It returns "" when nothing is configured.
func (c *Config) GetModel(tier ModelTier) string {
	if model := c.Models[tier]; model != "" {
		return model
	}
	for _, t := range tierFallback {
		if model := c.Models[t]; model != "" {
			return model
		}
	}
	return ""
}

// WithModel returns a copy of c that uses model for tier.
func (c *Config) WithModel(tier ModelTier, model string) *Config {
	out := *c
	out.Models = maps.Clone(c.Models)
	if out.Models == nil {
		out.Models = make(map[ModelTier]string, 1)
	}
	out.Models[tier] = model
	return &out
}

// WithAllModels returns a copy of c that uses model for every tier, as LLM_MODEL requests.
func (c *Config) WithAllModels(model string) *Config {
	out := c
	for _, tier := range []ModelTier{TierLite, TierStandard, TierAdvanced} {
		out = out.WithModel(tier, model)
	}
	return out
}
