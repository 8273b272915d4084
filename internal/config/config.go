// Package config provides configuration loading and validation for the screener.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gurmeharsomal/media-screening-tool/internal/llm"
	"github.com/gurmeharsomal/media-screening-tool/internal/scoring"
)

// NER providers accepted by NERProvider.
const (
	NERProse = "prose"
	NERLLM   = "llm"
	NERRegex = "regex"
)

// Config represents the screener configuration. It can be loaded from a JSON file
// and is then overridden by environment variables.
type Config struct {
	// Server
	Port int `json:"port,omitempty"`

	// LLM
	LLMProvider  string `json:"llm_provider,omitempty"` // gemini or openai
	LLMModel     string `json:"llm_model,omitempty"`    // Overrides every tier when set
	LLMBaseURL   string `json:"llm_base_url,omitempty"` // OpenAI-compatible endpoint
	GeminiAPIKey string `json:"gemini_api_key,omitempty"`
	OpenAIAPIKey string `json:"openai_api_key,omitempty"`

	// Reference data
	NicknamesPath   string `json:"nicknames_path,omitempty"`
	OccupationsPath string `json:"occupations_path,omitempty"` // Optional YAML profession table

	// Matching
	NERProvider      string             `json:"ner_provider,omitempty"`
	Thresholds       scoring.Thresholds `json:"thresholds"`
	OccupationWindow int                `json:"occupation_window,omitempty"`

	// Stage 2
	Stage2CacheSize  int     `json:"stage2_cache_size,omitempty"`
	MinConfidence    float64 `json:"min_confidence,omitempty"`    // Validator policy
	AcceptConfidence float64 `json:"accept_confidence,omitempty"` // Orchestrator accept threshold
	ExcerptWindow    int     `json:"excerpt_window,omitempty"`

	// Behavior
	UseBrowser bool `json:"use_browser,omitempty"` // Render short articles with a headless browser
	Verbose    bool `json:"verbose,omitempty"`
}

// Default returns the production configuration.
func Default() *Config {
	return &Config{
		Port:             8000,
		LLMProvider:      string(llm.ProviderOpenAI),
		NicknamesPath:    "data/names.csv",
		NERProvider:      NERProse,
		Thresholds:       scoring.DefaultThresholds(),
		OccupationWindow: 200,
		Stage2CacheSize:  1000,
		MinConfidence:    0.80,
		AcceptConfidence: 0.82,
		ExcerptWindow:    500,
	}
}

// LoadConfig loads configuration from a JSON file on top of Default.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return cfg, nil
}

// ApplyEnv overrides fields from environment variables read through getenv.
// Unparseable numeric values are reported rather than ignored.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	str := func(key string, dst *string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	integer := func(key string, dst *int) error {
		v := strings.TrimSpace(getenv(key))
		if v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", key, v, err)
		}
		*dst = n
		return nil
	}

	str("LLM_PROVIDER", &c.LLMProvider)
	str("LLM_MODEL", &c.LLMModel)
	str("LLM_BASE_URL", &c.LLMBaseURL)
	str("GEMINI_API_KEY", &c.GeminiAPIKey)
	str("OPENAI_API_KEY", &c.OpenAIAPIKey)
	str("NICKNAMES_PATH", &c.NicknamesPath)
	str("OCCUPATIONS_PATH", &c.OccupationsPath)
	str("NER_PROVIDER", &c.NERProvider)

	if err := integer("SCREENER_PORT", &c.Port); err != nil {
		return err
	}
	if err := integer("STAGE2_CACHE_SIZE", &c.Stage2CacheSize); err != nil {
		return err
	}
	if v := strings.TrimSpace(getenv("USE_BROWSER")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid USE_BROWSER %q: %w", v, err)
		}
		c.UseBrowser = b
	}
	return nil
}

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("config error: 'port' must be within 0-65535")
	}
	if _, err := llm.ParseProvider(c.LLMProvider); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	switch c.NERProvider {
	case NERProse, NERLLM, NERRegex:
	default:
		return fmt.Errorf("config error: unknown ner_provider %q (want prose, llm or regex)", c.NERProvider)
	}
	if c.Stage2CacheSize <= 0 {
		return fmt.Errorf("config error: 'stage2_cache_size' must be positive")
	}
	if c.OccupationWindow < 0 || c.ExcerptWindow < 0 {
		return fmt.Errorf("config error: window sizes must be non-negative")
	}
	for name, v := range map[string]float64{"min_confidence": c.MinConfidence, "accept_confidence": c.AcceptConfidence} {
		if v < 0 || v > 1 {
			return fmt.Errorf("config error: '%s' must be within 0-1", name)
		}
	}
	if err := c.Thresholds.Validate(); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if c.OccupationsPath != "" {
		if _, err := os.Stat(c.OccupationsPath); os.IsNotExist(err) {
			return fmt.Errorf("config error: occupations file not found: %s", c.OccupationsPath)
		}
	}
	return nil
}

// APIKey returns the key matching the configured provider.
func (c *Config) APIKey() string {
	provider, err := llm.ParseProvider(c.LLMProvider)
	if err != nil {
		return ""
	}
	if provider == llm.ProviderGemini {
		return c.GeminiAPIKey
	}
	return c.OpenAIAPIKey
}

// LLMConfig builds the client configuration for the selected provider.
func (c *Config) LLMConfig() (*llm.Config, error) {
	provider, err := llm.ParseProvider(c.LLMProvider)
	if err != nil {
		return nil, err
	}
	cfg := llm.ConfigFor(provider)
	if c.LLMModel != "" {
		cfg = cfg.WithAllModels(c.LLMModel)
	}
	if c.LLMBaseURL != "" {
		cfg.BaseURL = c.LLMBaseURL
	}
	return cfg, nil
}
