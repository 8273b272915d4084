package extract

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gurmeharsomal/media-screening-tool/internal/llm"
	"github.com/gurmeharsomal/media-screening-tool/internal/schemas"
)

// LLMExtractor asks a language model to list the people named in a text.
type LLMExtractor struct {
	client llm.Client
	tier   llm.ModelTier
}

// NewLLMExtractor creates a model-backed extractor on the lite tier.
func NewLLMExtractor(client llm.Client) *LLMExtractor {
	return &LLMExtractor{client: client, tier: llm.TierLite}
}

// Name implements Extractor.
func (e *LLMExtractor) Name() string {
	return "llm"
}

type personNamesResponse struct {
	Persons []string `json:"persons"`
}

// ExtractPersons implements Extractor.
func (e *LLMExtractor) ExtractPersons(ctx context.Context, text string) ([]string, error) {
	if e.client == nil {
		return nil, fmt.Errorf("no LLM client configured")
	}

	prompt := llm.BuildExtractionPrompt(llm.PersonNamesSchema(), text)
	raw, err := e.client.GenerateJSON(ctx, prompt, e.tier)
	if err != nil {
		return nil, fmt.Errorf("LLM generation failed: %w", err)
	}

	cleaned := llm.CleanJSONBlock(raw)
	if err := schemas.Validate(schemas.PersonNames, cleaned); err != nil {
		return nil, fmt.Errorf("LLM response does not match schema: %w", err)
	}

	var resp personNamesResponse
	if err := json.Unmarshal([]byte(cleaned), &resp); err != nil {
		return nil, fmt.Errorf("failed to parse LLM response: %w", err)
	}
	return resp.Persons, nil
}
