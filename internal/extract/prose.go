package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/jdkato/prose/v2"
)

// personLabel is the entity label prose assigns to people.
const personLabel = "PERSON"

// ProseExtractor tags PERSON entities with the averaged-perceptron NER model bundled in prose.
type ProseExtractor struct{}

// NewProseExtractor creates the model-backed extractor.
func NewProseExtractor() *ProseExtractor {
	return &ProseExtractor{}
}

// Name implements Extractor.
func (e *ProseExtractor) Name() string {
	return "prose"
}

// ExtractPersons implements Extractor.
func (e *ProseExtractor) ExtractPersons(ctx context.Context, text string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc, err := prose.NewDocument(text, prose.WithSegmentation(false))
	if err != nil {
		return nil, fmt.Errorf("failed to tag document: %w", err)
	}

	var persons []string
	for _, ent := range doc.Entities() {
		if ent.Label != personLabel {
			continue
		}
		if name := strings.TrimSpace(ent.Text); name != "" {
			persons = append(persons, name)
		}
	}
	return persons, nil
}
