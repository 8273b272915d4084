package extract

import (
	"context"
	"regexp"
	"strings"
)

// capitalizedRuns match two, three and four consecutive capitalized words.
var capitalizedRuns = []*regexp.Regexp{
	regexp.MustCompile(`\b[A-Z][a-z]+ [A-Z][a-z]+\b`),
	regexp.MustCompile(`\b[A-Z][a-z]+ [A-Z][a-z]+ [A-Z][a-z]+\b`),
	regexp.MustCompile(`\b[A-Z][a-z]+ [A-Z][a-z]+ [A-Z][a-z]+ [A-Z][a-z]+\b`),
}

// nameStopwords disqualify a capitalized run that contains any of them, e.g. "The Court".
var nameStopwords = map[string]bool{
	"the": true, "and": true, "or": true, "but": true, "in": true, "on": true,
	"at": true, "to": true, "for": true, "of": true, "with": true, "by": true,
}

// RegexExtractor treats runs of capitalized words as person names.
type RegexExtractor struct{}

// NewRegexExtractor creates the heuristic extractor.
func NewRegexExtractor() *RegexExtractor {
	return &RegexExtractor{}
}

// Name implements Extractor.
func (e *RegexExtractor) Name() string {
	return "regex"
}

// ExtractPersons implements Extractor. It never fails.
func (e *RegexExtractor) ExtractPersons(_ context.Context, text string) ([]string, error) {
	var persons []string
	for _, re := range capitalizedRuns {
		for _, match := range re.FindAllString(text, -1) {
			if containsStopword(match) {
				continue
			}
			persons = append(persons, match)
		}
	}
	return persons, nil
}

func containsStopword(run string) bool {
	for _, word := range strings.Fields(run) {
		if nameStopwords[strings.ToLower(word)] {
			return true
		}
	}
	return false
}
