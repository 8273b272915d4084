// Package extract locates person-name mentions in document text.
//
// Extraction is a capability: a model-backed Extractor is tried first and a heuristic one takes over when
// the primary is unavailable or finds nothing, so screening degrades to best-effort extraction instead of
// failing.
package extract

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/gurmeharsomal/media-screening-tool/internal/textutil"
	"github.com/gurmeharsomal/media-screening-tool/internal/types"
)

// Extractor finds the person names mentioned in a text. Implementations may return an empty result.
type Extractor interface {
	// Name identifies the implementation in logs and rationale text.
	Name() string
	// ExtractPersons returns the person names found in text, trimmed, in any order.
	ExtractPersons(ctx context.Context, text string) ([]string, error)
}

// Result is the outcome of running a Chain.
type Result struct {
	Mentions  []types.PersonMention
	Source    string // types.ExtractionPrimary, types.ExtractionFallback or types.ExtractionNone
	Extractor string // Name of the extractor that produced Mentions
}

// Degraded reports whether the mentions came from the fallback path.
func (r Result) Degraded() bool {
	return r.Source == types.ExtractionFallback
}

// Chain runs a primary extractor and falls back to a secondary one when the primary yields nothing.
type Chain struct {
	primary  Extractor
	fallback Extractor
	logger   *zap.SugaredLogger
}

// NewChain creates a chain. Either extractor may be nil; a lone fallback is promoted to primary.
func NewChain(primary, fallback Extractor, logger *zap.SugaredLogger) *Chain {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if primary == nil {
		primary, fallback = fallback, nil
	}
	return &Chain{primary: primary, fallback: fallback, logger: logger}
}

// Extract returns the located, deduplicated mentions from the first extractor that finds any.
// Extractor errors are logged and treated as an empty result.
func (c *Chain) Extract(ctx context.Context, text string) Result {
	if c.primary != nil {
		names, err := c.primary.ExtractPersons(ctx, text)
		if err != nil {
			c.logger.Warnw("primary person extraction failed", "extractor", c.primary.Name(), "error", err)
		}
		if mentions := Locate(text, names); len(mentions) > 0 {
			return Result{Mentions: mentions, Source: types.ExtractionPrimary, Extractor: c.primary.Name()}
		}
	}

	if c.fallback != nil {
		names, err := c.fallback.ExtractPersons(ctx, text)
		if err != nil {
			c.logger.Warnw("fallback person extraction failed", "extractor", c.fallback.Name(), "error", err)
		}
		if mentions := Locate(text, names); len(mentions) > 0 {
			return Result{Mentions: mentions, Source: types.ExtractionFallback, Extractor: c.fallback.Name()}
		}
	}

	return Result{Source: types.ExtractionNone}
}

// Names returns only the mention strings of r.
func (r Result) Names() []string {
	names := make([]string, len(r.Mentions))
	for i, m := range r.Mentions {
		names[i] = m.Text
	}
	return names
}

// Locate trims and deduplicates names, keeping first-seen order, and records where each first occurs in
// text (case-insensitively). Names that cannot be found keep an offset of -1.
func Locate(text string, names []string) []types.PersonMention {
	seen := make(map[string]bool, len(names))
	mentions := make([]types.PersonMention, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		mentions = append(mentions, types.PersonMention{
			Text:   name,
			Offset: textutil.IndexFold(text, name),
		})
	}
	return mentions
}
