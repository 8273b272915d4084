package scoring

import (
	"context"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/gurmeharsomal/media-screening-tool/internal/conflict"
	"github.com/gurmeharsomal/media-screening-tool/internal/extract"
	"github.com/gurmeharsomal/media-screening-tool/internal/similarity"
	"github.com/gurmeharsomal/media-screening-tool/internal/textutil"
	"github.com/gurmeharsomal/media-screening-tool/internal/types"
	"github.com/gurmeharsomal/media-screening-tool/internal/variants"
)

// Evaluation is a Stage 1 result together with the intermediate facts it was derived from.
type Evaluation struct {
	Result     types.Stage1Result
	Variants   *variants.Set
	Extraction extract.Result
	Best       types.PersonMention
	BestScore  float64 // raw similarity of the best accepted pair, before penalties
	Conflicts  types.ConflictReport
	Document   string // normalized document the facts refer to
}

// Engine runs Stage 1. It holds no mutable state and is safe for concurrent use.
type Engine struct {
	generator  *variants.Generator
	extractor  *extract.Chain
	detector   *conflict.Detector
	thresholds Thresholds
	logger     *zap.SugaredLogger
}

// Option configures an Engine.
type Option func(*Engine)

// WithThresholds overrides the default decision bands.
func WithThresholds(t Thresholds) Option {
	return func(e *Engine) { e.thresholds = t }
}

// WithLogger sets the engine logger.
func WithLogger(logger *zap.SugaredLogger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEngine wires the Stage 1 components together.
func NewEngine(generator *variants.Generator, extractor *extract.Chain, detector *conflict.Detector, opts ...Option) *Engine {
	e := &Engine{
		generator:  generator,
		extractor:  extractor,
		detector:   detector,
		thresholds: DefaultThresholds(),
		logger:     zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Thresholds returns the decision bands in use.
func (e *Engine) Thresholds() Thresholds {
	return e.thresholds
}

// Evaluate scores document against profile. For deterministic extractors identical inputs yield an
// identical result.
func (e *Engine) Evaluate(ctx context.Context, profile types.CandidateProfile, document string) *Evaluation {
	document = textutil.Normalize(document)
	profile.Name = strings.TrimSpace(textutil.Normalize(profile.Name))

	set := e.generator.Generate(profile.Name)
	extraction := e.extractor.Extract(ctx, document)
	e.logger.Debugw("stage 1 inputs",
		"variants", set.Len(),
		"mentions", len(extraction.Mentions),
		"extractor", extraction.Extractor,
		"source", extraction.Source)

	eval := &Evaluation{
		Variants:   set,
		Extraction: extraction,
		Document:   document,
	}

	if len(extraction.Mentions) == 0 {
		eval.Result = types.Stage1Result{
			Stage:            1,
			Decision:         types.DecisionNoMatch,
			Score:            0,
			BestPerson:       "",
			CandidateVariant: profile.Name,
			AllVariants:      set.String(),
			Penalty:          0,
			Reasons:          "No person names found in the article to compare against.",
			ExtractionSource: extraction.Source,
		}
		return eval
	}

	bestScore := 0.0
	best := types.PersonMention{Offset: -1}
	bestVariant := profile.Name
	for _, variant := range set.Items() {
		variantTokens := similarity.TokenCount(variant)
		for _, mention := range extraction.Mentions {
			lower := strings.ToLower(mention.Text)
			score := similarity.TokenSetRatio(variant, lower)
			if !e.thresholds.Accepts(score, variantTokens, similarity.TokenCount(lower)) {
				continue
			}
			if score > bestScore {
				bestScore = score
				best = mention
				bestVariant = variant
			}
		}
	}

	report := e.detector.Detect(profile, document, best)
	final := ApplyPenalty(bestScore, report.PenaltyPoints)
	decision := e.thresholds.Decide(final, report.PenaltyPoints)

	reasons := e.rationale(rationaleInput{
		decision:    decision,
		finalScore:  final,
		bestScore:   bestScore,
		penalty:     report.PenaltyPoints,
		bestPerson:  best.Text,
		bestVariant: bestVariant,
		conflicts:   report.Explanation,
		name:        profile.Name,
	})
	if extraction.Degraded() {
		reasons += " Person names were located by the " + extraction.Extractor + " fallback extractor."
	}

	eval.Best = best
	eval.BestScore = bestScore
	eval.Conflicts = report
	eval.Result = types.Stage1Result{
		Stage:            1,
		Decision:         decision,
		Score:            int(math.Round(final)),
		BestPerson:       best.Text,
		CandidateVariant: bestVariant,
		AllVariants:      set.String(),
		Penalty:          report.PenaltyPoints,
		Reasons:          reasons,
		ExtractionSource: extraction.Source,
	}
	return eval
}

// Stage1 is a convenience wrapper returning only the result.
func (e *Engine) Stage1(ctx context.Context, profile types.CandidateProfile, document string) types.Stage1Result {
	return e.Evaluate(ctx, profile, document).Result
}
