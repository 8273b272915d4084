// Package screening sequences the two screening stages into a single verdict.
package screening

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/gurmeharsomal/media-screening-tool/internal/scoring"
	"github.com/gurmeharsomal/media-screening-tool/internal/textutil"
	"github.com/gurmeharsomal/media-screening-tool/internal/types"
	"github.com/gurmeharsomal/media-screening-tool/internal/validation"
)

// Defaults for the orchestrator.
const (
	DefaultAcceptConfidence = 0.82
	DefaultExcerptWindow    = 500
)

// ErrInternal is returned when screening could not produce a verdict.
var ErrInternal = errors.New("internal screening error")

// Orchestrator runs Stage 1 and escalates review decisions to Stage 2.
type Orchestrator struct {
	engine           *scoring.Engine
	validator        validation.Validator
	acceptConfidence float64
	excerptWindow    int
	logger           *zap.SugaredLogger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithAcceptConfidence sets the Stage 2 confidence required to accept a match.
func WithAcceptConfidence(c float64) Option {
	return func(o *Orchestrator) { o.acceptConfidence = c }
}

// WithExcerptWindow sets how much of the document around the best mention is sent to Stage 2.
func WithExcerptWindow(size int) Option {
	return func(o *Orchestrator) {
		if size > 0 {
			o.excerptWindow = size
		}
	}
}

// WithLogger sets the orchestrator logger.
func WithLogger(logger *zap.SugaredLogger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// New creates an orchestrator. A nil validator fails every escalation closed.
func New(engine *scoring.Engine, validator validation.Validator, opts ...Option) *Orchestrator {
	if validator == nil {
		validator = validation.Unavailable{}
	}
	o := &Orchestrator{
		engine:           engine,
		validator:        validator,
		acceptConfidence: DefaultAcceptConfidence,
		excerptWindow:    DefaultExcerptWindow,
		logger:           zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Screen decides whether document is about profile. It returns an error only for invalid input or an
// unexpected internal failure; Stage 2 problems are folded into the verdict.
func (o *Orchestrator) Screen(ctx context.Context, profile types.CandidateProfile, document string) (verdict types.FinalVerdict, err error) {
	if err := profile.Validate(); err != nil {
		return types.FinalVerdict{}, err
	}

	defer func() {
		if r := recover(); r != nil {
			o.logger.Errorw("screening panicked", "panic", r)
			verdict, err = types.FinalVerdict{}, fmt.Errorf("%w: %v", ErrInternal, r)
		}
	}()

	eval := o.engine.Evaluate(ctx, profile, document)
	stage1 := eval.Result

	if stage1.Decision != types.DecisionReview {
		o.logger.Infow("stage 1 decision", "decision", stage1.Decision, "score", stage1.Score, "penalty", stage1.Penalty)
		return types.FinalVerdict{
			Decision:    stage1.Decision,
			Stage:       1,
			Score:       stage1.Score,
			Explanation: stage1Explanation(stage1),
			Details:     types.VerdictDetails{Stage1: stage1},
		}, nil
	}

	req := validation.Request{
		Profile:             profile,
		Excerpt:             o.excerpt(eval),
		Stage1:              stage1,
		ExtractedNames:      eval.Extraction.Names(),
		DOBConflicts:        eval.Conflicts.DOBConflict,
		OccupationConflicts: eval.Conflicts.Occupation,
	}
	stage2 := o.validator.Validate(ctx, req)

	decision := types.DecisionNoMatch
	if stage2.Decision == types.DecisionMatch && stage2.Confidence >= o.acceptConfidence {
		decision = types.DecisionMatch
	}
	o.logger.Infow("stage 2 decision",
		"decision", decision,
		"confidence", stage2.Confidence,
		"stage1_score", stage1.Score,
		"failed", stage2.Failed())

	confidence := stage2.Confidence
	return types.FinalVerdict{
		Decision:    decision,
		Stage:       2,
		Score:       stage1.Score,
		Confidence:  &confidence,
		Explanation: stage2Explanation(decision, stage2),
		Details:     types.VerdictDetails{Stage1: stage1, Stage2: &stage2},
	}, nil
}

// excerpt returns the window of the document centred on the best mention, or its prefix when the
// mention cannot be located.
func (o *Orchestrator) excerpt(eval *scoring.Evaluation) string {
	if eval.Best.Offset < 0 {
		return textutil.WindowAround(eval.Document, eval.Best.Text, o.excerptWindow)
	}
	return textutil.Window(eval.Document, eval.Best.Offset, eval.Best.End(), o.excerptWindow)
}

func stage1Explanation(r types.Stage1Result) string {
	s := fmt.Sprintf("Stage 1: %s (score: %d). %s", r.Decision, r.Score, r.Reasons)
	if r.Penalty > 0 {
		s += fmt.Sprintf(" Penalty applied: %d points.", r.Penalty)
	}
	return s
}

func stage2Explanation(decision string, r types.Stage2Result) string {
	if decision == types.DecisionMatch {
		return fmt.Sprintf("Stage 2: match with %.2f confidence. %s", r.Confidence, r.Reasons)
	}
	return fmt.Sprintf("Stage 2: no_match (confidence: %.2f). %s", r.Confidence, r.Reasons)
}
