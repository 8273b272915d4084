// Package scoring implements the deterministic Stage 1 pass: it cross-matches name variants against the
// person mentions of a document, applies conflict penalties, and maps the result to a decision.
package scoring

import (
	"fmt"

	"github.com/gurmeharsomal/media-screening-tool/internal/types"
)

// Thresholds tune the acceptance floors and decision bands. Scores are on a 0-100 scale.
type Thresholds struct {
	Match               float64 `json:"match"`                  // minimum penalty-free score for a match
	Review              float64 `json:"review"`                 // scores below are no_match
	SingleToMultiFloor  float64 `json:"single_to_multi_floor"`  // single-token variant vs multi-token mention
	SingleToSingleFloor float64 `json:"single_to_single_floor"` // single-token variant vs single-token mention
}

// DefaultThresholds returns the production decision bands.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Match:               80,
		Review:              60,
		SingleToMultiFloor:  85,
		SingleToSingleFloor: 70,
	}
}

// Validate checks that the bands are ordered and within range.
func (t Thresholds) Validate() error {
	for name, v := range map[string]float64{
		"match": t.Match, "review": t.Review,
		"single_to_multi_floor": t.SingleToMultiFloor, "single_to_single_floor": t.SingleToSingleFloor,
	} {
		if v < 0 || v > 100 {
			return fmt.Errorf("threshold %s must be within 0-100, got %.1f", name, v)
		}
	}
	if t.Review > t.Match {
		return fmt.Errorf("review threshold %.1f exceeds match threshold %.1f", t.Review, t.Match)
	}
	return nil
}

// Accepts reports whether a pair scoring score may be considered for the best match, given the number of
// tokens in the variant and the mention. Single-token variants need a high score so that a first name
// alone does not weakly match a full name.
func (t Thresholds) Accepts(score float64, variantTokens, mentionTokens int) bool {
	if variantTokens == 1 && mentionTokens >= 2 {
		return score >= t.SingleToMultiFloor
	}
	if variantTokens == 1 && mentionTokens == 1 {
		return score >= t.SingleToSingleFloor
	}
	return true
}

// Decide maps a penalty-adjusted score to a decision. Any penalty rules out a clean match.
func (t Thresholds) Decide(finalScore float64, penalty int) string {
	switch {
	case finalScore < t.Review:
		return types.DecisionNoMatch
	case finalScore >= t.Match && penalty == 0:
		return types.DecisionMatch
	default:
		return types.DecisionReview
	}
}

// ApplyPenalty subtracts penalty points from score, never going below zero.
func ApplyPenalty(score float64, penalty int) float64 {
	return max(0, score-float64(penalty))
}
