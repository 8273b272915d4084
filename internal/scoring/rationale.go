package scoring

import (
	"fmt"
	"strings"

	"github.com/gurmeharsomal/media-screening-tool/internal/types"
)

type rationaleInput struct {
	decision    string
	finalScore  float64
	bestScore   float64
	penalty     int
	bestPerson  string
	bestVariant string
	conflicts   string
	name        string
}

// rationale renders the plain-English explanation for a decision from fixed templates.
func (e *Engine) rationale(in rationaleInput) string {
	t := e.thresholds
	var s string

	switch in.decision {
	case types.DecisionNoMatch:
		switch {
		case in.bestPerson == "":
			s = "No person names found in the article that match the candidate."
		case in.bestScore >= t.Review:
			s = fmt.Sprintf("Despite a good name match ('%s', %.1f%%), conflicts reduced the score to %.1f, below the %.0f%% threshold: %s",
				in.bestPerson, in.bestScore, in.finalScore, t.Review, in.conflicts)
		default:
			s = fmt.Sprintf("The best name match found was '%s' with a similarity score of %.1f%%, which is below the %.0f%% threshold. %s",
				in.bestPerson, in.bestScore, t.Review, in.conflicts)
		}

	case types.DecisionMatch:
		if in.bestVariant != strings.ToLower(in.name) {
			s = fmt.Sprintf("Strong match found: '%s' matches the candidate's name variant '%s' with %.1f%% similarity. No conflicts detected.",
				in.bestPerson, in.bestVariant, in.bestScore)
		} else {
			s = fmt.Sprintf("Strong match found: '%s' matches the candidate's name '%s' with %.1f%% similarity. No conflicts detected.",
				in.bestPerson, in.name, in.bestScore)
		}

	default:
		if in.penalty > 0 {
			s = fmt.Sprintf("Borderline case: '%s' matches '%s' with %.1f%% similarity, but conflicts were detected: %s Sending to Stage 2 for further analysis.",
				in.bestPerson, in.bestVariant, in.bestScore, in.conflicts)
		} else {
			s = fmt.Sprintf("Borderline case: '%s' matches '%s' with %.1f%% similarity, which is between %.0f-%.0f%%. Sending to Stage 2 for further analysis.",
				in.bestPerson, in.bestVariant, in.bestScore, t.Review, t.Match)
		}
	}

	return strings.TrimSpace(s)
}
