// Package types provides the data model shared by the screening pipeline, the HTTP API, and the CLI.
package types

import (
	"strconv"
	"strings"
)

// Decision values produced by the two screening stages.
const (
	DecisionMatch   = "match"
	DecisionNoMatch = "no_match"
	DecisionReview  = "review"
)

// Extraction sources recorded on a Stage1Result.
const (
	ExtractionPrimary  = "primary"
	ExtractionFallback = "fallback"
	ExtractionNone     = "none"
)

// CandidateProfile is the individual a document is screened against.
type CandidateProfile struct {
	Name       string `json:"name" validate:"required,notblank"`
	DOB        string `json:"dob,omitempty"`        // YYYY-MM-DD; only the year is significant
	Occupation string `json:"occupation,omitempty"` // Free text job title
}

// BirthYear returns the year encoded in the leading four characters of DOB.
// The second return value is false when DOB is absent or does not start with a year.
func (c CandidateProfile) BirthYear() (int, bool) {
	dob := strings.TrimSpace(c.DOB)
	if len(dob) < 4 {
		return 0, false
	}
	year, err := strconv.Atoi(dob[:4])
	if err != nil || year <= 0 {
		return 0, false
	}
	return year, true
}

// HasOccupation reports whether an occupation was supplied.
func (c CandidateProfile) HasOccupation() bool {
	return strings.TrimSpace(c.Occupation) != ""
}

// PersonMention is a person name located in a document.
// Offset is the byte offset of its first case-insensitive occurrence, or -1 if it could not be located.
type PersonMention struct {
	Text   string `json:"text"`
	Offset int    `json:"offset"`
}

// End returns the byte offset just past the mention, or -1 if the mention was not located.
func (m PersonMention) End() int {
	if m.Offset < 0 {
		return -1
	}
	return m.Offset + len(m.Text)
}

// ConflictReport holds the biographical contradictions found between a profile and a document.
type ConflictReport struct {
	PenaltyPoints int    `json:"penalty_points"`
	Explanation   string `json:"explanation"`
	DOBConflict   string `json:"dob_conflict,omitempty"`
	Occupation    string `json:"occupation_conflict,omitempty"`
}

// HasConflict reports whether any penalty was applied.
func (r ConflictReport) HasConflict() bool {
	return r.PenaltyPoints > 0
}

// Stage1Result is the output of the deterministic name-matching pass.
type Stage1Result struct {
	Stage            int    `json:"stage"`
	Decision         string `json:"decision"`
	Score            int    `json:"score"`
	BestPerson       string `json:"best_person"`
	CandidateVariant string `json:"candidate_variant"`
	AllVariants      string `json:"all_variants"`
	Penalty          int    `json:"penalty"`
	Reasons          string `json:"reasons"`
	ExtractionSource string `json:"extraction_source"`
}

// Stage2Result is the output of the semantic validator.
// Error is set when validation failed and the result is the fail-closed default.
type Stage2Result struct {
	Decision         string  `json:"decision"`
	Confidence       float64 `json:"confidence"`
	EvidenceSentence string  `json:"evidence_sentence"`
	Reasons          string  `json:"reasons"`
	Error            string  `json:"error,omitempty"`
}

// Failed reports whether the result is a fail-closed default.
func (r Stage2Result) Failed() bool {
	return r.Error != ""
}

// VerdictDetails carries the raw results of each stage that ran.
type VerdictDetails struct {
	Stage1 Stage1Result  `json:"stage1"`
	Stage2 *Stage2Result `json:"stage2,omitempty"`
}

// FinalVerdict is the reconciled answer returned to callers.
type FinalVerdict struct {
	Decision    string         `json:"decision"`
	Stage       int            `json:"stage"`
	Score       int            `json:"score"`
	Confidence  *float64       `json:"confidence"`
	Explanation string         `json:"explanation"`
	Details     VerdictDetails `json:"details"`
}
