package conflict

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/gurmeharsomal/media-screening-tool/internal/textutil"
	"github.com/gurmeharsomal/media-screening-tool/internal/types"
)

// Penalty points applied per conflict type.
const (
	DOBPenalty                      = 30
	OccupationConflictPenalty       = 40
	OccupationUncorroboratedPenalty = 20
)

// Defaults for the detector.
const (
	DefaultAgeTolerance  = 2   // years between implied and stated birth year before it counts as a conflict
	DefaultContextWindow = 200 // bytes of document around the matched mention inspected for occupation
	minOccupationWordLen = 3
)

// agePatterns capture an age in years from lowercased text, most specific first.
var agePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b(\d{1,2})\s*(?:years?\s*old|yo\b|year-old|years?-old|-year-old)`),
	regexp.MustCompile(`\bage\s*of\s*(\d{1,2})\b`),
	regexp.MustCompile(`\b(\d{1,2})\s*yo\b`),
	regexp.MustCompile(`\b(\d{1,2})\s*years?\b`),
}

// Detector inspects a document for age and occupation contradictions.
// It is safe for concurrent use; the table is never modified.
type Detector struct {
	table        *Table
	now          func() time.Time
	ageTolerance int
	window       int
}

// Option configures a Detector.
type Option func(*Detector)

// WithClock sets the source of the current year used to turn ages into birth years.
func WithClock(now func() time.Time) Option {
	return func(d *Detector) { d.now = now }
}

// WithContextWindow sets the size of the occupation context window.
func WithContextWindow(size int) Option {
	return func(d *Detector) {
		if size > 0 {
			d.window = size
		}
	}
}

// NewDetector creates a detector over table. A nil table uses DefaultTable.
func NewDetector(table *Table, opts ...Option) *Detector {
	if table == nil {
		table = DefaultTable()
	}
	d := &Detector{
		table:        table,
		now:          time.Now,
		ageTolerance: DefaultAgeTolerance,
		window:       DefaultContextWindow,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Detect compares profile against document around the best-matched mention. Penalties from the age and
// occupation checks add up. Detect never fails; unparseable ages are skipped.
func (d *Detector) Detect(profile types.CandidateProfile, document string, best types.PersonMention) types.ConflictReport {
	var report types.ConflictReport

	if dob := d.checkAge(profile, document); dob != "" {
		report.PenaltyPoints += DOBPenalty
		report.DOBConflict = dob
	}

	if profile.HasOccupation() {
		penalty, explanation := d.checkOccupation(profile, document, best)
		report.PenaltyPoints += penalty
		report.Occupation = explanation
	}

	var parts []string
	for _, s := range []string{report.DOBConflict, report.Occupation} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	report.Explanation = strings.Join(parts, " ")
	return report
}

// checkAge returns a conflict explanation for the first age expression implying a birth year at least
// ageTolerance years away from the candidate's, or "" when there is none.
func (d *Detector) checkAge(profile types.CandidateProfile, document string) string {
	birthYear, ok := profile.BirthYear()
	if !ok {
		return ""
	}

	lower := strings.ToLower(document)
	currentYear := d.now().Year()
	for _, re := range agePatterns {
		for _, m := range re.FindAllStringSubmatch(lower, -1) {
			age, err := strconv.Atoi(m[1])
			if err != nil {
				continue
			}
			implied := currentYear - age
			if abs(implied-birthYear) >= d.ageTolerance {
				return fmt.Sprintf("DOB conflict: candidate born %d, article suggests %d.", birthYear, implied)
			}
		}
	}
	return ""
}

// checkOccupation looks for indicators of an incompatible profession near the mention, and otherwise for
// corroboration of the candidate's own occupation.
func (d *Detector) checkOccupation(profile types.CandidateProfile, document string, best types.PersonMention) (int, string) {
	occupation := strings.TrimSpace(profile.Occupation)
	excerpt := d.contextFor(document, best)
	lower := strings.ToLower(excerpt)

	contextWords := make(map[string]bool)
	for _, w := range textutil.Words(excerpt) {
		contextWords[w] = true
	}
	occupationWords := textutil.Words(occupation)

	corroborated := false
	skip := make(map[string]bool)
	for _, w := range occupationWords {
		skip[w] = true
		if len([]rune(w)) >= minOccupationWordLen && contextWords[w] {
			corroborated = true
		}
	}

	roles := d.table.RolesFor(occupation)
	compatible := make(map[string]bool)
	for _, role := range roles {
		compatible[role.Name] = true
		for _, rel := range role.Related {
			compatible[strings.ToLower(rel)] = true
		}
	}
	for name := range compatible {
		p := d.table.Profession(name)
		if p == nil {
			continue
		}
		for _, ind := range p.Indicators {
			skip[strings.ToLower(ind)] = true
		}
		if p.ContainsAny(lower) && contains(roles, p) {
			corroborated = true
		}
	}

	var conflicting []string
	if len(roles) > 0 {
		found := make(map[string]bool)
		for i := range d.table.Professions {
			p := &d.table.Professions[i]
			if compatible[p.Name] {
				continue
			}
			if ind := p.FindIndicator(lower, skip); ind != "" && !found[ind] {
				found[ind] = true
				conflicting = append(conflicting, ind)
			}
		}
	}

	person := best.Text
	switch {
	case len(conflicting) > 0:
		return OccupationConflictPenalty, fmt.Sprintf(
			"Occupation conflict: candidate is '%s' but context around '%s' suggests different profession (found: %s).",
			occupation, person, strings.Join(conflicting, ", "))
	case !corroborated:
		return OccupationUncorroboratedPenalty, fmt.Sprintf(
			"Occupation '%s' not found in context around '%s'.", occupation, person)
	default:
		return 0, ""
	}
}

// contextFor returns the window around the mention, or the document prefix when it was not located.
func (d *Detector) contextFor(document string, best types.PersonMention) string {
	if best.Text == "" || best.Offset < 0 {
		return textutil.Prefix(document, d.window)
	}
	return textutil.Window(document, best.Offset, best.End(), d.window)
}

func contains(roles []*Profession, p *Profession) bool {
	for _, r := range roles {
		if r == p {
			return true
		}
	}
	return false
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
