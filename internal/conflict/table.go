// Package conflict detects biographical contradictions between a candidate profile and a document.
package conflict

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

//go:embed professions.yaml
var defaultProfessions []byte

// Profession is one entry of the compatibility table.
type Profession struct {
	Name       string   `yaml:"name"`
	Aliases    []string `yaml:"aliases"`
	Indicators []string `yaml:"indicators"`
	Related    []string `yaml:"related"`

	aliasPatterns     []*regexp.Regexp
	indicatorPatterns []*regexp.Regexp
}

// Table maps broad roles to the terms compatible with them. Order is preserved from the source so that
// conflict explanations are deterministic.
type Table struct {
	Professions []Profession `yaml:"professions"`

	byName map[string]*Profession
}

// ParseTable decodes and compiles a YAML compatibility table.
func ParseTable(data []byte) (*Table, error) {
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to parse profession table: %w", err)
	}
	if len(t.Professions) == 0 {
		return nil, fmt.Errorf("profession table has no entries")
	}

	t.byName = make(map[string]*Profession, len(t.Professions))
	for i := range t.Professions {
		p := &t.Professions[i]
		p.Name = strings.ToLower(strings.TrimSpace(p.Name))
		if p.Name == "" {
			return nil, fmt.Errorf("profession %d has no name", i)
		}
		if _, dup := t.byName[p.Name]; dup {
			return nil, fmt.Errorf("profession %q is defined twice", p.Name)
		}
		t.byName[p.Name] = p

		// The name itself always identifies the profession.
		for _, alias := range append([]string{p.Name}, p.Aliases...) {
			p.aliasPatterns = append(p.aliasPatterns, termPattern(alias))
		}
		for _, indicator := range p.Indicators {
			p.indicatorPatterns = append(p.indicatorPatterns, termPattern(indicator))
		}
	}
	return &t, nil
}

// DefaultTable returns the embedded compatibility table.
func DefaultTable() *Table {
	t, err := ParseTable(defaultProfessions)
	if err != nil {
		panic(fmt.Sprintf("embedded profession table is invalid: %v", err))
	}
	return t
}

// LoadTable reads a YAML compatibility table from path.
func LoadTable(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profession table %s: %w", path, err)
	}
	return ParseTable(data)
}

// RolesFor returns the professions whose name or aliases occur as words in occupation.
func (t *Table) RolesFor(occupation string) []*Profession {
	occupation = strings.ToLower(occupation)
	var roles []*Profession
	for i := range t.Professions {
		p := &t.Professions[i]
		for _, re := range p.aliasPatterns {
			if re.MatchString(occupation) {
				roles = append(roles, p)
				break
			}
		}
	}
	return roles
}

// Profession returns the entry with the given name, or nil.
func (t *Table) Profession(name string) *Profession {
	return t.byName[strings.ToLower(name)]
}

// FindIndicator returns the first indicator of p present in text (lowercased by the caller), or "".
// Indicators listed in skip are ignored.
func (p *Profession) FindIndicator(text string, skip map[string]bool) string {
	for i, re := range p.indicatorPatterns {
		term := strings.ToLower(p.Indicators[i])
		if skip[term] {
			continue
		}
		if re.MatchString(text) {
			return term
		}
	}
	return ""
}

// ContainsAny reports whether any alias or indicator of p occurs in text.
func (p *Profession) ContainsAny(text string) bool {
	for _, re := range p.aliasPatterns {
		if re.MatchString(text) {
			return true
		}
	}
	return p.FindIndicator(text, nil) != ""
}

// termPattern matches term case-insensitively, anchored at word boundaries where the term starts or ends
// with a word character, so "dr." matches "Dr. Smith" and "judge" does not match "judgement".
func termPattern(term string) *regexp.Regexp {
	term = strings.ToLower(strings.TrimSpace(term))
	pattern := regexp.QuoteMeta(term)
	if first, _ := utf8.DecodeRuneInString(term); isWordRune(first) {
		pattern = `\b` + pattern
	}
	if last, _ := utf8.DecodeLastRuneInString(term); isWordRune(last) {
		pattern += `\b`
	}
	return regexp.MustCompile("(?i)" + pattern)
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
