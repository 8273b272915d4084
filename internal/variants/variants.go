package variants

import (
	"strings"
	"unicode/utf8"

	"github.com/gurmeharsomal/media-screening-tool/internal/textutil"
)

// Set is an insertion-ordered set of lowercase name variants.
// Order carries no meaning for matching, but keeps iteration and serialization deterministic.
type Set struct {
	items []string
	index map[string]struct{}
}

func newSet() *Set {
	return &Set{index: make(map[string]struct{})}
}

// add inserts a trimmed variant. Empty strings and duplicates are ignored.
func (s *Set) add(v string) {
	v = strings.TrimSpace(v)
	if v == "" {
		return
	}
	if _, ok := s.index[v]; ok {
		return
	}
	s.index[v] = struct{}{}
	s.items = append(s.items, v)
}

// Contains reports whether v is in the set.
func (s *Set) Contains(v string) bool {
	_, ok := s.index[v]
	return ok
}

// Len returns the number of variants.
func (s *Set) Len() int {
	return len(s.items)
}

// Items returns a copy of the variants in insertion order.
func (s *Set) Items() []string {
	out := make([]string, len(s.items))
	copy(out, s.items)
	return out
}

// String serializes the set as a comma-separated list.
func (s *Set) String() string {
	return strings.Join(s.items, ", ")
}

// Generator expands names using a read-only nickname table.
type Generator struct {
	nicknames Nicknames
}

// NewGenerator creates a generator. A nil table disables nickname substitution.
func NewGenerator(nicknames Nicknames) *Generator {
	return &Generator{nicknames: nicknames}
}

// Generate returns every variant of name. The set always contains the lowercased, trimmed name.
func (g *Generator) Generate(name string) *Set {
	set := newSet()

	base := strings.ToLower(strings.TrimSpace(name))
	set.add(base)

	parts := strings.Fields(base)
	n := len(parts)
	if n == 0 {
		return set
	}
	last := parts[n-1]

	if n >= 2 {
		initials := make([]string, n)
		for i, p := range parts {
			initials[i] = initial(p)
		}
		set.add(strings.Join(initials, " "))
		set.add(strings.Join(initials[:n-1], "") + last)

		set.add(last + ", " + strings.Join(parts[:n-1], " "))
	}

	// Middle names promoted to first name, e.g. "john michael davis" -> "michael davis", "davis, michael".
	if n >= 3 {
		for i := 1; i < n-1; i++ {
			set.add(strings.Join(parts[i:], " "))
			set.add(last + ", " + strings.Join(parts[i:n-1], " "))
		}
	}

	// A lone first name is not substituted: "william" must not become "bill" and then match "Bill Gates".
	if g.nicknames != nil && n >= 2 {
		for i, part := range parts {
			for _, nick := range g.nicknames[part] {
				replaced := make([]string, n)
				copy(replaced, parts)
				replaced[i] = nick
				set.add(strings.Join(replaced, " "))
			}
		}
	}

	if n >= 3 {
		set.add(parts[0] + " " + last)
		set.add(parts[1] + " " + last)
		set.add(last + " " + parts[1])
	}

	if clean := strings.TrimSpace(textutil.StripPunctuation(base)); clean != base {
		set.add(clean)
	}

	if n == 1 {
		set.add(parts[0])
	}

	return set
}

// initial returns the first letter of part followed by a period.
func initial(part string) string {
	r, _ := utf8.DecodeRuneInString(part)
	return string(r) + "."
}
