// Package variants expands a candidate's full name into the textual forms it may appear under in a document.
package variants

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

// RelationshipNickname marks rows of the nickname dataset that map a full name to a nickname.
const RelationshipNickname = "has_nickname"

// Nicknames maps a lowercase first name to its registered nicknames, in dataset order.
// A table is populated once at startup and must not be modified afterwards.
type Nicknames map[string][]string

// Lookup returns the nicknames registered for name, or nil.
func (n Nicknames) Lookup(name string) []string {
	return n[strings.ToLower(strings.TrimSpace(name))]
}

// Len returns the number of full names with at least one nickname.
func (n Nicknames) Len() int {
	return len(n)
}

// DefaultNicknames returns the built-in table used when the dataset cannot be loaded.
func DefaultNicknames() Nicknames {
	return Nicknames{
		"william":     {"bill", "billy", "will", "willy"},
		"robert":      {"bob", "rob", "robby", "bobby"},
		"michael":     {"mike", "mikey", "mick", "mickey"},
		"james":       {"jim", "jimmy", "jamie"},
		"david":       {"dave", "davey"},
		"richard":     {"rick", "ricky", "dick", "dickie"},
		"thomas":      {"tom", "tommy"},
		"christopher": {"chris", "topher"},
		"daniel":      {"dan", "danny"},
		"matthew":     {"matt", "matty"},
		"elizabeth":   {"liz", "lizzy", "beth", "betty", "lisa"},
		"sarah":       {"sally", "sadie"},
		"margaret":    {"maggie", "meg", "peggy"},
		"jennifer":    {"jen", "jenny"},
		"jessica":     {"jess", "jessie"},
		"ashley":      {"ash"},
		"emily":       {"em", "emmy"},
		"samantha":    {"sam", "sammy"},
		"stephanie":   {"steph", "stephie"},
		"nicole":      {"nikki", "nic"},
	}
}

// ParseNicknames reads a CSV dataset with a header row naming the columns name1 (or name), relationship
// and name2. Only rows whose relationship is has_nickname contribute. Duplicate pairs are ignored.
func ParseNicknames(r io.Reader) (Nicknames, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read nickname header: %w", err)
	}

	nameCol, relCol, nickCol := -1, -1, -1
	for i, col := range header {
		switch strings.ToLower(strings.TrimSpace(strings.TrimPrefix(col, "\ufeff"))) {
		case "name1", "name":
			nameCol = i
		case "relationship":
			relCol = i
		case "name2":
			nickCol = i
		}
	}
	if nameCol < 0 || relCol < 0 || nickCol < 0 {
		return nil, fmt.Errorf("nickname header must contain name1, relationship and name2 columns, got %v", header)
	}

	table := make(Nicknames)
	seen := make(map[[2]string]bool)
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read nickname row %d: %w", line, err)
		}
		if len(record) <= max(nameCol, relCol, nickCol) {
			continue
		}
		if strings.TrimSpace(record[relCol]) != RelationshipNickname {
			continue
		}

		full := strings.ToLower(strings.TrimSpace(record[nameCol]))
		nick := strings.ToLower(strings.TrimSpace(record[nickCol]))
		if full == "" || nick == "" || seen[[2]string{full, nick}] {
			continue
		}
		seen[[2]string{full, nick}] = true
		table[full] = append(table[full], nick)
	}

	return table, nil
}

// LoadNicknames reads the nickname dataset at path.
func LoadNicknames(path string) (Nicknames, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open nickname dataset %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	table, err := ParseNicknames(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse nickname dataset %s: %w", path, err)
	}
	return table, nil
}

// LoadNicknamesOrDefault loads the dataset at path, falling back to DefaultNicknames when the file is
// missing, unreadable, or empty. The returned error is informational; the table is always usable.
func LoadNicknamesOrDefault(path string) (Nicknames, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultNicknames(), errors.New("no nickname dataset configured, using built-in table")
	}
	table, err := LoadNicknames(path)
	if err != nil {
		return DefaultNicknames(), err
	}
	if table.Len() == 0 {
		return DefaultNicknames(), fmt.Errorf("nickname dataset %s has no %s rows, using built-in table", path, RelationshipNickname)
	}
	return table, nil
}

// Names returns the full names in the table in sorted order.
func (n Nicknames) Names() []string {
	names := make([]string, 0, len(n))
	for name := range n {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
