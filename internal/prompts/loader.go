// Package prompts loads the embedded LLM prompt templates.
//
// Each JSON file maps a prompt key to its text. Templates mark substitutions as {{.Key}}; validation.json
// holds the Stage 2 identity validation prompts.
package prompts

import (
	"embed"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
)

//go:embed *.json
var promptFiles embed.FS

var (
	files   = make(map[string]map[string]string)
	filesMu sync.RWMutex
)

// placeholder matches {{.Key}} template markers.
var placeholder = regexp.MustCompile(`\{\{\.(\w+)\}\}`)

// Template is a named prompt with {{.Key}} placeholders.
type Template struct {
	Name string
	Text string
	keys []string
}

// Load returns the template stored under key in filename (e.g. "validation.json").
func Load(filename, key string) (*Template, error) {
	text, err := Get(filename, key)
	if err != nil {
		return nil, err
	}
	return New(filename+"#"+key, text), nil
}

// New wraps text as a template.
func New(name, text string) *Template {
	t := &Template{Name: name, Text: text}
	seen := make(map[string]bool)
	for _, m := range placeholder.FindAllStringSubmatch(text, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			t.keys = append(t.keys, m[1])
		}
	}
	return t
}

// Keys returns the distinct placeholder names in order of first appearance.
func (t *Template) Keys() []string {
	return append([]string(nil), t.keys...)
}

// Render substitutes every placeholder. It fails when data lacks a value for any of them, so a template
// and the code filling it cannot drift apart silently.
func (t *Template) Render(data map[string]string) (string, error) {
	var missing []string
	for _, k := range t.keys {
		if _, ok := data[k]; !ok {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return "", fmt.Errorf("prompt %s: no value for %s", t.Name, strings.Join(missing, ", "))
	}
	return Format(t.Text, data), nil
}

// Format replaces {{.Key}} placeholders with values from data in a single pass, so values that contain
// placeholders are inserted verbatim. Placeholders without a value are left in place.
func Format(template string, data map[string]string) string {
	return placeholder.ReplaceAllStringFunc(template, func(m string) string {
		if value, ok := data[m[3:len(m)-2]]; ok {
			return value
		}
		return m
	})
}

// Get returns the raw prompt text stored under key in filename.
func Get(filename, key string) (string, error) {
	prompts, err := loadFile(filename)
	if err != nil {
		return "", err
	}
	prompt, ok := prompts[key]
	if !ok {
		return "", fmt.Errorf("prompt key %q not found in %s", key, filename)
	}
	return prompt, nil
}

// MustGet is Get for prompts required at startup. It panics on error.
func MustGet(filename, key string) string {
	prompt, err := Get(filename, key)
	if err != nil {
		panic(fmt.Sprintf("failed to load prompt: %v", err))
	}
	return prompt
}

// List returns the prompt keys in filename, sorted.
func List(filename string) ([]string, error) {
	prompts, err := loadFile(filename)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(prompts))
	for key := range prompts {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}

// ClearCache drops parsed files so the next lookup re-reads them.
func ClearCache() {
	filesMu.Lock()
	files = make(map[string]map[string]string)
	filesMu.Unlock()
}

func loadFile(filename string) (map[string]string, error) {
	filesMu.RLock()
	prompts, ok := files[filename]
	filesMu.RUnlock()
	if ok {
		return prompts, nil
	}

	data, err := promptFiles.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompt file %s: %w", filename, err)
	}
	if err := json.Unmarshal(data, &prompts); err != nil {
		return nil, fmt.Errorf("failed to parse prompt file %s: %w", filename, err)
	}

	filesMu.Lock()
	files[filename] = prompts
	filesMu.Unlock()
	return prompts, nil
}
