// Package schemas checks structured LLM responses against embedded JSON Schemas before they are decoded.
package schemas

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// Names of the embedded schemas.
const (
	Stage2Response = "stage2_response"
	PersonNames    = "person_names"
)

const rootField = "(root)"

//go:embed definitions/*.json
var definitions embed.FS

var (
	cacheMu sync.Mutex
	cache   = map[string]*gojsonschema.Schema{}
)

// FieldError is one schema violation.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError lists every violation found in a document.
type ValidationError struct {
	Schema string
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return fmt.Sprintf("%s: %s", e.Schema, strings.Join(parts, "; "))
}

// SchemaLoadError reports a schema that is missing or does not compile.
type SchemaLoadError struct {
	Name  string
	Cause error
}

func (e *SchemaLoadError) Error() string {
	return fmt.Sprintf("schema %s: %v", e.Name, e.Cause)
}

func (e *SchemaLoadError) Unwrap() error { return e.Cause }

// Names lists the embedded schemas.
func Names() []string {
	entries, _ := fs.ReadDir(definitions, "definitions")
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), path.Ext(e.Name())))
	}
	sort.Strings(names)
	return names
}

// Source returns the raw text of the embedded schema called name.
func Source(name string) (string, error) {
	data, err := definitions.ReadFile(path.Join("definitions", name+".json"))
	if err != nil {
		return "", &SchemaLoadError{Name: name, Cause: fmt.Errorf("unknown schema: %w", err)}
	}
	return string(data), nil
}

// Validate checks document against the embedded schema called name. Invalid JSON is reported as
// a *ValidationError on the root.
func Validate(name, document string) error {
	schema, err := compile(name)
	if err != nil {
		return err
	}

	result, err := schema.Validate(gojsonschema.NewStringLoader(document))
	if err != nil {
		return &ValidationError{Schema: name, Errors: []FieldError{{Field: rootField, Message: err.Error()}}}
	}
	if result.Valid() {
		return nil
	}

	verr := &ValidationError{Schema: name}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = rootField
		}
		verr.Errors = append(verr.Errors, FieldError{Field: field, Message: desc.Description()})
	}
	return verr
}

func compile(name string) (*gojsonschema.Schema, error) {
	cacheMu.Lock()
	defer cacheMu.Unlock()
	if schema, ok := cache[name]; ok {
		return schema, nil
	}

	src, err := Source(name)
	if err != nil {
		return nil, err
	}
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		return nil, &SchemaLoadError{Name: name, Cause: err}
	}
	cache[name] = schema
	return schema, nil
}
