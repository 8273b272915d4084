package types

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// MatchRequest is the body accepted by POST /match.
type MatchRequest struct {
	Candidate CandidateProfile `json:"candidate"`
	Article   string           `json:"article" validate:"required,notblank"`
}

// MatchResponse is the body returned by POST /match.
type MatchResponse = FinalVerdict

var validate = newValidator()

// customValidations are the tags registered on top of the validator built-ins.
var customValidations = map[string]validator.Func{
	"notblank": func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	},
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their JSON names so API errors match the request body.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	if err := registerValidations(v, customValidations); err != nil {
		panic(fmt.Sprintf("request validator is invalid: %v", err))
	}
	return v
}

func registerValidations(v *validator.Validate, funcs map[string]validator.Func) error {
	for tag, fn := range funcs {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("failed to register %q: %w", tag, err)
		}
	}
	return nil
}

// Validate validates the MatchRequest using the validator.
func (r *MatchRequest) Validate() error {
	return validate.Struct(r)
}

// Validate validates the CandidateProfile using the validator.
func (c *CandidateProfile) Validate() error {
	return validate.Struct(c)
}
