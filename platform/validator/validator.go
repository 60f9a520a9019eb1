// Package validator provides validation infrastructure for the application.
// This is part of the platform layer and contains no business logic.
package validator

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator wraps the go-playground validator for structured validation.
// Using a struct allows for dependency injection and easier testing.
type Validator struct {
	v *validator.Validate
}

// Option customizes a new Validator.
type Option func(v *validator.Validate)

// Enum registers tag as a closed set of string values. Matching ignores case and
// surrounding whitespace.
func Enum[T ~string](tag string, values ...T) Option {
	allowed := make(map[string]struct{}, len(values))
	for _, value := range values {
		allowed[strings.ToUpper(string(value))] = struct{}{}
	}
	return func(v *validator.Validate) {
		// registration only fails for an empty tag or a nil func
		_ = v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			_, ok := allowed[strings.ToUpper(strings.TrimSpace(fl.Field().String()))]
			return ok
		})
	}
}

// New creates a new Validator instance.
func New(opts ...Option) *Validator {
	v := validator.New()
	for _, opt := range opts {
		opt(v)
	}
	return &Validator{v: v}
}

// Struct validates a struct based on validation tags.
func (val *Validator) Struct(s interface{}) error {
	return val.v.Struct(s)
}

// Var validates a single variable against a tag.
func (val *Validator) Var(field interface{}, tag string) error {
	return val.v.Var(field, tag)
}

// RegisterValidation registers a custom validation function.
func (val *Validator) RegisterValidation(tag string, fn validator.Func) error {
	return val.v.RegisterValidation(tag, fn)
}
