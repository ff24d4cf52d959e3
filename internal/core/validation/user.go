// Package validation holds the field rules for user payloads. The rules run
// without any HTTP machinery so they can be exercised directly.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

// CreateUserPayload is the body of POST /users.
type CreateUserPayload struct {
	Name     string `json:"name"     validate:"notblank,min=3,max=100"`
	Email    string `json:"email"    validate:"notblank,trimmed_email"`
	Password string `json:"password" validate:"notblank,min=6"`
}

// UpdateUserPayload is the body of PUT /users/:id.
type UpdateUserPayload struct {
	Name   string `json:"name"   validate:"notblank,min=3,max=100"`
	Email  string `json:"email"  validate:"notblank,trimmed_email"`
	Active *bool  `json:"active"`
}

// IsActive reports the requested flag. An omitted flag means active.
func (p UpdateUserPayload) IsActive() bool {
	return p.Active == nil || *p.Active
}

// Violation is a single failed rule on a single field.
type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error wraps the violations of a rejected payload.
type Error struct {
	Violations []Violation
}

func (e *Error) Error() string {
	msgs := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		msgs = append(msgs, v.Message)
	}
	return strings.Join(msgs, "; ")
}

// CheckCreate returns the violations of a create payload, nil when valid.
func CheckCreate(p CreateUserPayload) []Violation {
	return Check(p)
}

// CheckUpdate returns the violations of an update payload, nil when valid.
func CheckUpdate(p UpdateUserPayload) []Violation {
	return Check(p)
}

// Check runs the tag rules of any payload struct (or pointer to one).
// Each field reports at most its first failing rule.
func Check(payload any) []Violation {
	err := engine().Struct(payload)
	if err == nil {
		return nil
	}

	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return []Violation{{Message: err.Error()}}
	}

	out := make([]Violation, 0, len(ve))
	for _, fe := range ve {
		out = append(out, Violation{Field: fe.Field(), Message: message(fe)})
	}
	return out
}

var (
	once sync.Once
	std  *validator.Validate
)

func engine() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})

		// Syntax is checked on the trimmed value; surrounding blanks are
		// dropped later by email normalization.
		syntax := validator.New()
		mustRegister(v, "notblank", validators.NotBlank)
		mustRegister(v, "trimmed_email", func(fl validator.FieldLevel) bool {
			return syntax.Var(strings.TrimSpace(fl.Field().String()), "required,email") == nil
		})
		std = v
	})
	return std
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("validation: register %q: %v", tag, err))
	}
}

func message(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "notblank", "required":
		return field + " is required"
	case "trimmed_email", "email":
		return field + " must be a valid email"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed validation (%s)", field, fe.Tag())
	}
}
