package handler

import (
	"github.com/apiusers/user-service/internal/core/validation"
)

// echoValidator lets Echo run the user payload rules through c.Validate(req).
type echoValidator struct{}

// NewValidator returns an echoValidator ready to be assigned to echo.Echo.Validator.
func NewValidator() *echoValidator {
	return &echoValidator{}
}

// Validate satisfies the echo.Validator interface. A rejected payload comes
// back as *validation.Error carrying one violation per failing field.
func (ev *echoValidator) Validate(i any) error {
	if violations := validation.Check(i); len(violations) > 0 {
		return &validation.Error{Violations: violations}
	}
	return nil
}
