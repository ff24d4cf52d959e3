package handler

import "github.com/apiusers/user-service/internal/core/validation"

// Request bodies are the validation payloads; the rules live with them.
type (
	createUserRequest = validation.CreateUserPayload
	updateUserRequest = validation.UpdateUserPayload
)

// userView is the public representation of a user. The password never
// leaves the service.
type userView struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Active bool   `json:"active"`
}

// messageResponse is the envelope of every non-validation error.
type messageResponse struct {
	Message string `json:"message"`
}

// validationErrorResponse is returned with 400 when field rules fail.
type validationErrorResponse struct {
	Message string                 `json:"message"`
	Errors  []validation.Violation `json:"errors"`
}
