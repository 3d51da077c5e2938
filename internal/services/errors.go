package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"unishop/internal/models"

	"github.com/go-playground/validator/v10"
)

var (
	// ErrInvalidCredentials hides whether the identifier, role or password was wrong.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrForbidden is returned when the actor may not perform the operation.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidTransition is returned for an order change the current state does not allow.
	ErrInvalidTransition = errors.New("invalid order transition")
	// ErrTerminalStatus is returned for any status change of a delivered or cancelled order.
	ErrTerminalStatus = errors.New("order is in a terminal status")
)

// ValidationError reports bad input. Fields maps field names to messages.
type ValidationError struct {
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, e.Fields[k])
	}
	return e.Message + ": " + strings.Join(parts, "; ")
}

// Invalid returns a ValidationError with a message and no field details.
func Invalid(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// invalidField returns a ValidationError for a single field.
func invalidField(field, message string) error {
	return &ValidationError{Message: "Validation failed", Fields: map[string]string{field: message}}
}

var validate = validator.New()

// validateStruct runs the struct tags of v and converts failures into a
// ValidationError.
func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}
	fields := make(map[string]string, len(validationErrors))
	for _, e := range validationErrors {
		fields[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
	}
	return &ValidationError{Message: "Validation failed", Fields: fields}
}

// Actor is the authenticated caller of an operation, taken from a verified token.
type Actor struct {
	ID   string
	Role models.Role
}

// IsAdmin reports whether the actor is an administrator.
func (a Actor) IsAdmin() bool { return a.Role == models.RoleAdmin }

// CanAccessUser reports whether the actor may read or change userID's data.
func (a Actor) CanAccessUser(userID string) bool {
	return a.ID == userID || a.IsAdmin()
}
