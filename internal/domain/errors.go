package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across the service, repository, and boundary layers.
var (
	ErrNotFound             = errors.New("not found")
	ErrInvalidSex           = errors.New("invalid sex")
	ErrInvalidSmokingStatus = errors.New("invalid smoking status")
	ErrInvalidGrade         = errors.New("invalid recommendation grade")
	ErrInvalidProfile       = errors.New("invalid patient profile")
	ErrCacheUnavailable     = errors.New("cache unavailable")
)

// Error codes for structured API error responses.
const (
	ErrCodeInvalidInput = "INVALID_INPUT"
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeDatabase     = "DATABASE_ERROR"
	ErrCodeRateLimit    = "RATE_LIMIT_EXCEEDED"
	ErrCodeInternal     = "INTERNAL_SERVER_ERROR"
)

// ValidationError reports a rejected intake field. Value carries the raw
// text as submitted, since every intake field is a string before parsing.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Value   string `json:"value,omitempty"`
}

func (e *ValidationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s (got %q)", e.Field, e.Message, e.Value)
}

// NewValidationError builds a ValidationError for the given field.
func NewValidationError(field, message, value string) *ValidationError {
	return &ValidationError{Field: field, Message: message, Value: value}
}
