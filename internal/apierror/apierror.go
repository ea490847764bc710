// Package apierror provides the error taxonomy shared by services and handlers.
// All errors returned to clients go through this package to ensure consistency
// and to prevent leaking internal details (stack traces, DB errors, etc.).
package apierror

import "fmt"

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
type APIError struct {
	Detail string `json:"detail"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// ValidationError signals that caller input failed a required-field or
// type/range check. Never retried automatically.
type ValidationError struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "validation failed", Fields: fields}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Detail, e.Fields)
}

// NotFoundError signals that an id or partNumber matched no record.
type NotFoundError struct {
	Resource string `json:"-"`
	Detail   string `json:"detail"`
}

func NewNotFound(resource string) *NotFoundError {
	return &NotFoundError{Resource: resource, Detail: resource + " not found"}
}

func (e *NotFoundError) Error() string { return e.Detail }

// ConflictError signals a uniqueness violation (part number assigned twice
// under concurrent creation). The create path retries a bounded number of
// times before surfacing it.
type ConflictError struct {
	Detail string `json:"detail"`
}

func NewConflict(msg string) *ConflictError {
	return &ConflictError{Detail: msg}
}

func (e *ConflictError) Error() string { return e.Detail }
