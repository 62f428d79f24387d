package domain

import (
	"errors"
	"fmt"
)

var (
	ErrBackendUnreachable = errors.New("backend unreachable")
	ErrRecordNotFound     = errors.New("record not found")
)

// Rejection classifies a backend answer that is returned to the caller as
// data rather than raised.
type Rejection string

const (
	RejectedValidation Rejection = "validation"
	RejectedAuth       Rejection = "auth"
	RejectedConflict   Rejection = "conflict"
	RejectedOther      Rejection = "rejected"
)

// FieldError is one entry of the backend's structured validation errors.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// RejectedError carries a backend refusal: validation, auth or conflict, or a
// 2xx answer whose envelope reports success=false.
type RejectedError struct {
	Kind    Rejection
	Status  int
	Message string
	Fields  []FieldError
}

func (e *RejectedError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s rejected (status %d)", e.Kind, e.Status)
	}
	return e.Message
}

// UnreachableError carries the user-facing message of a request that never
// completed.
type UnreachableError struct {
	Message string
}

func (e *UnreachableError) Error() string { return e.Message }

func (e *UnreachableError) Unwrap() error { return ErrBackendUnreachable }

// ServerError is a completed backend answer outside the handled status
// classes (5xx, 404, ...). It is raised to the caller.
type ServerError struct {
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("HTTP error! status: %d", e.Status)
}
