package ports

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/royavalet/valet-site/internal/core/domain"
)

// RequestOptions configures a single backend call. It is the only place header
// and auth wiring is expressed.
type RequestOptions struct {
	Method      string
	Body        any
	Headers     map[string]string
	IncludeAuth bool
}

// FailureKind distinguishes calls that never produced an HTTP response.
type FailureKind string

const (
	FailureUnreachable FailureKind = "unreachable"
	FailureTransport   FailureKind = "transport"
)

// Failure describes a request that did not complete.
type Failure struct {
	Kind    FailureKind
	Message string
	Cause   error
}

// Category is the error-handling class of a backend answer.
type Category string

const (
	CategoryOK          Category = "ok"
	CategoryUnreachable Category = "unreachable"
	CategoryValidation  Category = "validation"
	CategoryAuth        Category = "auth"
	CategoryConflict    Category = "conflict"
)

// Pagination is the paging block of list envelopes.
type Pagination struct {
	Current int `json:"current"`
	Pages   int `json:"pages"`
	Total   int `json:"total"`
	Limit   int `json:"limit,omitempty"`
}

// Envelope is the JSON shape every backend endpoint answers with.
type Envelope struct {
	Success    bool                `json:"success"`
	Message    string              `json:"message,omitempty"`
	Data       json.RawMessage     `json:"data,omitempty"`
	Errors     []domain.FieldError `json:"errors,omitempty"`
	Pagination *Pagination         `json:"pagination,omitempty"`
}

// Response is a completed or failed backend call that is handed back to the
// caller as data. Status is 0 when Failure is set.
type Response struct {
	Status   int
	Envelope Envelope
	Failure  *Failure
}

// OK reports a 2xx answer with success=true in the envelope.
func (r *Response) OK() bool {
	return r != nil && r.Failure == nil && r.Status >= 200 && r.Status < 300 && r.Envelope.Success
}

// Category classifies the response. 2xx answers are CategoryOK even when the
// envelope reports success=false; callers check OK for that.
func (r *Response) Category() Category {
	switch {
	case r.Failure != nil:
		return CategoryUnreachable
	case r.Status == 400 || r.Status == 422:
		return CategoryValidation
	case r.Status == 401 || r.Status == 403:
		return CategoryAuth
	case r.Status == 409 || r.Status == 429:
		return CategoryConflict
	default:
		return CategoryOK
	}
}

// Message returns the user-facing message of the response.
func (r *Response) Message() string {
	if r.Failure != nil {
		return r.Failure.Message
	}
	return r.Envelope.Message
}

// Decode unmarshals the envelope's data block into v.
func (r *Response) Decode(v any) error {
	if len(r.Envelope.Data) == 0 || string(r.Envelope.Data) == "null" {
		return fmt.Errorf("decode response: empty data")
	}
	if err := json.Unmarshal(r.Envelope.Data, v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Err converts a response that is not OK into the matching domain error, or
// returns nil.
func (r *Response) Err() error {
	if r.OK() {
		return nil
	}
	if r.Failure != nil {
		return &domain.UnreachableError{Message: r.Failure.Message}
	}
	kind := domain.RejectedOther
	switch r.Category() {
	case CategoryValidation:
		kind = domain.RejectedValidation
	case CategoryAuth:
		kind = domain.RejectedAuth
	case CategoryConflict:
		kind = domain.RejectedConflict
	}
	return &domain.RejectedError{
		Kind:    kind,
		Status:  r.Status,
		Message: r.Envelope.Message,
		Fields:  r.Envelope.Errors,
	}
}

// BackendClient issues requests against the external REST backend.
//
// Validation, auth and conflict answers come back as a *Response. Any other
// non-2xx answer is returned as a *domain.ServerError.
type BackendClient interface {
	Request(ctx context.Context, endpoint string, opts RequestOptions) (*Response, error)
}

// TokenSource yields the bearer token of the session carried by ctx.
type TokenSource interface {
	Token(ctx context.Context) (string, bool)
}
