package ports

import (
	"context"

	"github.com/royavalet/valet-site/internal/core/domain"
)

// LoginFailure says why a login did not succeed. The zero value is a refusal
// of the credentials.
type LoginFailure string

const (
	LoginRejected LoginFailure = ""
	// LoginUnavailable: the backend or the session store could not be reached.
	LoginUnavailable LoginFailure = "unavailable"
	// LoginBackendError: the backend answered with a server error or an
	// unusable payload.
	LoginBackendError LoginFailure = "backend_error"
)

// LoginResult is the outcome of a login attempt. Rejected credentials are a
// normal failure, not an error.
type LoginResult struct {
	Success bool
	Message string
	User    *domain.User
	Failure LoginFailure
}

// Session is the auth context bound to one visitor session.
type Session interface {
	ID() string
	IsLoading() bool
	IsAuthenticated() bool
	IsAdmin() bool
	User() *domain.User
	Login(ctx context.Context, email, password string) LoginResult
	Logout(ctx context.Context)
	VerifyToken(ctx context.Context) bool
}

// SessionProvider hands out auth contexts.
type SessionProvider interface {
	// Open hydrates the session stored under sessionID.
	Open(ctx context.Context, sessionID string) Session
	// Fresh returns an empty, already hydrated session for a new id.
	Fresh(sessionID string) Session
	// Discard removes a session record without touching any live context.
	Discard(ctx context.Context, sessionID string)
}
