package ports

import (
	"context"

	"github.com/royavalet/valet-site/internal/core/domain"
)

// SessionStorage persists session records durably. Put always overwrites the
// whole record; there are no partial updates.
type SessionStorage interface {
	// Get returns domain.ErrSessionNotFound when no record exists.
	Get(ctx context.Context, sessionID string) (domain.SessionRecord, error)
	Put(ctx context.Context, sessionID string, rec domain.SessionRecord) error
	Delete(ctx context.Context, sessionID string) error
	Ping(ctx context.Context) error
}
