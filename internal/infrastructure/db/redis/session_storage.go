package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/royavalet/valet-site/internal/core/domain"
)

const (
	sessionKeyPrefix = "valet:session:"
	fieldExpiresAt   = "expiresAt"
)

// SessionStorage keeps one hash per session:
// valet:session:<sid> -> {adminToken, adminUser, expiresAt}
// The hash expires with the session.
type SessionStorage struct {
	client     redis.UniversalClient
	defaultTTL time.Duration
}

// NewSessionStorage creates a SessionStorage on the given client. defaultTTL
// applies to records without an expiry.
func NewSessionStorage(client redis.UniversalClient, defaultTTL time.Duration) *SessionStorage {
	return &SessionStorage{client: client, defaultTTL: defaultTTL}
}

func (s *SessionStorage) Get(ctx context.Context, sessionID string) (domain.SessionRecord, error) {
	vals, err := s.client.HGetAll(ctx, s.key(sessionID)).Result()
	if err != nil {
		return domain.SessionRecord{}, fmt.Errorf("%w: hgetall: %v", domain.ErrSessionStorage, err)
	}
	if len(vals) == 0 {
		return domain.SessionRecord{}, domain.ErrSessionNotFound
	}

	rec := domain.SessionRecord{
		Token: vals[domain.StorageKeyToken],
		User:  vals[domain.StorageKeyUser],
	}
	if raw, ok := vals[fieldExpiresAt]; ok {
		if unix, err := strconv.ParseInt(raw, 10, 64); err == nil && unix > 0 {
			rec.ExpiresAt = time.Unix(unix, 0)
		}
	}
	// EXPIRE and expiresAt can drift by a second; trust the earlier one.
	if rec.Expired(time.Now()) {
		return domain.SessionRecord{}, domain.ErrSessionNotFound
	}
	return rec, nil
}

// Put replaces the whole hash in one MULTI/EXEC so a reader never observes a
// record with only one of the two keys.
func (s *SessionStorage) Put(ctx context.Context, sessionID string, rec domain.SessionRecord) error {
	now := time.Now()
	if rec.Expired(now) {
		return domain.ErrSessionExpired
	}
	key := s.key(sessionID)
	ttl := rec.TTL(now, s.defaultTTL)

	fields := map[string]any{
		domain.StorageKeyToken: rec.Token,
		domain.StorageKeyUser:  rec.User,
	}
	if !rec.ExpiresAt.IsZero() {
		fields[fieldExpiresAt] = strconv.FormatInt(rec.ExpiresAt.Unix(), 10)
	}

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key, fields)
		pipe.Expire(ctx, key, ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: put: %v", domain.ErrSessionStorage, err)
	}
	return nil
}

func (s *SessionStorage) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, s.key(sessionID)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("%w: del: %v", domain.ErrSessionStorage, err)
	}
	return nil
}

func (s *SessionStorage) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *SessionStorage) key(sessionID string) string {
	return sessionKeyPrefix + sessionID
}
