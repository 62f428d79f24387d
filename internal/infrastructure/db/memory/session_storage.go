// Package memory is the in-process session storage, used for local runs and
// tests. Records do not survive a restart.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/royavalet/valet-site/internal/core/domain"
)

type entry struct {
	rec     domain.SessionRecord
	expires time.Time
}

type SessionStorage struct {
	mu         sync.Mutex
	records    map[string]entry
	defaultTTL time.Duration
	now        func() time.Time
}

func NewSessionStorage(defaultTTL time.Duration) *SessionStorage {
	return &SessionStorage{
		records:    make(map[string]entry),
		defaultTTL: defaultTTL,
		now:        time.Now,
	}
}

func (s *SessionStorage) Get(_ context.Context, sessionID string) (domain.SessionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.records[sessionID]
	if !ok {
		return domain.SessionRecord{}, domain.ErrSessionNotFound
	}
	if s.now().After(e.expires) {
		delete(s.records, sessionID)
		return domain.SessionRecord{}, domain.ErrSessionNotFound
	}
	return e.rec, nil
}

func (s *SessionStorage) Put(_ context.Context, sessionID string, rec domain.SessionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if rec.Expired(now) {
		return domain.ErrSessionExpired
	}
	s.records[sessionID] = entry{rec: rec, expires: now.Add(rec.TTL(now, s.defaultTTL))}
	return nil
}

func (s *SessionStorage) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, sessionID)
	return nil
}

func (s *SessionStorage) Ping(context.Context) error { return nil }

// Len returns the number of stored records, expired ones included.
func (s *SessionStorage) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}
