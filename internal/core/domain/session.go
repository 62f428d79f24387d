package domain

import (
	"errors"
	"time"
)

// Durable storage key names. Both keys are written and removed together.
const (
	StorageKeyToken = "adminToken"
	StorageKeyUser  = "adminUser"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionStorage  = errors.New("session storage unavailable")
	ErrSessionExpired  = errors.New("session token already expired")
)

// SessionRecord is the durable form of a session. User holds the serialized
// user object exactly as stored, so that a corrupt value can be detected on
// hydration instead of at write time.
type SessionRecord struct {
	Token     string
	User      string
	ExpiresAt time.Time
}

// Empty reports whether neither half of the record is present.
func (r SessionRecord) Empty() bool {
	return r.Token == "" && r.User == ""
}

// Complete reports whether both halves of the record are present.
func (r SessionRecord) Complete() bool {
	return r.Token != "" && r.User != ""
}

// Expired reports whether the record carries an expiry at or before now.
func (r SessionRecord) Expired(now time.Time) bool {
	return !r.ExpiresAt.IsZero() && !now.Before(r.ExpiresAt)
}

// TTL returns the remaining lifetime of the record relative to now, or def
// when no expiry is set. Stores refuse expired records before asking.
func (r SessionRecord) TTL(now time.Time, def time.Duration) time.Duration {
	if r.ExpiresAt.IsZero() {
		return def
	}
	return r.ExpiresAt.Sub(now)
}
