package domain

import (
	"testing"
	"time"
)

func TestSessionRecord_ExpiredAndTTL(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	open := SessionRecord{Token: "t", User: "u"}
	if open.Expired(now) || open.TTL(now, time.Hour) != time.Hour {
		t.Fatalf("a record without expiry uses the default TTL")
	}

	live := SessionRecord{Token: "t", User: "u", ExpiresAt: now.Add(10 * time.Minute)}
	if live.Expired(now) || live.TTL(now, time.Hour) != 10*time.Minute {
		t.Fatalf("a live record keeps its remaining lifetime")
	}

	for _, exp := range []time.Time{now, now.Add(-time.Second)} {
		if !(SessionRecord{Token: "t", User: "u", ExpiresAt: exp}).Expired(now) {
			t.Fatalf("expected record expiring at %v to be expired at %v", exp, now)
		}
	}
}
