package service

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/royavalet/valet-site/internal/core/domain"
	"github.com/royavalet/valet-site/internal/pkg/metrics"
)

// Ticket identifies one fetch issued by a ListView.
type Ticket uint64

// ListView holds the last committed page of one admin table for one session.
// Fetches take a ticket before calling the backend; only the latest ticket
// may commit, so a slow response never overwrites a newer one.
type ListView[T any] struct {
	kind string

	mu        sync.Mutex
	issued    Ticket
	committed Ticket
	page      domain.Page[T]
	loaded    bool
}

func NewListView[T any](kind string) *ListView[T] {
	return &ListView[T]{kind: kind}
}

// Begin issues a new ticket, superseding any fetch still in flight.
func (v *ListView[T]) Begin() Ticket {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.issued++
	return v.issued
}

// Commit stores page if t is still the latest ticket and reports whether it
// did.
func (v *ListView[T]) Commit(t Ticket, page domain.Page[T]) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if t != v.issued {
		metrics.StaleListResponsesTotal.WithLabelValues(v.kind).Inc()
		return false
	}
	v.committed = t
	v.page = page
	v.loaded = true
	return true
}

// Current reports whether t is still the latest ticket.
func (v *ListView[T]) Current(t Ticket) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return t == v.issued
}

// State returns the last committed page. ok is false before the first commit.
func (v *ListView[T]) State() (page domain.Page[T], ok bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.page, v.loaded
}

// ListViews keeps one ListView per session for a single table kind. The
// number of tracked sessions is bounded; the least recently used view is
// dropped first.
type ListViews[T any] struct {
	kind  string
	views *lru.Cache[string, *ListView[T]]
}

func NewListViews[T any](kind string, size int) (*ListViews[T], error) {
	c, err := lru.New[string, *ListView[T]](size)
	if err != nil {
		return nil, err
	}
	return &ListViews[T]{kind: kind, views: c}, nil
}

// For returns the view of sessionID, creating it on first use.
func (r *ListViews[T]) For(sessionID string) *ListView[T] {
	if v, ok := r.views.Get(sessionID); ok {
		return v
	}
	v := NewListView[T](r.kind)
	if prev, ok, _ := r.views.PeekOrAdd(sessionID, v); ok {
		return prev
	}
	return v
}

// Forget drops the view of sessionID.
func (r *ListViews[T]) Forget(sessionID string) {
	r.views.Remove(sessionID)
}

func (r *ListViews[T]) Len() int { return r.views.Len() }
