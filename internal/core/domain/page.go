package domain

// Page is one page of records as reported by a paginated list endpoint.
type Page[T any] struct {
	Items       []T
	CurrentPage int
	TotalPages  int
	TotalCount  int
}

// HasPrev reports whether a previous page exists.
func (p Page[T]) HasPrev() bool { return p.CurrentPage > 1 }

// HasNext reports whether a following page exists.
func (p Page[T]) HasNext() bool { return p.CurrentPage < p.TotalPages }

// PrevPage returns the previous page number.
func (p Page[T]) PrevPage() int { return p.CurrentPage - 1 }

// NextPage returns the next page number.
func (p Page[T]) NextPage() int { return p.CurrentPage + 1 }

// PagerWindow is the most page links the pager shows at once.
const PagerWindow = 9

// Pages lists the page numbers of the pager: at most PagerWindow of them,
// centred on the current page where the range allows.
func (p Page[T]) Pages() []int {
	if p.TotalPages <= 0 {
		return nil
	}
	first := max(p.CurrentPage-PagerWindow/2, 1)
	last := first + PagerWindow - 1
	if last > p.TotalPages {
		last = p.TotalPages
		first = max(last-PagerWindow+1, 1)
	}
	out := make([]int, 0, last-first+1)
	for i := first; i <= last; i++ {
		out = append(out, i)
	}
	return out
}

// Overview is the dashboard home summary.
type Overview struct {
	TotalContacts   int
	PendingContacts int
	TotalEmails     int
	TotalUsers      int
}
