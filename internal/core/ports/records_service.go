package ports

import (
	"context"

	"github.com/royavalet/valet-site/internal/core/domain"
)

// RecordsService reads and deletes the leads and subscriptions held by the
// backend on behalf of an authenticated admin.
type RecordsService interface {
	ListLeads(ctx context.Context, page int) (domain.Page[domain.Lead], error)
	DeleteLead(ctx context.Context, id string) (string, error)
	ListSubscriptions(ctx context.Context, page int) (domain.Page[domain.Subscription], error)
	DeleteSubscription(ctx context.Context, id string) (string, error)
	Overview(ctx context.Context) (domain.Overview, error)
}

// Outcome is the result class of a public form submission.
type Outcome string

const (
	OutcomeSuccess     Outcome = "success"
	OutcomeInvalid     Outcome = "invalid"
	OutcomeConflict    Outcome = "conflict"
	OutcomeUnreachable Outcome = "unreachable"
	OutcomeRejected    Outcome = "rejected"
	// OutcomeDuplicate marks a submission the backend already has on file.
	OutcomeDuplicate Outcome = "duplicate"
)

// SubmissionResult is what a public form shows after submitting.
type SubmissionResult struct {
	Outcome Outcome
	Message string
	Fields  map[string]string
}

// LeadsService carries the public lead-capture forms.
type LeadsService interface {
	SubmitContact(ctx context.Context, in domain.ContactInput) (SubmissionResult, error)
	Subscribe(ctx context.Context, email, source string) (SubmissionResult, error)
	Unsubscribe(ctx context.Context, email string) (SubmissionResult, error)
}
