package domain

import "time"

// SubscriptionStatus is the delivery state of a newsletter subscription.
type SubscriptionStatus string

const (
	SubscriptionActive       SubscriptionStatus = "active"
	SubscriptionUnsubscribed SubscriptionStatus = "unsubscribed"
	SubscriptionBounced      SubscriptionStatus = "bounced"
	SubscriptionComplained   SubscriptionStatus = "complained"
)

// Valid reports whether s is one of the known statuses.
func (s SubscriptionStatus) Valid() bool {
	switch s {
	case SubscriptionActive, SubscriptionUnsubscribed, SubscriptionBounced, SubscriptionComplained:
		return true
	}
	return false
}

// Label is the badge text shown in the admin table. Unknown statuses render
// as active, the same fallback the console has always used.
func (s SubscriptionStatus) Label() string {
	switch s {
	case SubscriptionUnsubscribed:
		return "Unsubscribed"
	case SubscriptionBounced:
		return "Bounced"
	case SubscriptionComplained:
		return "Complained"
	default:
		return "Active"
	}
}

// Subscription is a newsletter signup captured by the backend.
type Subscription struct {
	ID               string             `json:"_id"`
	Email            string             `json:"email"`
	Status           SubscriptionStatus `json:"status"`
	Source           string             `json:"source"`
	SubscriptionDate time.Time          `json:"subscriptionDate"`
}

// SourceWebsiteFooter tags signups coming from the site footer form.
const SourceWebsiteFooter = "website-footer"
