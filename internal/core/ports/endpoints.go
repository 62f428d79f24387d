package ports

import (
	"net/url"
	"strconv"
)

// Endpoints of the external REST backend.
const (
	EndpointContact            = "/api/contact"
	EndpointEmailSubscribe     = "/api/email/subscribe"
	EndpointEmailUnsubscribe   = "/api/email/unsubscribe"
	EndpointEmailSubscriptions = "/api/email/subscriptions"
	EndpointAuthLogin          = "/api/auth/login"
	EndpointAuthMe             = "/api/auth/me"
	EndpointDashboardOverview  = "/api/dashboard/overview"
	EndpointHealth             = "/api/health"
)

func ContactByID(id string) string {
	return EndpointContact + "/" + url.PathEscape(id)
}

func EmailSubscriptionByID(id string) string {
	return "/api/email/subscription/" + url.PathEscape(id)
}

// Paged appends page and limit query parameters to a list endpoint.
func Paged(endpoint string, page, limit int) string {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))
	return endpoint + "?" + q.Encode()
}
