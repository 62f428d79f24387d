// Package metrics defines and registers the custom Prometheus metrics of the
// valet site. It is the single source of truth for metric names, labels, and
// help strings. Collectors register with the default registry on import;
// /metrics serves them through promhttp.
package metrics

import (
	"strings"
	"unicode"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "valet"

// ── Backend client ───────────────────────────────────────────────────────────

// BackendRequestsTotal counts backend calls.
// Labels:
//   - endpoint: normalised path, ids replaced by ":id" (e.g. "/api/contact/:id")
//   - category: ok, validation, auth, conflict, unreachable, server_error
var BackendRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "backend_requests_total",
		Help:      "Total number of requests issued to the REST backend, by outcome category.",
	},
	[]string{"endpoint", "category"},
)

// BackendRequestDuration measures backend round trips, including failed ones.
var BackendRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "backend_request_duration_seconds",
		Help:      "Duration of requests issued to the REST backend.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"endpoint"},
)

// ── Sessions ─────────────────────────────────────────────────────────────────

// LoginAttemptsTotal counts admin logins.
// Label:
//   - result: "success", "rejected", "unreachable", "expired",
//     "storage_error", "error"
var LoginAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "login_attempts_total",
		Help:      "Total number of admin login attempts, by result.",
	},
	[]string{"result"},
)

// TokenVerificationsTotal counts calls to the who-am-I endpoint.
// Label:
//   - result: "valid", "rejected" (session cleared), "failed" (session kept)
var TokenVerificationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "token_verifications_total",
		Help:      "Total number of bearer token verifications, by result.",
	},
	[]string{"result"},
)

// GuardDecisionsTotal counts route guard outcomes.
// Label:
//   - state: "loading", "unauthenticated", "forbidden", "authorized"
var GuardDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "guard_decisions_total",
		Help:      "Total number of route guard decisions, by resulting state.",
	},
	[]string{"state"},
)

// ── Leads ────────────────────────────────────────────────────────────────────

// SubmissionsTotal counts public form submissions.
// Labels:
//   - form: "contact", "subscribe", "unsubscribe"
//   - outcome: success, invalid, conflict, unreachable, rejected, error
var SubmissionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "submissions_total",
		Help:      "Total number of public form submissions, by form and outcome.",
	},
	[]string{"form", "outcome"},
)

// RecordDeletionsTotal counts admin deletions.
// Labels:
//   - kind: "lead" or "subscription"
//   - result: "deleted", "cancelled", "failed"
var RecordDeletionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "record_deletions_total",
		Help:      "Total number of admin record deletions, by kind and result.",
	},
	[]string{"kind", "result"},
)

// StaleListResponsesTotal counts list responses discarded because a newer
// request for the same view had already been issued.
var StaleListResponsesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "stale_list_responses_total",
		Help:      "Total number of list responses discarded as stale.",
	},
	[]string{"kind"},
)

// EndpointLabel strips the query string and replaces id-like path segments so
// label cardinality stays bounded.
func EndpointLabel(endpoint string) string {
	if i := strings.IndexByte(endpoint, '?'); i >= 0 {
		endpoint = endpoint[:i]
	}
	segs := strings.Split(endpoint, "/")
	for i, s := range segs {
		if looksLikeID(s) {
			segs[i] = ":id"
		}
	}
	return strings.Join(segs, "/")
}

func looksLikeID(s string) bool {
	if len(s) < 6 {
		return false
	}
	for _, r := range s {
		if unicode.IsDigit(r) {
			return true
		}
	}
	return false
}
