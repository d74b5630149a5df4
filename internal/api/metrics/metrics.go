// Package metrics defines and registers all custom Prometheus metrics for the
// contacts gateway. It is the single source of truth for metric names, labels,
// and help strings.
//
// Metrics are registered with the default Prometheus registry at package
// init through promauto and exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "contacts"

// ── HTTP metrics ──────────────────────────────────────────────────────────────

// HTTPRequestsTotal counts handled requests.
// Labels:
//   - method: HTTP method
//   - route: the matched route pattern (e.g. "/api/contacts/:id")
//   - status: response status code
var HTTPRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests handled, by method, route and status.",
	},
	[]string{"method", "route", "status"},
)

// HTTPRequestDuration measures request latency per route.
var HTTPRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests, by method and route.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"method", "route"},
)

// GuardDecisionsTotal counts authorization guard outcomes.
// Label:
//   - decision: "allow", "redirect_login", "redirect_home"
var GuardDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "guard_decisions_total",
		Help:      "Total number of authorization guard decisions, by outcome.",
	},
	[]string{"decision"},
)

// ── Backend metrics ───────────────────────────────────────────────────────────

// BackendRequestsTotal counts calls made to the content backend.
// Labels:
//   - operation: client operation (e.g. "list_contacts", "upload_media")
//   - code: response status code, or "error" when no response was received
var BackendRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "backend_requests_total",
		Help:      "Total number of requests sent to the content backend.",
	},
	[]string{"operation", "code"},
)

// BackendRequestDuration measures backend round-trip latency.
var BackendRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "backend_request_duration_seconds",
		Help:      "Duration of content backend round-trips, by operation.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"operation"},
)

// ── Gateway metrics ───────────────────────────────────────────────────────────

// ContactOperationsTotal counts contact gateway operations.
// Labels:
//   - operation: "create", "list", "get", "update", "delete"
//   - result: "ok" or "error"
var ContactOperationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "contact_operations_total",
		Help:      "Total number of contact gateway operations, by operation and result.",
	},
	[]string{"operation", "result"},
)

// LoginAttemptsTotal counts session logins.
// Label:
//   - result: "ok", "rejected" (bad credentials) or "error" (token signing failed)
var LoginAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "login_attempts_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// ── View cache metrics ────────────────────────────────────────────────────────

// ViewCacheLookupsTotal counts rendered-view cache lookups.
// Label:
//   - result: "hit", "miss" or "error"
var ViewCacheLookupsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "view_cache_lookups_total",
		Help:      "Total number of rendered view cache lookups, by result.",
	},
	[]string{"result"},
)

// ViewCacheInvalidationErrorsTotal counts invalidations that failed.
// They never fail the mutation that triggered them.
var ViewCacheInvalidationErrorsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "view_cache_invalidation_errors_total",
		Help:      "Total number of view cache invalidations that failed.",
	},
)
