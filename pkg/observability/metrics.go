// Package observability provides Prometheus metrics and HTTP middleware
// for monitoring the accolade authentication service.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HTTPBuckets defines histogram buckets for request latencies, from 5ms
// (token-authenticated reads) to 5s (bcrypt-bound logins under load).
var HTTPBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5}

var (
	// RequestsTotal counts all HTTP requests by method and status class.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "accolade_requests_total",
			Help: "Total requests",
		},
		[]string{"method", "status"},
	)

	// RequestDuration records HTTP request duration in seconds by method.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "accolade_request_duration_seconds",
			Help:    "Request duration",
			Buckets: HTTPBuckets,
		},
		[]string{"method"},
	)

	// InFlightRequests tracks requests currently being served.
	InFlightRequests = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "accolade_requests_in_flight",
			Help: "Requests in flight",
		},
	)

	// TokenRejectedTotal counts bearer tokens the authentication gate
	// could not validate, by reason (malformed, tampered, expired).
	TokenRejectedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "accolade_auth_token_rejected_total",
			Help: "Bearer tokens rejected by the authentication gate",
		},
		[]string{"reason"},
	)

	// UserResolutionFailuresTotal counts valid tokens whose subject could
	// not be resolved to a user.
	UserResolutionFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "accolade_auth_user_resolution_failures_total",
			Help: "Valid tokens whose user lookup failed",
		},
	)

	// UnauthorizedTotal counts 401 responses written at the edge.
	UnauthorizedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "accolade_auth_unauthorized_total",
			Help: "Unauthorized responses",
		},
	)

	// LoginsTotal counts login attempts by outcome
	// (success, invalid_credentials, throttled, error).
	LoginsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "accolade_auth_logins_total",
			Help: "Login attempts",
		},
		[]string{"outcome"},
	)

	// RegistrationsTotal counts registration attempts by outcome
	// (success, weak_password, conflict, error).
	RegistrationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "accolade_auth_registrations_total",
			Help: "Registration attempts",
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		InFlightRequests,
		TokenRejectedTotal,
		UserResolutionFailuresTotal,
		UnauthorizedTotal,
		LoginsTotal,
		RegistrationsTotal,
	)
}

// Handler returns the Prometheus exposition handler for the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
