// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "skygate_auth"

// Outcome label values.
const (
	OutcomeSuccess     = "success"
	OutcomeMFARequired = "mfa_required"
	OutcomeFailure     = "failure"
)

var (
	// LoginAttempts counts primary authentication by provider and outcome.
	LoginAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "login_attempts_total",
		Help:      "Primary authentication attempts by provider and outcome.",
	}, []string{"provider", "outcome"})

	MFAVerifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "mfa_verifications_total",
		Help:      "MFA code checks by method and outcome.",
	}, []string{"method", "outcome"})

	AccountLockouts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "account_lockouts_total",
		Help:      "Accounts locked after repeated failed logins.",
	})

	PasswordResets = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "password_resets_total",
		Help:      "Password reset requests and confirmations by outcome.",
	}, []string{"stage", "outcome"})

	Registrations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registrations_total",
		Help:      "Account registrations by role and outcome.",
	}, []string{"role", "outcome"})

	TokensIssued = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tokens_issued_total",
		Help:      "JWTs minted by token type.",
	}, []string{"type"})

	RevocationErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "revocation_errors_total",
		Help:      "Revocation store failures swallowed during logout.",
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route and status code.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "code"})
)

// ObserveHTTP records one request against its route pattern.
func ObserveHTTP(route string, status int, seconds float64) {
	HTTPRequestDuration.WithLabelValues(route, strconv.Itoa(status)).Observe(seconds)
}
