// Package metrics exposes Prometheus counters for auth outcomes. All counters
// are registered on the default registry and served via /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome label values.
const (
	OutcomeSuccess    = "success"
	OutcomeInvalid    = "invalid"
	OutcomeUnverified = "unverified"
	OutcomeRevoked    = "revoked"
	OutcomeExpired    = "expired"
	OutcomeError      = "error"
)

var (
	// LoginAttempts counts login attempts by outcome.
	LoginAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "contaplus",
		Subsystem: "auth",
		Name:      "login_attempts_total",
		Help:      "Login attempts by outcome.",
	}, []string{"outcome"})

	// RefreshAttempts counts access-token refresh attempts by outcome.
	RefreshAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "contaplus",
		Subsystem: "auth",
		Name:      "refresh_attempts_total",
		Help:      "Access token refresh attempts by outcome.",
	}, []string{"outcome"})

	// Registrations counts completed account registrations.
	Registrations = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "contaplus",
		Subsystem: "auth",
		Name:      "registrations_total",
		Help:      "Completed account registrations.",
	})
)
