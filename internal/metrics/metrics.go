// Package metrics defines and registers all custom Prometheus metrics for
// walletd. It is the single source of truth for metric names, labels, and
// help strings.
//
// Metrics are registered with the default Prometheus registry on import.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "walletd"

// ── Token metrics ─────────────────────────────────────────────────────────────

// TokenRefreshTotal counts identity provider refresh attempts.
// Labels:
//   - trigger: "validity_check", "proactive" or "unauthorized"
//   - result: "ok" or "error"
var TokenRefreshTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "token_refresh_total",
		Help:      "Total number of session refresh attempts.",
	},
	[]string{"trigger", "result"},
)

// StaleTokenServedTotal counts tokens handed out after a failed refresh.
var StaleTokenServedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "stale_token_served_total",
		Help:      "Total number of stale tokens returned after a refresh failure.",
	},
)

// ── Onboarding metrics ────────────────────────────────────────────────────────

// StatusChecksTotal counts provisioning status lookups.
// Label:
//   - result: "found", "not_found", "transient_error" or "auth_failure"
var StatusChecksTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "status_checks_total",
		Help:      "Total number of provisioning status lookups, by result.",
	},
	[]string{"result"},
)

// OnboardingStepsTotal counts step transitions of the onboarding flow.
// Labels:
//   - step: step id (e.g. "account_creation")
//   - status: "completed" or "error"
var OnboardingStepsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "onboarding_steps_total",
		Help:      "Total number of onboarding step outcomes.",
	},
	[]string{"step", "status"},
)

// OnboardingStepDuration measures how long each onboarding step takes.
var OnboardingStepDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "onboarding_step_duration_seconds",
		Help:      "Duration of a single onboarding step.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"step"},
)

// ── Wallet metrics ────────────────────────────────────────────────────────────

// WalletCreateTotal counts CreateWallet outcomes.
// Label:
//   - result: "created", "existing" or "failed"
var WalletCreateTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "wallet_create_total",
		Help:      "Total number of wallet creation calls, by result.",
	},
	[]string{"result"},
)

// RefreshSkippedTotal counts refreshes short-circuited because one was in flight.
// Label:
//   - kind: "balance" or "transactions"
var RefreshSkippedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "refresh_skipped_total",
		Help:      "Total number of refreshes skipped because another was in flight.",
	},
	[]string{"kind"},
)

// ── Upstream metrics ──────────────────────────────────────────────────────────

// UpstreamRequestDuration measures calls to remote services.
// Labels:
//   - service: "provisioning", "identity" or "mirror"
//   - code: HTTP status code, or "error" on transport failure
var UpstreamRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "upstream_request_duration_seconds",
		Help:      "Duration of requests to remote services.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"service", "code"},
)

// ProactiveRefreshTicksTotal counts background refresh checks.
// Label:
//   - result: "refreshed", "not_due", "unsupported" or "error"
var ProactiveRefreshTicksTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "proactive_refresh_ticks_total",
		Help:      "Total number of background session refresh checks by result.",
	},
	[]string{"result"},
)
