// AngelaMos | 2026
// metrics.go

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// LoginAttempts counts login attempts by outcome
	// (success|invalid|locked|suspended|error).
	LoginAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kidsask_login_attempts_total",
			Help: "Total number of login attempts",
		},
		[]string{"result"},
	)

	// AccountLockouts counts accounts entering the cooldown lock.
	AccountLockouts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "kidsask_account_lockouts_total",
			Help: "Total number of accounts locked after repeated failures",
		},
	)

	// PasswordResets counts reset lifecycle events (requested|completed|rejected).
	PasswordResets = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kidsask_password_resets_total",
			Help: "Total number of password reset events",
		},
		[]string{"event"},
	)

	// QuotaDenials counts questions refused by the quota tracker, by reason.
	QuotaDenials = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kidsask_quota_denials_total",
			Help: "Total number of questions refused by quota checks",
		},
		[]string{"reason"},
	)

	QuestionsAnswered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kidsask_questions_answered_total",
			Help: "Total number of questions answered",
		},
		[]string{"topic"},
	)

	FilteredMessages = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "kidsask_filtered_messages_total",
			Help: "Total number of messages rejected by the content filter",
		},
	)

	// AILatency measures round-trips to the generation service by result (ok|error).
	AILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kidsask_ai_latency_seconds",
			Help:    "Latency of AI generation requests",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 15, 30},
		},
		[]string{"result"},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kidsask_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	MaintenanceRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kidsask_maintenance_runs_total",
			Help: "Total number of maintenance job runs",
		},
		[]string{"job", "result"},
	)
)

func ObserveAI(start time.Time, err error) {
	AILatency.WithLabelValues(resultLabel(err)).Observe(time.Since(start).Seconds())
}

func RecordMaintenance(job string, err error) {
	MaintenanceRuns.WithLabelValues(job, resultLabel(err)).Inc()
}

func resultLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
