// Package metrics exposes Prometheus counters for authentication outcomes.
// A nil *AuthMetrics is valid and records nothing.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Outcome labels.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
	ResultExpired = "expired"
	ResultError   = "error"
)

type AuthMetrics struct {
	logins        *prometheus.CounterVec
	refreshes     *prometheus.CounterVec
	registrations *prometheus.CounterVec
	revocations   prometheus.Counter
}

// NewAuthMetrics creates the counters and registers them with reg.
func NewAuthMetrics(reg prometheus.Registerer) *AuthMetrics {
	m := &AuthMetrics{
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "workly",
			Subsystem: "auth",
			Name:      "logins_total",
			Help:      "Login attempts by result.",
		}, []string{"result"}),
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "workly",
			Subsystem: "auth",
			Name:      "refreshes_total",
			Help:      "Refresh token exchanges by result.",
		}, []string{"result"}),
		registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "workly",
			Subsystem: "auth",
			Name:      "registrations_total",
			Help:      "Registration attempts by result.",
		}, []string{"result"}),
		revocations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "workly",
			Subsystem: "auth",
			Name:      "revoked_refresh_tokens_total",
			Help:      "Refresh tokens revoked by logout, password change or admin action.",
		}),
	}
	reg.MustRegister(m.logins, m.refreshes, m.registrations, m.revocations)
	return m
}

func (m *AuthMetrics) Login(result string) {
	if m == nil {
		return
	}
	m.logins.WithLabelValues(result).Inc()
}

func (m *AuthMetrics) Refresh(result string) {
	if m == nil {
		return
	}
	m.refreshes.WithLabelValues(result).Inc()
}

func (m *AuthMetrics) Registration(result string) {
	if m == nil {
		return
	}
	m.registrations.WithLabelValues(result).Inc()
}

func (m *AuthMetrics) Revoked(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.revocations.Add(float64(n))
}
