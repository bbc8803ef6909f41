// Package metrics exposes prometheus counters for the handful of
// business events worth watching.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	signups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "microblog_signups_total",
		Help: "Number of signup attempts grouped by status.",
	}, []string{"status"})

	loginAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "microblog_login_attempts_total",
		Help: "Number of login attempts grouped by status.",
	}, []string{"status"})

	mailsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "microblog_mails_total",
		Help: "Number of outbound mails grouped by kind and status.",
	}, []string{"kind", "status"})

	follows = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "microblog_follow_events_total",
		Help: "Number of follow/unfollow events grouped by action.",
	}, []string{"action"})

	rateLimitHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "microblog_rate_limit_hits_total",
		Help: "Rate limiter activations grouped by limiter name.",
	}, []string{"limiter"})
)

// IncSignup increments the signup counter.
func IncSignup(status string) {
	signups.WithLabelValues(status).Inc()
}

// IncLogin increments the login counter.
func IncLogin(status string) {
	loginAttempts.WithLabelValues(status).Inc()
}

// IncMailSent increments the outbound mail counter.
func IncMailSent(kind, status string) {
	mailsSent.WithLabelValues(kind, status).Inc()
}

// IncFollow increments the follow event counter.
func IncFollow(action string) {
	follows.WithLabelValues(action).Inc()
}

// IncRateLimit increments the rate-limit hit counter.
func IncRateLimit(name string) {
	rateLimitHits.WithLabelValues(name).Inc()
}
