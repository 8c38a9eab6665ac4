package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	ProfilesCreated prometheus.Counter
	ProfilesUpdated prometheus.Counter
	EmailsVerified  prometheus.Counter
	AuthFailures    prometheus.Counter
	RequestLatency  *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		ProfilesCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "profilegate_profiles_created_total",
			Help: "Total number of profile records created.",
		}),
		ProfilesUpdated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "profilegate_profiles_updated_total",
			Help: "Total number of profile merge-patch updates applied.",
		}),
		EmailsVerified: promauto.NewCounter(prometheus.CounterOpts{
			Name: "profilegate_emails_verified_total",
			Help: "Total number of email addresses confirmed as verified.",
		}),
		AuthFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "profilegate_auth_failures_total",
			Help: "Total number of rejected bearer tokens.",
		}),
		RequestLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "profilegate_request_duration_seconds",
			Help:    "HTTP request latency by route and status.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "status"}),
	}
}

// ObserveRequest records one request's latency.
func (m *Metrics) ObserveRequest(route, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.RequestLatency.WithLabelValues(route, status).Observe(d.Seconds())
}

// IncrementProfilesCreated increments the created counter by 1.
func (m *Metrics) IncrementProfilesCreated() {
	if m != nil {
		m.ProfilesCreated.Inc()
	}
}

// IncrementProfilesUpdated increments the updated counter by 1.
func (m *Metrics) IncrementProfilesUpdated() {
	if m != nil {
		m.ProfilesUpdated.Inc()
	}
}

// IncrementEmailsVerified increments the verified counter by 1.
func (m *Metrics) IncrementEmailsVerified() {
	if m != nil {
		m.EmailsVerified.Inc()
	}
}

// IncrementAuthFailures increments the auth failure counter by 1.
func (m *Metrics) IncrementAuthFailures() {
	if m != nil {
		m.AuthFailures.Inc()
	}
}
