// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Notification kinds.
const (
	KindGate   = "gate"
	KindStatus = "status"
)

// Metrics holds all prometheus metrics. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	Cycles               prometheus.Counter
	CycleDuration        prometheus.Histogram
	ProviderErrors       *prometheus.CounterVec
	Notifications        *prometheus.CounterVec
	NotificationFailures *prometheus.CounterVec
	Intents              *prometheus.CounterVec

	reg prometheus.Registerer
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer, namespace string) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Cycles: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "detection_cycles_total",
			Help:      "The total number of completed detection cycles",
		}),
		CycleDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "detection_cycle_duration_seconds",
			Help:      "Time taken by one detection cycle",
			Buckets:   prometheus.DefBuckets,
		}),
		ProviderErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_errors_total",
			Help:      "The total number of failed or empty provider lookups",
		}, []string{"operation"}),
		Notifications: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "The total number of change notifications emitted",
		}, []string{"kind"}),
		NotificationFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notification_failures_total",
			Help:      "The total number of change notifications the transport rejected",
		}, []string{"kind"}),
		Intents: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "intents_total",
			Help:      "The total number of resolved inbound messages",
		}, []string{"kind", "source"}),
		reg: reg,
	}
}

// TrackSubscriptions exports a gauge reading count on every scrape.
func (m *Metrics) TrackSubscriptions(namespace string, count func() int) {
	if m == nil {
		return
	}
	promauto.With(m.reg).NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "subscriptions",
		Help:      "The number of tracked flights",
	}, func() float64 { return float64(count()) })
}

// ObserveCycle records one finished detection cycle.
func (m *Metrics) ObserveCycle(d time.Duration) {
	if m == nil {
		return
	}
	m.Cycles.Inc()
	m.CycleDuration.Observe(d.Seconds())
}

// ProviderError counts a failed provider call.
func (m *Metrics) ProviderError(operation string) {
	if m == nil {
		return
	}
	m.ProviderErrors.WithLabelValues(operation).Inc()
}

// Notified counts an emitted notification and whether delivery failed.
func (m *Metrics) Notified(kind string, err error) {
	if m == nil {
		return
	}
	m.Notifications.WithLabelValues(kind).Inc()
	if err != nil {
		m.NotificationFailures.WithLabelValues(kind).Inc()
	}
}

// Intent counts a resolved inbound message.
func (m *Metrics) Intent(kind, source string) {
	if m == nil {
		return
	}
	m.Intents.WithLabelValues(kind, source).Inc()
}
