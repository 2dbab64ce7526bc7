package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the directory and its
// replication path
type Metrics struct {
	// Mutation metrics
	AddsTotal    prometheus.Counter
	RemovesTotal prometheus.Counter
	Users        prometheus.Gauge

	// Fan-out metrics
	FanoutErrors *prometheus.CounterVec

	// Notification channel metrics
	NotificationsSent     prometheus.Counter
	NotificationsReceived prometheus.Counter
	DecodeErrors          prometheus.Counter
}

// New creates and registers metrics on the default registerer
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith creates metrics registered on the given registerer.
// Tests pass a fresh registry to avoid duplicate registration.
func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		AddsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "directory_adds_total",
			Help: "Total number of user records added on this node",
		}),
		RemovesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "directory_removes_total",
			Help: "Total number of user records removed on this node",
		}),
		Users: factory.NewGauge(prometheus.GaugeOpts{
			Name: "directory_users",
			Help: "Current number of user records in the local store",
		}),
		FanoutErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "replication_fanout_errors_total",
				Help: "Errors collected during best-effort fan-out",
			},
			[]string{"target"}, // subscriber, replica, sender
		),
		NotificationsSent: factory.NewCounter(prometheus.CounterOpts{
			Name: "notifications_sent_total",
			Help: "Notification batches handed to the outbound sender",
		}),
		NotificationsReceived: factory.NewCounter(prometheus.CounterOpts{
			Name: "notifications_received_total",
			Help: "Notification batches accepted by the inbound receiver",
		}),
		DecodeErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "notification_decode_errors_total",
			Help: "Inbound notification payloads dropped as malformed",
		}),
	}
}
