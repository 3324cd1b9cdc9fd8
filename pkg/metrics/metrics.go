// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks local API request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	// RequestsTotal tracks total local API requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// BackendCallDuration tracks calls made to the messaging backend.
	BackendCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "backend_call_duration_seconds",
			Help:    "Messaging backend call duration in seconds",
			Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"endpoint", "status"},
	)

	// PollTicksTotal counts poller ticks by poller and result.
	PollTicksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_poll_ticks_total",
			Help: "Poll ticks by poller and result",
		},
		[]string{"poller", "result"},
	)

	// PresenceBeaconsTotal counts reply-presence beacons sent.
	PresenceBeaconsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_presence_beacons_total",
			Help: "Reply-presence beacons by kind and result",
		},
		[]string{"kind", "result"},
	)

	// SoundRepeatsTotal counts notification beeps played.
	SoundRepeatsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_sound_beeps_total",
			Help: "Notification beeps by result",
		},
		[]string{"result"},
	)

	// UnreadCount mirrors the last observed unread count.
	UnreadCount = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sync_unread_count",
			Help: "Last unread message count observed from the backend",
		},
	)

	// SSEConnectionsActive tracks active SSE connections.
	SSEConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sse_connections_active",
			Help: "Number of active SSE connections",
		},
	)

	// NATSPublishedTotal counts sync events forwarded to JetStream.
	NATSPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nats_events_published_total",
			Help: "Sync events published to NATS JetStream",
		},
		[]string{"type", "result"},
	)
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, path, status string, duration float64) {
	RequestDuration.WithLabelValues(method, path, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}

// RecordBackendCall records metrics for a backend call.
func RecordBackendCall(endpoint, status string, duration float64) {
	BackendCallDuration.WithLabelValues(endpoint, status).Observe(duration)
}

// RecordPoll records the outcome of a single poll tick.
func RecordPoll(poller string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	PollTicksTotal.WithLabelValues(poller, result).Inc()
}

// RecordBeacon records a reply-presence beacon.
func RecordBeacon(kind string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	PresenceBeaconsTotal.WithLabelValues(kind, result).Inc()
}

// IncrementSSEConnections increments the active SSE connection count.
func IncrementSSEConnections() {
	SSEConnectionsActive.Inc()
}

// DecrementSSEConnections decrements the active SSE connection count.
func DecrementSSEConnections() {
	SSEConnectionsActive.Dec()
}
