// Package metrics exposes kiosk counters on the admin /metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the kiosk's Prometheus collectors. A nil *Metrics is safe to
// use everywhere and records nothing.
type Metrics struct {
	framesEmitted prometheus.Counter
	frameFailures prometheus.Counter

	eventsAccepted prometheus.Counter
	eventsRejected *prometheus.CounterVec

	presentations     prometheus.Counter
	statusTransitions *prometheus.CounterVec
}

// New registers the kiosk collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		framesEmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kiosk_frames_emitted_total",
			Help: "Video frames published on the push channel.",
		}),
		frameFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kiosk_frame_failures_total",
			Help: "Capture, encode, or publish failures (frame dropped).",
		}),
		eventsAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kiosk_events_accepted_total",
			Help: "Recognition events admitted to the presentation queue.",
		}),
		eventsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kiosk_events_rejected_total",
			Help: "Recognition events rejected at admission.",
		}, []string{"reason"}),
		presentations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kiosk_presentations_total",
			Help: "Recognition notifications announced on screen.",
		}),
		statusTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kiosk_status_transitions_total",
			Help: "Inbound recognition status updates applied.",
		}, []string{"status"}),
	}
	reg.MustRegister(
		m.framesEmitted, m.frameFailures,
		m.eventsAccepted, m.eventsRejected,
		m.presentations, m.statusTransitions,
	)
	return m
}

// FrameEmitted counts one published frame.
func (m *Metrics) FrameEmitted() {
	if m != nil {
		m.framesEmitted.Inc()
	}
}

// FrameFailed counts one dropped frame.
func (m *Metrics) FrameFailed() {
	if m != nil {
		m.frameFailures.Inc()
	}
}

// EventAccepted counts one admitted event.
func (m *Metrics) EventAccepted() {
	if m != nil {
		m.eventsAccepted.Inc()
	}
}

// EventRejected counts one rejected event by reason.
func (m *Metrics) EventRejected(reason string) {
	if m != nil {
		m.eventsRejected.WithLabelValues(reason).Inc()
	}
}

// Presented counts one announced notification.
func (m *Metrics) Presented() {
	if m != nil {
		m.presentations.Inc()
	}
}

// StatusApplied counts one status update by value.
func (m *Metrics) StatusApplied(status string) {
	if m != nil {
		m.statusTransitions.WithLabelValues(status).Inc()
	}
}
