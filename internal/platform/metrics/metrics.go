package metrics

import (
	"net/http"

	"assembly/contexts/assembly/voting-engine/domain/entities"
	"assembly/contexts/assembly/voting-engine/ports"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "assembly"

// Prometheus records voting counters on its own registry so tests can build
// as many instances as they need.
type Prometheus struct {
	registry        *prometheus.Registry
	ballotsAdmitted *prometheus.CounterVec
	ballotsRejected *prometheus.CounterVec
	ballotsReplayed *prometheus.CounterVec
	outboxPublished *prometheus.CounterVec
	outboxFailed    *prometheus.CounterVec
}

func NewPrometheus() *Prometheus {
	registry := prometheus.NewRegistry()
	m := &Prometheus{
		registry: registry,
		ballotsAdmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "voting",
			Name:      "ballots_admitted_total",
			Help:      "Ballots accepted by admission, by choice.",
		}, []string{"choice"}),
		ballotsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "voting",
			Name:      "ballots_rejected_total",
			Help:      "Ballots refused by admission, by reason.",
		}, []string{"reason"}),
		ballotsReplayed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "voting",
			Name:      "ballot_replays_total",
			Help:      "ballot.accepted facts handled by the replay consumer, by outcome.",
		}, []string{"outcome"}),
		outboxPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "outbox",
			Name:      "published_total",
			Help:      "Outbox rows published to the event bus, by event type.",
		}, []string{"event_type"}),
		outboxFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "outbox",
			Name:      "publish_failures_total",
			Help:      "Outbox publish attempts that failed, by event type.",
		}, []string{"event_type"}),
	}
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.ballotsAdmitted,
		m.ballotsRejected,
		m.ballotsReplayed,
		m.outboxPublished,
		m.outboxFailed,
	)
	return m
}

func (m *Prometheus) BallotAdmitted(choice entities.Choice) {
	m.ballotsAdmitted.WithLabelValues(string(choice)).Inc()
}

func (m *Prometheus) BallotRejected(reason string) {
	m.ballotsRejected.WithLabelValues(reason).Inc()
}

func (m *Prometheus) BallotReplayed(outcome string) {
	m.ballotsReplayed.WithLabelValues(outcome).Inc()
}

func (m *Prometheus) OutboxPublished(eventType string) {
	m.outboxPublished.WithLabelValues(eventType).Inc()
}

func (m *Prometheus) OutboxPublishFailed(eventType string) {
	m.outboxFailed.WithLabelValues(eventType).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

var _ ports.Metrics = (*Prometheus)(nil)
