package application

import (
	"log/slog"

	"assembly/contexts/assembly/voting-engine/domain/entities"
	"assembly/contexts/assembly/voting-engine/ports"
)

// ResolveLogger guarantees a non-nil logger for application/worker code paths.
func ResolveLogger(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}

// ResolveMetrics substitutes a no-op sink when none is wired.
func ResolveMetrics(metrics ports.Metrics) ports.Metrics {
	if metrics == nil {
		return noopMetrics{}
	}
	return metrics
}

type noopMetrics struct{}

func (noopMetrics) BallotAdmitted(entities.Choice) {}
func (noopMetrics) BallotRejected(string)          {}
func (noopMetrics) BallotReplayed(string)          {}
func (noopMetrics) OutboxPublished(string)         {}
func (noopMetrics) OutboxPublishFailed(string)     {}
