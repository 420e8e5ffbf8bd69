package workers

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	application "assembly/contexts/assembly/voting-engine/application"
	"assembly/contexts/assembly/voting-engine/ports"
)

const (
	defaultRelayBatchSize    = 100
	defaultRelayPollInterval = 2 * time.Second
)

// RelaySignal coalesces wakeups from the request path into a single pending
// notification. Wake never blocks.
type RelaySignal struct {
	ch chan struct{}
}

func NewRelaySignal() *RelaySignal {
	return &RelaySignal{ch: make(chan struct{}, 1)}
}

func (s *RelaySignal) Wake() {
	if s == nil {
		return
	}
	select {
	case s.ch <- struct{}{}:
	default:
	}
}

func (s *RelaySignal) wakeups() <-chan struct{} {
	if s == nil {
		return nil
	}
	return s.ch
}

// OutboxRelay publishes persisted outbox records to the event bus.
type OutboxRelay struct {
	Outbox       ports.OutboxRepository
	Publisher    ports.EventPublisher
	Clock        ports.Clock
	Signal       *RelaySignal
	Metrics      ports.Metrics
	BatchSize    int
	PollInterval time.Duration
	Logger       *slog.Logger
}

// Run drains the outbox on every poll tick or wakeup until ctx is done.
// Publish failures are logged and retried on the next cycle.
func (r OutboxRelay) Run(ctx context.Context) error {
	logger := application.ResolveLogger(r.Logger)
	interval := r.PollInterval
	if interval <= 0 {
		interval = defaultRelayPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Info("voting outbox relay started",
		"event", "voting_outbox_relay_loop_started",
		"module", "assembly/voting-engine",
		"layer", "worker",
		"poll_interval", interval.String(),
	)
	for {
		if err := r.RunOnce(ctx); err != nil && ctx.Err() == nil {
			logger.Warn("voting outbox relay cycle failed, retrying",
				"event", "voting_outbox_relay_cycle_failed",
				"module", "assembly/voting-engine",
				"layer", "worker",
				"error", err.Error(),
			)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		case <-r.Signal.wakeups():
		}
	}
}

// RunOnce publishes a bounded batch of pending outbox rows and marks each row
// published only after broker publish succeeds. It stops on the first publish
// failure so the retry loop can reprocess remaining rows in order. Rows whose
// payload cannot be decoded are marked failed and skipped.
func (r OutboxRelay) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(r.Logger)
	metrics := application.ResolveMetrics(r.Metrics)
	limit := r.BatchSize
	if limit <= 0 {
		limit = defaultRelayBatchSize
	}

	pending, err := r.Outbox.ListPendingOutbox(ctx, limit)
	if err != nil {
		logger.Error("voting outbox list failed",
			"event", "voting_outbox_list_failed",
			"module", "assembly/voting-engine",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}
	if len(pending) == 0 {
		logger.Debug("voting outbox relay found no pending rows",
			"event", "voting_outbox_relay_noop",
			"module", "assembly/voting-engine",
			"layer", "worker",
			"batch_size", limit,
		)
		return nil
	}

	now := time.Now().UTC()
	if r.Clock != nil {
		now = r.Clock.Now().UTC()
	}

	published := 0
	for _, row := range pending {
		var event ports.EventEnvelope
		if err := json.Unmarshal(row.Payload, &event); err != nil {
			// Retrying cannot fix the payload; park the row so it stops
			// holding back the rows behind it.
			metrics.OutboxPublishFailed(row.EventType)
			logger.Error("voting outbox decode failed, parking row",
				"event", "voting_outbox_decode_failed",
				"module", "assembly/voting-engine",
				"layer", "worker",
				"outbox_id", row.OutboxID,
				"event_type", row.EventType,
				"error", err.Error(),
			)
			if markErr := r.Outbox.MarkOutboxFailed(ctx, row.OutboxID, now); markErr != nil {
				logger.Error("voting outbox mark failed failed",
					"event", "voting_outbox_mark_failed_failed",
					"module", "assembly/voting-engine",
					"layer", "worker",
					"outbox_id", row.OutboxID,
					"error", markErr.Error(),
				)
				return markErr
			}
			continue
		}
		topic := event.EventType
		if topic == "" {
			topic = row.EventType
		}
		if err := r.Publisher.Publish(ctx, topic, event); err != nil {
			metrics.OutboxPublishFailed(topic)
			logger.Error("voting outbox publish failed",
				"event", "voting_outbox_publish_failed",
				"module", "assembly/voting-engine",
				"layer", "worker",
				"outbox_id", row.OutboxID,
				"event_id", event.EventID,
				"event_type", event.EventType,
				"error", err.Error(),
			)
			return err
		}
		if err := r.Outbox.MarkOutboxPublished(ctx, row.OutboxID, now); err != nil {
			logger.Error("voting outbox mark published failed",
				"event", "voting_outbox_mark_published_failed",
				"module", "assembly/voting-engine",
				"layer", "worker",
				"outbox_id", row.OutboxID,
				"error", err.Error(),
			)
			return err
		}
		metrics.OutboxPublished(topic)
		published++
	}

	logger.Info("voting outbox relay cycle completed",
		"event", "voting_outbox_relay_completed",
		"module", "assembly/voting-engine",
		"layer", "worker",
		"published_count", published,
		"parked_count", len(pending)-published,
	)
	return nil
}
