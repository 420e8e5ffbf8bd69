package workers

import (
	"context"
	"log/slog"
	"strings"

	application "assembly/contexts/assembly/voting-engine/application"
	"assembly/contexts/assembly/voting-engine/ports"
	contractsv1 "assembly/contracts/events/v1"
)

const defaultLifecycleAuditCG = "voting-engine-lifecycle-audit-cg"

// LifecycleAuditConsumer records session and agenda item creation facts in
// the structured log stream.
type LifecycleAuditConsumer struct {
	Subscriber    ports.EventSubscriber
	ConsumerGroup string
	Disabled      bool
	Logger        *slog.Logger
}

func (c LifecycleAuditConsumer) Start(ctx context.Context) error {
	logger := application.ResolveLogger(c.Logger)
	if c.Disabled {
		logger.Info("lifecycle audit consumer disabled by feature flag",
			"event", "voting_lifecycle_consumer_disabled",
			"module", "assembly/voting-engine",
			"layer", "worker",
		)
		return nil
	}
	group := strings.TrimSpace(c.ConsumerGroup)
	if group == "" {
		group = defaultLifecycleAuditCG
	}
	subscriptions := []struct {
		topic   string
		handler func(context.Context, ports.EventEnvelope) error
	}{
		{contractsv1.EventTypeSessionCreated, c.handleSessionCreated},
		{contractsv1.EventTypeAgendaItemCreated, c.handleAgendaItemCreated},
	}
	for _, sub := range subscriptions {
		if err := c.Subscriber.Subscribe(ctx, sub.topic, group, sub.handler); err != nil {
			logger.Error("lifecycle consumer subscribe failed",
				"event", "voting_lifecycle_consumer_subscribe_failed",
				"module", "assembly/voting-engine",
				"layer", "worker",
				"topic", sub.topic,
				"consumer_group", group,
				"error", err.Error(),
			)
			return err
		}
	}
	logger.Info("lifecycle consumer subscriptions active",
		"event", "voting_lifecycle_consumer_started",
		"module", "assembly/voting-engine",
		"layer", "worker",
		"consumer_group", group,
	)
	return nil
}

func (c LifecycleAuditConsumer) handleSessionCreated(_ context.Context, event ports.EventEnvelope) error {
	logger := application.ResolveLogger(c.Logger)
	var payload contractsv1.SessionCreatedData
	if err := decodeData(event, &payload); err != nil {
		logger.Error("session.created payload decode failed",
			"event", "voting_session_created_decode_failed",
			"module", "assembly/voting-engine",
			"layer", "worker",
			"event_id", event.EventID,
			"error", err.Error(),
		)
		return err
	}
	logger.Info("session.created consumed",
		"event", "voting_session_created_consumed",
		"module", "assembly/voting-engine",
		"layer", "worker",
		"event_id", event.EventID,
		"session_id", payload.SessionID,
		"starts_at", payload.StartsAt,
		"ends_at", payload.EndsAt,
	)
	return nil
}

func (c LifecycleAuditConsumer) handleAgendaItemCreated(_ context.Context, event ports.EventEnvelope) error {
	logger := application.ResolveLogger(c.Logger)
	var payload contractsv1.AgendaItemCreatedData
	if err := decodeData(event, &payload); err != nil {
		logger.Error("agenda_item.created payload decode failed",
			"event", "voting_agenda_created_decode_failed",
			"module", "assembly/voting-engine",
			"layer", "worker",
			"event_id", event.EventID,
			"error", err.Error(),
		)
		return err
	}
	logger.Info("agenda_item.created consumed",
		"event", "voting_agenda_created_consumed",
		"module", "assembly/voting-engine",
		"layer", "worker",
		"event_id", event.EventID,
		"agenda_item_id", payload.AgendaItemID,
		"session_id", payload.SessionID,
		"title", payload.Title,
	)
	return nil
}
