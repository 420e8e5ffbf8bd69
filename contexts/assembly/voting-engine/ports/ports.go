package ports

import (
	"context"
	"time"

	"assembly/contexts/assembly/voting-engine/domain/entities"
	contractsv1 "assembly/contracts/events/v1"
)

// SessionRepository stores sessions. Save persists the session and its facts
// atomically.
type SessionRepository interface {
	SaveSession(ctx context.Context, session entities.Session, facts ...EventEnvelope) error
	GetSession(ctx context.Context, sessionID string) (entities.Session, error)
}

// AgendaRepository stores agenda items. GetAgendaItem returns the item with
// its Session resolved.
type AgendaRepository interface {
	SaveAgendaItem(ctx context.Context, item entities.AgendaItem, facts ...EventEnvelope) error
	GetAgendaItem(ctx context.Context, agendaItemID string) (entities.AgendaItem, error)
}

// BallotStore is the durable ballot set. The (agenda item, participant key)
// uniqueness is enforced by storage; InsertBallot reports a violation as
// domain ErrAlreadyVoted and leaves nothing behind.
type BallotStore interface {
	ExistsByItemAndParticipant(ctx context.Context, agendaItemID string, participantKey string) (bool, error)
	InsertBallot(ctx context.Context, ballot entities.Ballot, facts ...EventEnvelope) error
	CountByItemAndChoice(ctx context.Context, agendaItemID string, choice entities.Choice) (int64, error)
	CountByItem(ctx context.Context, agendaItemID string) (int64, error)
}

type OutboxMessage struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}

// OutboxRepository models relay-side outbox polling/acknowledgement.
type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
	// MarkOutboxFailed parks a row that can never be published so it stops
	// being listed as pending.
	MarkOutboxFailed(ctx context.Context, outboxID string, failedAt time.Time) error
}

// OutboxNotifier is told when new outbox rows were committed. Wake must not
// block.
type OutboxNotifier interface {
	Wake()
}

// EventEnvelope reuses the canonical cross-runtime envelope contract.
type EventEnvelope = contractsv1.Envelope

// EventPublisher publishes canonical envelopes to a topic.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}

// EventSubscriber registers a topic consumer callback. A nil handler result
// acknowledges the fact; an error requests redelivery.
type EventSubscriber interface {
	Subscribe(
		ctx context.Context,
		topic string,
		consumerGroup string,
		handler func(context.Context, EventEnvelope) error,
	) error
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

// Metrics receives admission and relay counters. Implementations must be safe
// for concurrent use.
type Metrics interface {
	BallotAdmitted(choice entities.Choice)
	BallotRejected(reason string)
	BallotReplayed(outcome string)
	OutboxPublished(eventType string)
	OutboxPublishFailed(eventType string)
}
