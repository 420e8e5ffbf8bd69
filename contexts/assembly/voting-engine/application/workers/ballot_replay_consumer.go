package workers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	application "assembly/contexts/assembly/voting-engine/application"
	"assembly/contexts/assembly/voting-engine/domain/entities"
	domainerrors "assembly/contexts/assembly/voting-engine/domain/errors"
	"assembly/contexts/assembly/voting-engine/domain/identifier"
	"assembly/contexts/assembly/voting-engine/ports"
	contractsv1 "assembly/contracts/events/v1"
)

const defaultBallotReplayCG = "voting-engine-ballot-replay-cg"

const (
	replayOutcomeApplied   = "applied"
	replayOutcomeDuplicate = "duplicate"
	replayOutcomeFailed    = "failed"
)

// BallotReplayConsumer re-applies ballot.accepted facts to the ballot store.
// Facts already reflected in storage are acknowledged without effect, so the
// same fact may be delivered any number of times. Replay trusts the fact: it
// does not re-check the session window or the identifier checksum.
type BallotReplayConsumer struct {
	Subscriber    ports.EventSubscriber
	Agenda        ports.AgendaRepository
	Ballots       ports.BallotStore
	Metrics       ports.Metrics
	ConsumerGroup string
	Disabled      bool
	Logger        *slog.Logger
}

func (c BallotReplayConsumer) Start(ctx context.Context) error {
	logger := application.ResolveLogger(c.Logger)
	if c.Disabled {
		logger.Info("ballot replay consumer disabled by feature flag",
			"event", "voting_ballot_replay_consumer_disabled",
			"module", "assembly/voting-engine",
			"layer", "worker",
		)
		return nil
	}
	group := strings.TrimSpace(c.ConsumerGroup)
	if group == "" {
		group = defaultBallotReplayCG
	}
	if err := c.Subscriber.Subscribe(ctx, contractsv1.EventTypeBallotAccepted, group, c.Handle); err != nil {
		logger.Error("ballot replay consumer subscribe failed",
			"event", "voting_ballot_replay_subscribe_failed",
			"module", "assembly/voting-engine",
			"layer", "worker",
			"topic", contractsv1.EventTypeBallotAccepted,
			"consumer_group", group,
			"error", err.Error(),
		)
		return err
	}
	logger.Info("ballot replay consumer subscription active",
		"event", "voting_ballot_replay_consumer_started",
		"module", "assembly/voting-engine",
		"layer", "worker",
		"consumer_group", group,
	)
	return nil
}

// Handle applies one fact. A nil return acknowledges it; any error leaves it
// for redelivery.
func (c BallotReplayConsumer) Handle(ctx context.Context, event ports.EventEnvelope) error {
	logger := application.ResolveLogger(c.Logger)
	metrics := application.ResolveMetrics(c.Metrics)

	payload, err := decodeBallotAccepted(event)
	if err != nil {
		metrics.BallotReplayed(replayOutcomeFailed)
		logger.Error("ballot.accepted payload decode failed",
			"event", "voting_ballot_replay_decode_failed",
			"module", "assembly/voting-engine",
			"layer", "worker",
			"event_id", event.EventID,
			"error", err.Error(),
		)
		return err
	}

	item, err := c.Agenda.GetAgendaItem(ctx, payload.AgendaItemID)
	if err != nil {
		metrics.BallotReplayed(replayOutcomeFailed)
		logger.Error("ballot replay agenda item lookup failed",
			"event", "voting_ballot_replay_item_lookup_failed",
			"module", "assembly/voting-engine",
			"layer", "worker",
			"event_id", event.EventID,
			"agenda_item_id", payload.AgendaItemID,
			"error", err.Error(),
		)
		return err
	}

	participantKey := identifier.Normalize(payload.ParticipantID)
	exists, err := c.Ballots.ExistsByItemAndParticipant(ctx, item.AgendaItemID, participantKey)
	if err != nil {
		metrics.BallotReplayed(replayOutcomeFailed)
		return err
	}
	if exists {
		metrics.BallotReplayed(replayOutcomeDuplicate)
		logger.Info("ballot already recorded, acknowledging replay",
			"event", "voting_ballot_replay_duplicate",
			"module", "assembly/voting-engine",
			"layer", "worker",
			"event_id", event.EventID,
			"agenda_item_id", item.AgendaItemID,
		)
		return nil
	}

	ballot := entities.Ballot{
		BallotID:       payload.BallotID,
		AgendaItemID:   item.AgendaItemID,
		ParticipantID:  strings.TrimSpace(payload.ParticipantID),
		ParticipantKey: participantKey,
		Choice:         entities.Choice(payload.Choice),
		CastAt:         payload.CastAt.UTC(),
	}
	if err := c.Ballots.InsertBallot(ctx, ballot); err != nil {
		if errors.Is(err, domainerrors.ErrAlreadyVoted) {
			metrics.BallotReplayed(replayOutcomeDuplicate)
			logger.Info("ballot replay lost insert race, acknowledging",
				"event", "voting_ballot_replay_duplicate",
				"module", "assembly/voting-engine",
				"layer", "worker",
				"event_id", event.EventID,
				"agenda_item_id", item.AgendaItemID,
			)
			return nil
		}
		metrics.BallotReplayed(replayOutcomeFailed)
		logger.Error("ballot replay insert failed",
			"event", "voting_ballot_replay_insert_failed",
			"module", "assembly/voting-engine",
			"layer", "worker",
			"event_id", event.EventID,
			"agenda_item_id", item.AgendaItemID,
			"error", err.Error(),
		)
		return err
	}

	metrics.BallotReplayed(replayOutcomeApplied)
	logger.Info("ballot.accepted replay applied",
		"event", "voting_ballot_replay_applied",
		"module", "assembly/voting-engine",
		"layer", "worker",
		"event_id", event.EventID,
		"ballot_id", ballot.BallotID,
		"agenda_item_id", ballot.AgendaItemID,
	)
	return nil
}

func decodeBallotAccepted(event ports.EventEnvelope) (contractsv1.BallotAcceptedData, error) {
	var payload contractsv1.BallotAcceptedData
	if err := decodeData(event, &payload); err != nil {
		return payload, err
	}
	payload.AgendaItemID = strings.TrimSpace(payload.AgendaItemID)
	if payload.BallotID == "" {
		payload.BallotID = event.EventID
	}
	choice := entities.ParseChoice(payload.Choice)
	if payload.AgendaItemID == "" || strings.TrimSpace(payload.ParticipantID) == "" || !choice.Valid() {
		return payload, fmt.Errorf("ballot.accepted %s: %w", event.EventID, domainerrors.ErrAllFieldsRequired)
	}
	payload.Choice = string(choice)
	if payload.CastAt.IsZero() {
		payload.CastAt = event.OccurredAt
	}
	return payload, nil
}
