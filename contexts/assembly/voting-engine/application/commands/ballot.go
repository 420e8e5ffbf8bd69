package commands

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	application "assembly/contexts/assembly/voting-engine/application"
	"assembly/contexts/assembly/voting-engine/domain/entities"
	domainerrors "assembly/contexts/assembly/voting-engine/domain/errors"
	"assembly/contexts/assembly/voting-engine/domain/identifier"
	"assembly/contexts/assembly/voting-engine/ports"
	contractsv1 "assembly/contracts/events/v1"
)

// CastBallotCommand is the raw request-path input for one ballot.
type CastBallotCommand struct {
	AgendaItemID  string
	ParticipantID string
	Choice        string
}

// BallotUseCase is the admission engine. Checks run in a fixed order and the
// first failure wins; the ballot store's unique index decides concurrent
// races that slip past the existence check.
type BallotUseCase struct {
	Agenda   ports.AgendaRepository
	Ballots  ports.BallotStore
	Notifier ports.OutboxNotifier
	Clock    ports.Clock
	IDGen    ports.IDGenerator
	Metrics  ports.Metrics
	Logger   *slog.Logger
}

// Cast resolves the agenda item and its session, then admits the ballot.
func (uc BallotUseCase) Cast(ctx context.Context, cmd CastBallotCommand) (entities.Ballot, error) {
	logger := application.ResolveLogger(uc.Logger)
	itemID := strings.TrimSpace(cmd.AgendaItemID)
	choice := entities.ParseChoice(cmd.Choice)
	if itemID == "" || strings.TrimSpace(cmd.ParticipantID) == "" || !choice.Valid() {
		return uc.reject(logger, domainerrors.ErrAllFieldsRequired, "fields_missing", itemID)
	}

	item, err := uc.Agenda.GetAgendaItem(ctx, itemID)
	if err != nil {
		logger.Warn("ballot agenda item lookup failed",
			"event", "voting_ballot_item_lookup_failed",
			"module", "assembly/voting-engine",
			"layer", "application",
			"agenda_item_id", itemID,
			"error", err.Error(),
		)
		return entities.Ballot{}, err
	}
	return uc.Admit(ctx, item, cmd.ParticipantID, choice)
}

// Admit runs the admission checks against an already resolved item and, on
// success, persists the ballot together with its ballot.accepted fact.
func (uc BallotUseCase) Admit(
	ctx context.Context,
	item entities.AgendaItem,
	participantRaw string,
	choice entities.Choice,
) (entities.Ballot, error) {
	logger := application.ResolveLogger(uc.Logger)
	itemID := strings.TrimSpace(item.AgendaItemID)

	if itemID == "" || strings.TrimSpace(participantRaw) == "" || !choice.Valid() {
		return uc.reject(logger, domainerrors.ErrAllFieldsRequired, "fields_missing", itemID)
	}
	if !identifier.IsValid(participantRaw) {
		return uc.reject(logger, domainerrors.ErrInvalidIdentifier, "invalid_identifier", itemID)
	}

	participantKey := identifier.Normalize(participantRaw)
	exists, err := uc.Ballots.ExistsByItemAndParticipant(ctx, itemID, participantKey)
	if err != nil {
		logger.Error("ballot existence check failed",
			"event", "voting_ballot_exists_check_failed",
			"module", "assembly/voting-engine",
			"layer", "application",
			"agenda_item_id", itemID,
			"error", err.Error(),
		)
		return entities.Ballot{}, err
	}
	if exists {
		return uc.reject(logger, domainerrors.ErrAlreadyVoted, "already_voted", itemID)
	}

	now := uc.now()
	if !item.Session.IsOpen(now) {
		reason := "ended"
		if item.Session.NotStarted(now) {
			reason = "not_started"
		}
		logger.Warn("ballot rejected outside session window",
			"event", "voting_ballot_session_not_open",
			"module", "assembly/voting-engine",
			"layer", "application",
			"agenda_item_id", itemID,
			"session_id", item.Session.SessionID,
			"reason", reason,
			"starts_at", item.Session.StartsAt,
			"ends_at", item.Session.EndsAt,
		)
		application.ResolveMetrics(uc.Metrics).BallotRejected("session_" + reason)
		return entities.Ballot{}, domainerrors.ErrSessionNotOpen
	}

	ballotID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Ballot{}, err
	}
	ballot := entities.Ballot{
		BallotID:       ballotID,
		AgendaItemID:   itemID,
		ParticipantID:  strings.TrimSpace(participantRaw),
		ParticipantKey: participantKey,
		Choice:         choice,
		CastAt:         now,
	}
	fact, err := newVotingEnvelope(
		ballotID,
		contractsv1.EventTypeBallotAccepted,
		contractsv1.PartitionKeyPathAgendaItem,
		itemID,
		now,
		contractsv1.BallotAcceptedData{
			BallotID:      ballot.BallotID,
			AgendaItemID:  ballot.AgendaItemID,
			ParticipantID: ballot.ParticipantID,
			Choice:        string(ballot.Choice),
			CastAt:        ballot.CastAt,
		},
	)
	if err != nil {
		return entities.Ballot{}, err
	}

	if err := uc.Ballots.InsertBallot(ctx, ballot, fact); err != nil {
		if errors.Is(err, domainerrors.ErrAlreadyVoted) {
			return uc.reject(logger, domainerrors.ErrAlreadyVoted, "already_voted_race", itemID)
		}
		logger.Error("ballot insert failed",
			"event", "voting_ballot_insert_failed",
			"module", "assembly/voting-engine",
			"layer", "application",
			"ballot_id", ballot.BallotID,
			"agenda_item_id", itemID,
			"error", err.Error(),
		)
		return entities.Ballot{}, err
	}
	if uc.Notifier != nil {
		uc.Notifier.Wake()
	}
	application.ResolveMetrics(uc.Metrics).BallotAdmitted(ballot.Choice)

	logger.Info("ballot admitted",
		"event", "voting_ballot_admitted",
		"module", "assembly/voting-engine",
		"layer", "application",
		"ballot_id", ballot.BallotID,
		"agenda_item_id", itemID,
		"choice", string(ballot.Choice),
	)
	return ballot, nil
}

// HasVoted reports whether the participant already holds a ballot on the item.
func (uc BallotUseCase) HasVoted(ctx context.Context, agendaItemID string, participantRaw string) (bool, error) {
	itemID := strings.TrimSpace(agendaItemID)
	if itemID == "" || strings.TrimSpace(participantRaw) == "" {
		return false, domainerrors.ErrAllFieldsRequired
	}
	if _, err := uc.Agenda.GetAgendaItem(ctx, itemID); err != nil {
		return false, err
	}
	return uc.Ballots.ExistsByItemAndParticipant(ctx, itemID, identifier.Normalize(participantRaw))
}

func (uc BallotUseCase) reject(logger *slog.Logger, err error, reason string, itemID string) (entities.Ballot, error) {
	logger.Warn("ballot rejected",
		"event", "voting_ballot_rejected",
		"module", "assembly/voting-engine",
		"layer", "application",
		"agenda_item_id", itemID,
		"reason", reason,
	)
	application.ResolveMetrics(uc.Metrics).BallotRejected(reason)
	return entities.Ballot{}, err
}

func (uc BallotUseCase) now() time.Time {
	if uc.Clock == nil {
		return time.Now().UTC()
	}
	return uc.Clock.Now().UTC()
}
