package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "assembly/contexts/assembly/voting-engine/application"
	"assembly/contexts/assembly/voting-engine/domain/entities"
	domainerrors "assembly/contexts/assembly/voting-engine/domain/errors"
	"assembly/contexts/assembly/voting-engine/ports"
	contractsv1 "assembly/contracts/events/v1"
)

type CreateSessionCommand struct {
	StartsAt time.Time
	EndsAt   time.Time
}

// SessionUseCase creates and reads voting sessions.
type SessionUseCase struct {
	Sessions ports.SessionRepository
	Notifier ports.OutboxNotifier
	Clock    ports.Clock
	IDGen    ports.IDGenerator
	Logger   *slog.Logger
}

// CreateSession stores a new session at version 0. Windows shorter than one
// minute are stretched rather than rejected.
func (uc SessionUseCase) CreateSession(ctx context.Context, cmd CreateSessionCommand) (entities.Session, error) {
	logger := application.ResolveLogger(uc.Logger)
	if cmd.StartsAt.IsZero() || cmd.EndsAt.IsZero() {
		logger.Warn("session create validation failed",
			"event", "voting_session_create_validation_failed",
			"module", "assembly/voting-engine",
			"layer", "application",
		)
		return entities.Session{}, domainerrors.ErrSessionWindowRequired
	}

	startsAt, endsAt := entities.NormalizeWindow(cmd.StartsAt, cmd.EndsAt)
	if !endsAt.Equal(cmd.EndsAt.UTC()) {
		logger.Info("session window stretched to minimum length",
			"event", "voting_session_window_adjusted",
			"module", "assembly/voting-engine",
			"layer", "application",
			"requested_ends_at", cmd.EndsAt.UTC(),
			"ends_at", endsAt,
		)
	}

	sessionID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Session{}, err
	}
	now := uc.now()
	session := entities.Session{
		SessionID: sessionID,
		StartsAt:  startsAt,
		EndsAt:    endsAt,
		Version:   0,
		CreatedAt: now,
	}

	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Session{}, err
	}
	fact, err := newVotingEnvelope(
		eventID,
		contractsv1.EventTypeSessionCreated,
		contractsv1.PartitionKeyPathSession,
		session.SessionID,
		now,
		contractsv1.SessionCreatedData{
			SessionID: session.SessionID,
			StartsAt:  session.StartsAt,
			EndsAt:    session.EndsAt,
		},
	)
	if err != nil {
		return entities.Session{}, err
	}
	if err := uc.Sessions.SaveSession(ctx, session, fact); err != nil {
		logger.Error("session save failed",
			"event", "voting_session_save_failed",
			"module", "assembly/voting-engine",
			"layer", "application",
			"session_id", session.SessionID,
			"error", err.Error(),
		)
		return entities.Session{}, err
	}
	if uc.Notifier != nil {
		uc.Notifier.Wake()
	}

	logger.Info("session created",
		"event", "voting_session_created",
		"module", "assembly/voting-engine",
		"layer", "application",
		"session_id", session.SessionID,
		"starts_at", session.StartsAt,
		"ends_at", session.EndsAt,
	)
	return session, nil
}

func (uc SessionUseCase) GetSession(ctx context.Context, sessionID string) (entities.Session, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return entities.Session{}, domainerrors.ErrSessionRequired
	}
	return uc.Sessions.GetSession(ctx, sessionID)
}

func (uc SessionUseCase) now() time.Time {
	if uc.Clock == nil {
		return time.Now().UTC()
	}
	return uc.Clock.Now().UTC()
}
