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

type CreateAgendaItemCommand struct {
	Title       string
	Description string
	SessionID   string
}

// AgendaUseCase creates agenda items bound to an existing session.
type AgendaUseCase struct {
	Sessions ports.SessionRepository
	Agenda   ports.AgendaRepository
	Notifier ports.OutboxNotifier
	Clock    ports.Clock
	IDGen    ports.IDGenerator
	Logger   *slog.Logger
}

func (uc AgendaUseCase) CreateAgendaItem(ctx context.Context, cmd CreateAgendaItemCommand) (entities.AgendaItem, error) {
	logger := application.ResolveLogger(uc.Logger)
	sessionID := strings.TrimSpace(cmd.SessionID)
	title := strings.TrimSpace(cmd.Title)

	if sessionID == "" {
		logger.Warn("agenda item create validation failed",
			"event", "voting_agenda_create_validation_failed",
			"module", "assembly/voting-engine",
			"layer", "application",
			"reason", "session_required",
		)
		return entities.AgendaItem{}, domainerrors.ErrSessionRequired
	}
	session, err := uc.Sessions.GetSession(ctx, sessionID)
	if err != nil {
		logger.Warn("agenda item session lookup failed",
			"event", "voting_agenda_create_session_lookup_failed",
			"module", "assembly/voting-engine",
			"layer", "application",
			"session_id", sessionID,
			"error", err.Error(),
		)
		return entities.AgendaItem{}, err
	}
	if title == "" {
		logger.Warn("agenda item create validation failed",
			"event", "voting_agenda_create_validation_failed",
			"module", "assembly/voting-engine",
			"layer", "application",
			"session_id", sessionID,
			"reason", "title_required",
		)
		return entities.AgendaItem{}, domainerrors.ErrTitleRequired
	}

	itemID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.AgendaItem{}, err
	}
	now := uc.now()
	item := entities.AgendaItem{
		AgendaItemID: itemID,
		Title:        title,
		Description:  strings.TrimSpace(cmd.Description),
		SessionID:    session.SessionID,
		Session:      session,
		CreatedAt:    now,
	}

	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.AgendaItem{}, err
	}
	fact, err := newVotingEnvelope(
		eventID,
		contractsv1.EventTypeAgendaItemCreated,
		contractsv1.PartitionKeyPathAgendaItem,
		item.AgendaItemID,
		now,
		contractsv1.AgendaItemCreatedData{
			AgendaItemID: item.AgendaItemID,
			SessionID:    item.SessionID,
			Title:        item.Title,
		},
	)
	if err != nil {
		return entities.AgendaItem{}, err
	}
	if err := uc.Agenda.SaveAgendaItem(ctx, item, fact); err != nil {
		logger.Error("agenda item save failed",
			"event", "voting_agenda_save_failed",
			"module", "assembly/voting-engine",
			"layer", "application",
			"agenda_item_id", item.AgendaItemID,
			"error", err.Error(),
		)
		return entities.AgendaItem{}, err
	}
	if uc.Notifier != nil {
		uc.Notifier.Wake()
	}

	logger.Info("agenda item created",
		"event", "voting_agenda_created",
		"module", "assembly/voting-engine",
		"layer", "application",
		"agenda_item_id", item.AgendaItemID,
		"session_id", item.SessionID,
	)
	return item, nil
}

func (uc AgendaUseCase) GetAgendaItem(ctx context.Context, agendaItemID string) (entities.AgendaItem, error) {
	agendaItemID = strings.TrimSpace(agendaItemID)
	if agendaItemID == "" {
		return entities.AgendaItem{}, domainerrors.ErrAgendaItemNotFound
	}
	return uc.Agenda.GetAgendaItem(ctx, agendaItemID)
}

func (uc AgendaUseCase) now() time.Time {
	if uc.Clock == nil {
		return time.Now().UTC()
	}
	return uc.Clock.Now().UTC()
}
