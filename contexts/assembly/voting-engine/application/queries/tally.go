package queries

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "assembly/contexts/assembly/voting-engine/application"
	"assembly/contexts/assembly/voting-engine/domain/entities"
	domainerrors "assembly/contexts/assembly/voting-engine/domain/errors"
	"assembly/contexts/assembly/voting-engine/ports"
)

type TallyUseCase struct {
	Agenda  ports.AgendaRepository
	Ballots ports.BallotStore
	Clock   ports.Clock
	Logger  *slog.Logger
}

// Tally reads the current counts for an item and derives its outcome.
func (uc TallyUseCase) Tally(ctx context.Context, agendaItemID string) (entities.TallyResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	itemID := strings.TrimSpace(agendaItemID)
	if itemID == "" {
		return entities.TallyResult{}, domainerrors.ErrAgendaItemNotFound
	}
	item, err := uc.Agenda.GetAgendaItem(ctx, itemID)
	if err != nil {
		return entities.TallyResult{}, err
	}

	affirmative, err := uc.Ballots.CountByItemAndChoice(ctx, itemID, entities.ChoiceYes)
	if err != nil {
		logger.Error("tally count failed",
			"event", "voting_tally_count_failed",
			"module", "assembly/voting-engine",
			"layer", "application",
			"agenda_item_id", itemID,
			"choice", string(entities.ChoiceYes),
			"error", err.Error(),
		)
		return entities.TallyResult{}, err
	}
	negative, err := uc.Ballots.CountByItemAndChoice(ctx, itemID, entities.ChoiceNo)
	if err != nil {
		logger.Error("tally count failed",
			"event", "voting_tally_count_failed",
			"module", "assembly/voting-engine",
			"layer", "application",
			"agenda_item_id", itemID,
			"choice", string(entities.ChoiceNo),
			"error", err.Error(),
		)
		return entities.TallyResult{}, err
	}

	result := entities.ComputeTally(item, affirmative, negative, uc.now())
	logger.Debug("tally computed",
		"event", "voting_tally_computed",
		"module", "assembly/voting-engine",
		"layer", "application",
		"agenda_item_id", itemID,
		"total", result.Total,
		"outcome", result.Outcome,
	)
	return result, nil
}

func (uc TallyUseCase) now() time.Time {
	if uc.Clock == nil {
		return time.Now().UTC()
	}
	return uc.Clock.Now().UTC()
}
