package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"assembly/contexts/assembly/voting-engine/domain/entities"
	domainerrors "assembly/contexts/assembly/voting-engine/domain/errors"
	"assembly/contexts/assembly/voting-engine/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	outboxStatusPending   = "pending"
	outboxStatusPublished = "published"
	outboxStatusFailed    = "failed"
)

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Migrate creates or updates the voting tables, including the
// (agenda_item_id, participant_key) unique index on ballots.
func (r *Repository) Migrate(ctx context.Context) error {
	if err := r.db.WithContext(ctx).AutoMigrate(
		&sessionModel{},
		&agendaItemModel{},
		&ballotModel{},
		&outboxModel{},
	); err != nil {
		return r.logError("voting_repo_migrate_failed", err)
	}
	return nil
}

func (r *Repository) SaveSession(ctx context.Context, session entities.Session, facts ...ports.EventEnvelope) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := sessionModelFromEntity(session)
		if err := tx.Create(&row).Error; err != nil {
			return r.logError("voting_repo_save_session_failed", err,
				"session_id", row.SessionID,
			)
		}
		return r.appendOutbox(tx, facts)
	})
}

func (r *Repository) GetSession(ctx context.Context, sessionID string) (entities.Session, error) {
	var row sessionModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(sessionID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Session{}, domainerrors.ErrSessionNotFound
		}
		return entities.Session{}, r.logError("voting_repo_get_session_failed", err,
			"session_id", strings.TrimSpace(sessionID),
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) SaveAgendaItem(ctx context.Context, item entities.AgendaItem, facts ...ports.EventEnvelope) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var sessions int64
		if err := tx.Model(&sessionModel{}).
			Where("id = ?", strings.TrimSpace(item.SessionID)).
			Count(&sessions).Error; err != nil {
			return r.logError("voting_repo_save_agenda_session_lookup_failed", err,
				"session_id", strings.TrimSpace(item.SessionID),
			)
		}
		if sessions == 0 {
			return domainerrors.ErrSessionNotFound
		}
		row := agendaItemModelFromEntity(item)
		if err := tx.Create(&row).Error; err != nil {
			return r.logError("voting_repo_save_agenda_failed", err,
				"agenda_item_id", row.AgendaItemID,
			)
		}
		return r.appendOutbox(tx, facts)
	})
}

func (r *Repository) GetAgendaItem(ctx context.Context, agendaItemID string) (entities.AgendaItem, error) {
	var row agendaItemModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(agendaItemID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.AgendaItem{}, domainerrors.ErrAgendaItemNotFound
		}
		return entities.AgendaItem{}, r.logError("voting_repo_get_agenda_failed", err,
			"agenda_item_id", strings.TrimSpace(agendaItemID),
		)
	}
	session, err := r.GetSession(ctx, row.SessionID)
	if err != nil {
		return entities.AgendaItem{}, err
	}
	item := row.toEntity()
	item.Session = session
	return item, nil
}

func (r *Repository) ExistsByItemAndParticipant(ctx context.Context, agendaItemID string, participantKey string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&ballotModel{}).
		Where("agenda_item_id = ? AND participant_key = ?", strings.TrimSpace(agendaItemID), strings.TrimSpace(participantKey)).
		Limit(1).
		Count(&count).
		Error
	if err != nil {
		return false, r.logError("voting_repo_ballot_exists_failed", err,
			"agenda_item_id", strings.TrimSpace(agendaItemID),
		)
	}
	return count > 0, nil
}

// InsertBallot writes the ballot and its outbox rows in one transaction. A
// unique violation on either the ballot id or the participant index rolls
// everything back and surfaces as ErrAlreadyVoted.
func (r *Repository) InsertBallot(ctx context.Context, ballot entities.Ballot, facts ...ports.EventEnvelope) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := ballotModelFromEntity(ballot)
		if err := tx.Create(&row).Error; err != nil {
			if isUniqueViolation(err) {
				return domainerrors.ErrAlreadyVoted
			}
			return r.logError("voting_repo_insert_ballot_failed", err,
				"ballot_id", row.BallotID,
				"agenda_item_id", row.AgendaItemID,
			)
		}
		return r.appendOutbox(tx, facts)
	})
}

func (r *Repository) CountByItemAndChoice(ctx context.Context, agendaItemID string, choice entities.Choice) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&ballotModel{}).
		Where("agenda_item_id = ? AND choice = ?", strings.TrimSpace(agendaItemID), string(choice)).
		Count(&count).
		Error
	if err != nil {
		return 0, r.logError("voting_repo_count_by_choice_failed", err,
			"agenda_item_id", strings.TrimSpace(agendaItemID),
			"choice", string(choice),
		)
	}
	return count, nil
}

func (r *Repository) CountByItem(ctx context.Context, agendaItemID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&ballotModel{}).
		Where("agenda_item_id = ?", strings.TrimSpace(agendaItemID)).
		Count(&count).
		Error
	if err != nil {
		return 0, r.logError("voting_repo_count_by_item_failed", err,
			"agenda_item_id", strings.TrimSpace(agendaItemID),
		)
	}
	return count, nil
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []outboxModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", outboxStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, r.logError("voting_repo_list_pending_outbox_failed", err, "limit", limit)
	}
	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.OutboxMessage{
			OutboxID:     row.OutboxID,
			EventType:    row.EventType,
			PartitionKey: row.PartitionKey,
			Payload:      append([]byte(nil), row.Payload...),
			CreatedAt:    row.CreatedAt.UTC(),
		})
	}
	return items, nil
}

func (r *Repository) MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", strings.TrimSpace(outboxID)).
		Updates(map[string]any{
			"status":       outboxStatusPublished,
			"published_at": publishedAt.UTC(),
		})
	if result.Error != nil {
		return r.logError("voting_repo_mark_outbox_published_failed", result.Error,
			"outbox_id", strings.TrimSpace(outboxID),
		)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrConflict
	}
	return nil
}

// MarkOutboxFailed only moves pending rows; published_at stays empty.
func (r *Repository) MarkOutboxFailed(ctx context.Context, outboxID string, _ time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ? AND status = ?", strings.TrimSpace(outboxID), outboxStatusPending).
		Update("status", outboxStatusFailed)
	if result.Error != nil {
		return r.logError("voting_repo_mark_outbox_failed_failed", result.Error,
			"outbox_id", strings.TrimSpace(outboxID),
		)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrConflict
	}
	return nil
}

func (r *Repository) appendOutbox(tx *gorm.DB, facts []ports.EventEnvelope) error {
	for _, envelope := range facts {
		payload, err := json.Marshal(envelope)
		if err != nil {
			return r.logError("voting_repo_append_outbox_marshal_failed", err,
				"event_id", strings.TrimSpace(envelope.EventID),
				"event_type", strings.TrimSpace(envelope.EventType),
			)
		}
		row := outboxModel{
			OutboxID:     strings.TrimSpace(envelope.EventID),
			EventType:    strings.TrimSpace(envelope.EventType),
			PartitionKey: strings.TrimSpace(envelope.PartitionKey),
			Payload:      payload,
			Status:       outboxStatusPending,
			CreatedAt:    envelope.OccurredAt.UTC(),
		}
		if row.OutboxID == "" {
			row.OutboxID = uuid.NewString()
		}
		if row.CreatedAt.IsZero() {
			row.CreatedAt = time.Now().UTC()
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "outbox_id"}},
			DoNothing: true,
		}).Create(&row).Error; err != nil {
			return r.logError("voting_repo_append_outbox_insert_failed", err,
				"outbox_id", row.OutboxID,
			)
		}
	}
	return nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "assembly/voting-engine",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("voting repository operation failed", fields...)
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ ports.SessionRepository = (*Repository)(nil)
var _ ports.AgendaRepository = (*Repository)(nil)
var _ ports.BallotStore = (*Repository)(nil)
var _ ports.OutboxRepository = (*Repository)(nil)
