// Package sqlite provides an embedded SQLite implementation of the voting
// storage ports for single-node deployments and tests.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"assembly/contexts/assembly/voting-engine/adapters/sqlite/migrations"
	"assembly/contexts/assembly/voting-engine/domain/entities"
	domainerrors "assembly/contexts/assembly/voting-engine/domain/errors"
	"assembly/contexts/assembly/voting-engine/ports"
	"assembly/internal/platform/db"

	"github.com/google/uuid"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

const (
	outboxStatusPending   = "pending"
	outboxStatusPublished = "published"
	outboxStatusFailed    = "failed"
)

// Store persists voting state in SQLite.
type Store struct {
	sqlDB  *sql.DB
	logger *slog.Logger
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite voting store at path and applies embedded migrations.
func Open(ctx context.Context, path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	sqlDB, err := db.OpenSQLite(ctx, path)
	if err != nil {
		return nil, err
	}
	if err := db.ApplyMigrations(ctx, sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB, logger: logger}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) SaveSession(ctx context.Context, session entities.Session, facts ...ports.EventEnvelope) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO voting_sessions (id, starts_at, ends_at, version, created_at) VALUES (?, ?, ?, ?, ?)`,
			strings.TrimSpace(session.SessionID),
			toMillis(session.StartsAt),
			toMillis(session.EndsAt),
			session.Version,
			toMillis(session.CreatedAt),
		); err != nil {
			return s.logError("voting_sqlite_save_session_failed", err, "session_id", session.SessionID)
		}
		return s.appendOutbox(ctx, tx, facts)
	})
}

func (s *Store) GetSession(ctx context.Context, sessionID string) (entities.Session, error) {
	var (
		session   entities.Session
		startsAt  int64
		endsAt    int64
		createdAt int64
	)
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT id, starts_at, ends_at, version, created_at FROM voting_sessions WHERE id = ?`,
		strings.TrimSpace(sessionID),
	).Scan(&session.SessionID, &startsAt, &endsAt, &session.Version, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.Session{}, domainerrors.ErrSessionNotFound
	}
	if err != nil {
		return entities.Session{}, s.logError("voting_sqlite_get_session_failed", err, "session_id", sessionID)
	}
	session.StartsAt = fromMillis(startsAt)
	session.EndsAt = fromMillis(endsAt)
	session.CreatedAt = fromMillis(createdAt)
	return session, nil
}

func (s *Store) SaveAgendaItem(ctx context.Context, item entities.AgendaItem, facts ...ports.EventEnvelope) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		var found int
		err := tx.QueryRowContext(ctx,
			`SELECT 1 FROM voting_sessions WHERE id = ?`,
			strings.TrimSpace(item.SessionID),
		).Scan(&found)
		if errors.Is(err, sql.ErrNoRows) {
			return domainerrors.ErrSessionNotFound
		}
		if err != nil {
			return s.logError("voting_sqlite_save_agenda_session_lookup_failed", err, "session_id", item.SessionID)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO voting_agenda_items (id, title, description, session_id, created_at) VALUES (?, ?, ?, ?, ?)`,
			strings.TrimSpace(item.AgendaItemID),
			item.Title,
			item.Description,
			strings.TrimSpace(item.SessionID),
			toMillis(item.CreatedAt),
		); err != nil {
			return s.logError("voting_sqlite_save_agenda_failed", err, "agenda_item_id", item.AgendaItemID)
		}
		return s.appendOutbox(ctx, tx, facts)
	})
}

func (s *Store) GetAgendaItem(ctx context.Context, agendaItemID string) (entities.AgendaItem, error) {
	var (
		item          entities.AgendaItem
		itemCreatedAt int64
		startsAt      int64
		endsAt        int64
		sessCreatedAt int64
	)
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT a.id, a.title, a.description, a.session_id, a.created_at,
		        s.starts_at, s.ends_at, s.version, s.created_at
		   FROM voting_agenda_items a
		   JOIN voting_sessions s ON s.id = a.session_id
		  WHERE a.id = ?`,
		strings.TrimSpace(agendaItemID),
	).Scan(
		&item.AgendaItemID,
		&item.Title,
		&item.Description,
		&item.SessionID,
		&itemCreatedAt,
		&startsAt,
		&endsAt,
		&item.Session.Version,
		&sessCreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.AgendaItem{}, domainerrors.ErrAgendaItemNotFound
	}
	if err != nil {
		return entities.AgendaItem{}, s.logError("voting_sqlite_get_agenda_failed", err, "agenda_item_id", agendaItemID)
	}
	item.CreatedAt = fromMillis(itemCreatedAt)
	item.Session.SessionID = item.SessionID
	item.Session.StartsAt = fromMillis(startsAt)
	item.Session.EndsAt = fromMillis(endsAt)
	item.Session.CreatedAt = fromMillis(sessCreatedAt)
	return item, nil
}

func (s *Store) ExistsByItemAndParticipant(ctx context.Context, agendaItemID string, participantKey string) (bool, error) {
	var found int
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT 1 FROM voting_ballots WHERE agenda_item_id = ? AND participant_key = ? LIMIT 1`,
		strings.TrimSpace(agendaItemID),
		strings.TrimSpace(participantKey),
	).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, s.logError("voting_sqlite_ballot_exists_failed", err, "agenda_item_id", agendaItemID)
	}
	return true, nil
}

// InsertBallot writes the ballot and its outbox rows in one transaction; the
// UNIQUE (agenda_item_id, participant_key) constraint decides races.
func (s *Store) InsertBallot(ctx context.Context, ballot entities.Ballot, facts ...ports.EventEnvelope) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO voting_ballots (id, agenda_item_id, participant_id, participant_key, choice, cast_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			strings.TrimSpace(ballot.BallotID),
			strings.TrimSpace(ballot.AgendaItemID),
			ballot.ParticipantID,
			strings.TrimSpace(ballot.ParticipantKey),
			string(ballot.Choice),
			toMillis(ballot.CastAt),
		); err != nil {
			if isUniqueViolation(err) {
				return domainerrors.ErrAlreadyVoted
			}
			return s.logError("voting_sqlite_insert_ballot_failed", err,
				"ballot_id", ballot.BallotID,
				"agenda_item_id", ballot.AgendaItemID,
			)
		}
		return s.appendOutbox(ctx, tx, facts)
	})
}

func (s *Store) CountByItemAndChoice(ctx context.Context, agendaItemID string, choice entities.Choice) (int64, error) {
	var count int64
	if err := s.sqlDB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM voting_ballots WHERE agenda_item_id = ? AND choice = ?`,
		strings.TrimSpace(agendaItemID),
		string(choice),
	).Scan(&count); err != nil {
		return 0, s.logError("voting_sqlite_count_by_choice_failed", err, "agenda_item_id", agendaItemID)
	}
	return count, nil
}

func (s *Store) CountByItem(ctx context.Context, agendaItemID string) (int64, error) {
	var count int64
	if err := s.sqlDB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM voting_ballots WHERE agenda_item_id = ?`,
		strings.TrimSpace(agendaItemID),
	).Scan(&count); err != nil {
		return 0, s.logError("voting_sqlite_count_by_item_failed", err, "agenda_item_id", agendaItemID)
	}
	return count, nil
}

func (s *Store) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT outbox_id, event_type, partition_key, payload, created_at
		   FROM voting_outbox
		  WHERE status = ?
		  ORDER BY seq ASC
		  LIMIT ?`,
		outboxStatusPending,
		limit,
	)
	if err != nil {
		return nil, s.logError("voting_sqlite_list_pending_outbox_failed", err, "limit", limit)
	}
	defer rows.Close()

	items := make([]ports.OutboxMessage, 0, limit)
	for rows.Next() {
		var (
			message   ports.OutboxMessage
			createdAt int64
		)
		if err := rows.Scan(&message.OutboxID, &message.EventType, &message.PartitionKey, &message.Payload, &createdAt); err != nil {
			return nil, s.logError("voting_sqlite_scan_outbox_failed", err)
		}
		message.CreatedAt = fromMillis(createdAt)
		items = append(items, message)
	}
	if err := rows.Err(); err != nil {
		return nil, s.logError("voting_sqlite_iterate_outbox_failed", err)
	}
	return items, nil
}

func (s *Store) MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error {
	result, err := s.sqlDB.ExecContext(ctx,
		`UPDATE voting_outbox SET status = ?, published_at = ? WHERE outbox_id = ?`,
		outboxStatusPublished,
		toMillis(publishedAt),
		strings.TrimSpace(outboxID),
	)
	if err != nil {
		return s.logError("voting_sqlite_mark_outbox_published_failed", err, "outbox_id", outboxID)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domainerrors.ErrConflict
	}
	return nil
}

func (s *Store) MarkOutboxFailed(ctx context.Context, outboxID string, _ time.Time) error {
	result, err := s.sqlDB.ExecContext(ctx,
		`UPDATE voting_outbox SET status = ? WHERE outbox_id = ? AND status = ?`,
		outboxStatusFailed,
		strings.TrimSpace(outboxID),
		outboxStatusPending,
	)
	if err != nil {
		return s.logError("voting_sqlite_mark_outbox_failed_failed", err, "outbox_id", outboxID)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domainerrors.ErrConflict
	}
	return nil
}

func (s *Store) appendOutbox(ctx context.Context, tx *sql.Tx, facts []ports.EventEnvelope) error {
	for _, envelope := range facts {
		payload, err := json.Marshal(envelope)
		if err != nil {
			return s.logError("voting_sqlite_append_outbox_marshal_failed", err, "event_id", envelope.EventID)
		}
		outboxID := strings.TrimSpace(envelope.EventID)
		if outboxID == "" {
			outboxID = uuid.NewString()
		}
		createdAt := envelope.OccurredAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO voting_outbox (outbox_id, event_type, partition_key, payload, status, created_at)
			 VALUES (?, ?, ?, ?, ?, ?)
			 ON CONFLICT (outbox_id) DO NOTHING`,
			outboxID,
			strings.TrimSpace(envelope.EventType),
			strings.TrimSpace(envelope.PartitionKey),
			payload,
			outboxStatusPending,
			toMillis(createdAt),
		); err != nil {
			return s.logError("voting_sqlite_append_outbox_failed", err, "outbox_id", outboxID)
		}
	}
	return nil
}

func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return s.logError("voting_sqlite_begin_tx_failed", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return s.logError("voting_sqlite_commit_failed", err)
	}
	return nil
}

func (s *Store) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "assembly/voting-engine",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	s.logger.Error("voting sqlite operation failed", fields...)
	return err
}

func isUniqueViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

var _ ports.SessionRepository = (*Store)(nil)
var _ ports.AgendaRepository = (*Store)(nil)
var _ ports.BallotStore = (*Store)(nil)
var _ ports.OutboxRepository = (*Store)(nil)
