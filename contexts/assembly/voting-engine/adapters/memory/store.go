package memory

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"assembly/contexts/assembly/voting-engine/domain/entities"
	domainerrors "assembly/contexts/assembly/voting-engine/domain/errors"
	"assembly/contexts/assembly/voting-engine/ports"

	"github.com/google/uuid"
)

type outboxRecord struct {
	message   ports.OutboxMessage
	published bool
	failed    bool
	seq       int64
}

type ballotKey struct {
	agendaItemID   string
	participantKey string
}

// Store keeps the whole voting state in process memory. A single mutex makes
// every write, including ballot plus outbox rows, atomic.
type Store struct {
	mu sync.RWMutex

	sessions     map[string]entities.Session
	agenda       map[string]entities.AgendaItem
	ballots      map[string]entities.Ballot
	participants map[ballotKey]string
	outbox       map[string]outboxRecord
	outboxSeq    int64
}

func NewStore() *Store {
	return &Store{
		sessions:     make(map[string]entities.Session),
		agenda:       make(map[string]entities.AgendaItem),
		ballots:      make(map[string]entities.Ballot),
		participants: make(map[ballotKey]string),
		outbox:       make(map[string]outboxRecord),
	}
}

func (s *Store) SaveSession(_ context.Context, session entities.Session, facts ...ports.EventEnvelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.prepareOutboxLocked(facts)
	if err != nil {
		return err
	}
	s.sessions[strings.TrimSpace(session.SessionID)] = session
	s.commitOutboxLocked(rows)
	return nil
}

func (s *Store) GetSession(_ context.Context, sessionID string) (entities.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[strings.TrimSpace(sessionID)]
	if !ok {
		return entities.Session{}, domainerrors.ErrSessionNotFound
	}
	return session, nil
}

func (s *Store) SaveAgendaItem(_ context.Context, item entities.AgendaItem, facts ...ports.EventEnvelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[strings.TrimSpace(item.SessionID)]; !ok {
		return domainerrors.ErrSessionNotFound
	}
	rows, err := s.prepareOutboxLocked(facts)
	if err != nil {
		return err
	}
	item.Session = entities.Session{}
	s.agenda[strings.TrimSpace(item.AgendaItemID)] = item
	s.commitOutboxLocked(rows)
	return nil
}

func (s *Store) GetAgendaItem(_ context.Context, agendaItemID string) (entities.AgendaItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.agenda[strings.TrimSpace(agendaItemID)]
	if !ok {
		return entities.AgendaItem{}, domainerrors.ErrAgendaItemNotFound
	}
	session, ok := s.sessions[item.SessionID]
	if !ok {
		return entities.AgendaItem{}, domainerrors.ErrSessionNotFound
	}
	item.Session = session
	return item, nil
}

func (s *Store) ExistsByItemAndParticipant(_ context.Context, agendaItemID string, participantKey string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.participants[ballotKey{
		agendaItemID:   strings.TrimSpace(agendaItemID),
		participantKey: strings.TrimSpace(participantKey),
	}]
	return ok, nil
}

func (s *Store) InsertBallot(_ context.Context, ballot entities.Ballot, facts ...ports.EventEnvelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := ballotKey{
		agendaItemID:   strings.TrimSpace(ballot.AgendaItemID),
		participantKey: strings.TrimSpace(ballot.ParticipantKey),
	}
	if _, ok := s.participants[key]; ok {
		return domainerrors.ErrAlreadyVoted
	}
	if _, ok := s.ballots[ballot.BallotID]; ok {
		return domainerrors.ErrAlreadyVoted
	}
	rows, err := s.prepareOutboxLocked(facts)
	if err != nil {
		return err
	}
	s.ballots[ballot.BallotID] = ballot
	s.participants[key] = ballot.BallotID
	s.commitOutboxLocked(rows)
	return nil
}

func (s *Store) CountByItemAndChoice(_ context.Context, agendaItemID string, choice entities.Choice) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var count int64
	for _, ballot := range s.ballots {
		if ballot.AgendaItemID == strings.TrimSpace(agendaItemID) && ballot.Choice == choice {
			count++
		}
	}
	return count, nil
}

func (s *Store) CountByItem(_ context.Context, agendaItemID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var count int64
	for _, ballot := range s.ballots {
		if ballot.AgendaItemID == strings.TrimSpace(agendaItemID) {
			count++
		}
	}
	return count, nil
}

// ListBallots returns the item's ballots in cast order.
func (s *Store) ListBallots(agendaItemID string) []entities.Ballot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Ballot, 0)
	for _, ballot := range s.ballots {
		if ballot.AgendaItemID == strings.TrimSpace(agendaItemID) {
			items = append(items, ballot)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CastAt.Before(items[j].CastAt)
	})
	return items
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	rows := make([]outboxRecord, 0, len(s.outbox))
	for _, row := range s.outbox {
		if row.published || row.failed {
			continue
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].seq < rows[j].seq
	})
	if len(rows) > limit {
		rows = rows[:limit]
	}
	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.message)
	}
	return items, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.outbox[strings.TrimSpace(outboxID)]
	if !ok {
		return domainerrors.ErrConflict
	}
	row.published = true
	s.outbox[strings.TrimSpace(outboxID)] = row
	return nil
}

func (s *Store) MarkOutboxFailed(_ context.Context, outboxID string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.outbox[strings.TrimSpace(outboxID)]
	if !ok {
		return domainerrors.ErrConflict
	}
	row.failed = true
	s.outbox[strings.TrimSpace(outboxID)] = row
	return nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

func (s *Store) prepareOutboxLocked(facts []ports.EventEnvelope) ([]ports.OutboxMessage, error) {
	rows := make([]ports.OutboxMessage, 0, len(facts))
	for _, envelope := range facts {
		payload, err := json.Marshal(envelope)
		if err != nil {
			return nil, err
		}
		outboxID := strings.TrimSpace(envelope.EventID)
		if outboxID == "" {
			outboxID = uuid.NewString()
		}
		if _, ok := s.outbox[outboxID]; ok {
			return nil, domainerrors.ErrConflict
		}
		createdAt := envelope.OccurredAt.UTC()
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}
		rows = append(rows, ports.OutboxMessage{
			OutboxID:     outboxID,
			EventType:    strings.TrimSpace(envelope.EventType),
			PartitionKey: strings.TrimSpace(envelope.PartitionKey),
			Payload:      payload,
			CreatedAt:    createdAt,
		})
	}
	return rows, nil
}

func (s *Store) commitOutboxLocked(rows []ports.OutboxMessage) {
	for _, row := range rows {
		s.outboxSeq++
		s.outbox[row.OutboxID] = outboxRecord{message: row, seq: s.outboxSeq}
	}
}

var _ ports.SessionRepository = (*Store)(nil)
var _ ports.AgendaRepository = (*Store)(nil)
var _ ports.BallotStore = (*Store)(nil)
var _ ports.OutboxRepository = (*Store)(nil)
var _ ports.Clock = (*Store)(nil)
var _ ports.IDGenerator = (*Store)(nil)
