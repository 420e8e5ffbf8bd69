package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"assembly/contexts/assembly/voting-engine/domain/entities"
	domainerrors "assembly/contexts/assembly/voting-engine/domain/errors"
	"assembly/contexts/assembly/voting-engine/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedItem(t *testing.T, store *Store) entities.AgendaItem {
	t.Helper()
	ctx := context.Background()
	now := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, store.SaveSession(ctx, entities.Session{
		SessionID: "session-1",
		StartsAt:  now,
		EndsAt:    now.Add(time.Hour),
	}))
	require.NoError(t, store.SaveAgendaItem(ctx, entities.AgendaItem{
		AgendaItemID: "item-1",
		Title:        "Budget",
		SessionID:    "session-1",
	}))
	item, err := store.GetAgendaItem(ctx, "item-1")
	require.NoError(t, err)
	return item
}

func TestInsertBallotRejectsSecondBallotForSameParticipant(t *testing.T) {
	store := NewStore()
	item := seedItem(t, store)
	ctx := context.Background()

	first := entities.Ballot{BallotID: "b-1", AgendaItemID: item.AgendaItemID, ParticipantKey: "11144477735", Choice: entities.ChoiceYes}
	second := entities.Ballot{BallotID: "b-2", AgendaItemID: item.AgendaItemID, ParticipantKey: "11144477735", Choice: entities.ChoiceNo}

	require.NoError(t, store.InsertBallot(ctx, first, ports.EventEnvelope{EventID: "b-1", EventType: "ballot.accepted"}))
	err := store.InsertBallot(ctx, second, ports.EventEnvelope{EventID: "b-2", EventType: "ballot.accepted"})
	require.ErrorIs(t, err, domainerrors.ErrAlreadyVoted)

	pending, err := store.ListPendingOutbox(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "b-1", pending[0].OutboxID)

	yes, err := store.CountByItemAndChoice(ctx, item.AgendaItemID, entities.ChoiceYes)
	require.NoError(t, err)
	no, err := store.CountByItemAndChoice(ctx, item.AgendaItemID, entities.ChoiceNo)
	require.NoError(t, err)
	total, err := store.CountByItem(ctx, item.AgendaItemID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), yes)
	assert.Zero(t, no)
	assert.Equal(t, int64(1), total)
}

func TestInsertBallotConcurrentAttemptsAdmitExactlyOne(t *testing.T) {
	store := NewStore()
	item := seedItem(t, store)
	ctx := context.Background()

	const attempts = 64
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := store.InsertBallot(ctx, entities.Ballot{
				BallotID:       fmt.Sprintf("b-%d", i),
				AgendaItemID:   item.AgendaItemID,
				ParticipantKey: "52998224725",
				Choice:         entities.ChoiceYes,
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, domainerrors.ErrAlreadyVoted):
				conflicts++
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, attempts-1, conflicts)
	assert.Len(t, store.ListBallots(item.AgendaItemID), 1)
}

func TestGetAgendaItemResolvesSession(t *testing.T) {
	store := NewStore()
	item := seedItem(t, store)
	assert.Equal(t, "session-1", item.Session.SessionID)

	_, err := store.GetAgendaItem(context.Background(), "missing")
	require.ErrorIs(t, err, domainerrors.ErrAgendaItemNotFound)
	require.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestSaveAgendaItemRequiresExistingSession(t *testing.T) {
	store := NewStore()
	err := store.SaveAgendaItem(context.Background(), entities.AgendaItem{
		AgendaItemID: "item-1",
		Title:        "Orphan",
		SessionID:    "missing",
	}, ports.EventEnvelope{EventID: "e-1"})
	require.ErrorIs(t, err, domainerrors.ErrSessionNotFound)

	pending, err := store.ListPendingOutbox(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestOutboxListsInAppendOrderAndMarksPublished(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	at := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		require.NoError(t, store.SaveSession(ctx, entities.Session{SessionID: fmt.Sprintf("s-%d", i)}, ports.EventEnvelope{
			EventID:    fmt.Sprintf("e-%d", i),
			EventType:  "session.created",
			OccurredAt: at,
		}))
	}

	pending, err := store.ListPendingOutbox(ctx, 2)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "e-0", pending[0].OutboxID)
	assert.Equal(t, "e-1", pending[1].OutboxID)

	require.NoError(t, store.MarkOutboxPublished(ctx, "e-0", at))
	pending, err = store.ListPendingOutbox(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "e-1", pending[0].OutboxID)

	require.ErrorIs(t, store.MarkOutboxPublished(ctx, "unknown", at), domainerrors.ErrConflict)
}

func TestMarkOutboxFailedDropsRowFromPending(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	at := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 2; i++ {
		require.NoError(t, store.SaveSession(ctx, entities.Session{SessionID: fmt.Sprintf("s-%d", i)}, ports.EventEnvelope{
			EventID:    fmt.Sprintf("e-%d", i),
			EventType:  "session.created",
			OccurredAt: at,
		}))
	}

	require.NoError(t, store.MarkOutboxFailed(ctx, "e-0", at))
	pending, err := store.ListPendingOutbox(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "e-1", pending[0].OutboxID)

	require.ErrorIs(t, store.MarkOutboxFailed(ctx, "unknown", at), domainerrors.ErrConflict)
}
