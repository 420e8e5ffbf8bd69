package queries_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"assembly/contexts/assembly/voting-engine/adapters/memory"
	"assembly/contexts/assembly/voting-engine/application/commands"
	"assembly/contexts/assembly/voting-engine/application/queries"
	"assembly/contexts/assembly/voting-engine/domain/entities"
	domainerrors "assembly/contexts/assembly/voting-engine/domain/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mutableClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *mutableClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *mutableClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestVotingSessionEndToEnd(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	clock := &mutableClock{now: time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)}

	sessions := commands.SessionUseCase{Sessions: store, Clock: clock, IDGen: store}
	agenda := commands.AgendaUseCase{Sessions: store, Agenda: store, Clock: clock, IDGen: store}
	ballots := commands.BallotUseCase{Agenda: store, Ballots: store, Clock: clock, IDGen: store}
	tally := queries.TallyUseCase{Agenda: store, Ballots: store, Clock: clock}

	session, err := sessions.CreateSession(ctx, commands.CreateSessionCommand{
		StartsAt: clock.Now().Add(time.Minute),
		EndsAt:   clock.Now().Add(2 * time.Hour),
	})
	require.NoError(t, err)
	item, err := agenda.CreateAgendaItem(ctx, commands.CreateAgendaItemCommand{
		Title:     "Approve the new bylaws",
		SessionID: session.SessionID,
	})
	require.NoError(t, err)

	cast := commands.CastBallotCommand{AgendaItemID: item.AgendaItemID, ParticipantID: "111.444.777-35", Choice: "YES"}
	_, err = ballots.Cast(ctx, cast)
	require.ErrorIs(t, err, domainerrors.ErrSessionNotOpen)

	clock.Advance(2 * time.Minute)
	_, err = ballots.Cast(ctx, cast)
	require.NoError(t, err)
	_, err = ballots.Cast(ctx, cast)
	require.ErrorIs(t, err, domainerrors.ErrAlreadyVoted)

	running, err := tally.Tally(ctx, item.AgendaItemID)
	require.NoError(t, err)
	assert.False(t, running.SessionEnded)
	assert.Equal(t, entities.OutcomeInProgress, running.Outcome)
	assert.Equal(t, int64(1), running.Total)

	clock.Advance(3 * time.Hour)
	final, err := tally.Tally(ctx, item.AgendaItemID)
	require.NoError(t, err)
	assert.True(t, final.SessionEnded)
	assert.Equal(t, "Approve the new bylaws", final.Title)
	assert.Equal(t, int64(1), final.Affirmative)
	assert.Zero(t, final.Negative)
	assert.Equal(t, 100.0, final.AffirmativePct)
	assert.Equal(t, 0.0, final.NegativePct)
	assert.Equal(t, entities.OutcomeApproved, final.Outcome)
	assert.Equal(t, entities.ChoiceYes, final.Winner)

	_, err = ballots.Cast(ctx, commands.CastBallotCommand{
		AgendaItemID:  item.AgendaItemID,
		ParticipantID: "529.982.247-25",
		Choice:        "NO",
	})
	require.ErrorIs(t, err, domainerrors.ErrSessionNotOpen)
}

func TestTallyIsRepeatable(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	start := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := &mutableClock{now: start}
	seedEndedItem(t, store, start)
	for i, vote := range []struct {
		key    string
		choice entities.Choice
	}{
		{"11144477735", entities.ChoiceYes},
		{"52998224725", entities.ChoiceNo},
		{"12345678909", entities.ChoiceNo},
	} {
		require.NoError(t, store.InsertBallot(ctx, entities.Ballot{
			BallotID:       string(rune('a' + i)),
			AgendaItemID:   "item-1",
			ParticipantID:  vote.key,
			ParticipantKey: vote.key,
			Choice:         vote.choice,
			CastAt:         start.Add(-30 * time.Minute),
		}))
	}

	tally := queries.TallyUseCase{Agenda: store, Ballots: store, Clock: clock}
	first, err := tally.Tally(ctx, "item-1")
	require.NoError(t, err)
	second, err := tally.Tally(ctx, "item-1")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int64(3), first.Total)
	assert.Equal(t, 33.33, first.AffirmativePct)
	assert.Equal(t, 66.67, first.NegativePct)
	assert.Equal(t, entities.OutcomeRejected, first.Outcome)
	assert.Equal(t, entities.ChoiceNo, first.Winner)
}

func TestTallyUnknownItem(t *testing.T) {
	store := memory.NewStore()
	tally := queries.TallyUseCase{Agenda: store, Ballots: store}

	_, err := tally.Tally(context.Background(), "")
	require.ErrorIs(t, err, domainerrors.ErrAgendaItemNotFound)
	_, err = tally.Tally(context.Background(), "missing")
	require.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestTallyEndedWithoutBallots(t *testing.T) {
	store := memory.NewStore()
	start := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	seedEndedItem(t, store, start)

	result, err := queries.TallyUseCase{Agenda: store, Ballots: store, Clock: &mutableClock{now: start}}.
		Tally(context.Background(), "item-1")
	require.NoError(t, err)
	assert.Zero(t, result.Total)
	assert.Zero(t, result.AffirmativePct)
	assert.Equal(t, entities.OutcomeNoBallots, result.Outcome)
}

func seedEndedItem(t *testing.T, store *memory.Store, now time.Time) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, store.SaveSession(ctx, entities.Session{
		SessionID: "session-1",
		StartsAt:  now.Add(-2 * time.Hour),
		EndsAt:    now.Add(-time.Hour),
	}))
	require.NoError(t, store.SaveAgendaItem(ctx, entities.AgendaItem{
		AgendaItemID: "item-1",
		Title:        "Renew the contract",
		SessionID:    "session-1",
	}))
}
