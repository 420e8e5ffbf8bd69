package commands_test

import (
	"context"
	"testing"
	"time"

	"assembly/contexts/assembly/voting-engine/application/commands"
	domainerrors "assembly/contexts/assembly/voting-engine/domain/errors"
	contractsv1 "assembly/contracts/events/v1"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateSessionStretchesShortWindow(t *testing.T) {
	now := time.Date(2026, 5, 10, 14, 0, 0, 0, time.UTC)
	f := newFixture(now)

	session, err := f.sessions.CreateSession(context.Background(), commands.CreateSessionCommand{
		StartsAt: now,
		EndsAt:   now.Add(10 * time.Second),
	})
	require.NoError(t, err)
	assert.Equal(t, now.Add(time.Minute), session.EndsAt)
	assert.Zero(t, session.Version)
	assert.NotEmpty(t, session.SessionID)

	inverted, err := f.sessions.CreateSession(context.Background(), commands.CreateSessionCommand{
		StartsAt: now,
		EndsAt:   now.Add(-time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, now.Add(time.Minute), inverted.EndsAt)

	stored, err := f.sessions.GetSession(context.Background(), session.SessionID)
	require.NoError(t, err)
	assert.Equal(t, session.EndsAt, stored.EndsAt)

	assert.Len(t, pendingOfType(t, f.store, contractsv1.EventTypeSessionCreated), 2)
}

func TestCreateSessionRequiresWindow(t *testing.T) {
	f := newFixture(time.Now().UTC())
	_, err := f.sessions.CreateSession(context.Background(), commands.CreateSessionCommand{StartsAt: time.Now()})
	require.ErrorIs(t, err, domainerrors.ErrSessionWindowRequired)
	require.ErrorIs(t, err, domainerrors.ErrValidation)
}

func TestGetSessionUnknown(t *testing.T) {
	f := newFixture(time.Now().UTC())
	_, err := f.sessions.GetSession(context.Background(), "nope")
	require.ErrorIs(t, err, domainerrors.ErrSessionNotFound)
}

func TestCreateAgendaItemValidation(t *testing.T) {
	now := time.Date(2026, 5, 10, 14, 0, 0, 0, time.UTC)
	f := newFixture(now)
	ctx := context.Background()
	session, err := f.sessions.CreateSession(ctx, commands.CreateSessionCommand{StartsAt: now, EndsAt: now.Add(time.Hour)})
	require.NoError(t, err)

	_, err = f.agenda.CreateAgendaItem(ctx, commands.CreateAgendaItemCommand{Title: "Budget"})
	require.ErrorIs(t, err, domainerrors.ErrSessionRequired)

	_, err = f.agenda.CreateAgendaItem(ctx, commands.CreateAgendaItemCommand{Title: "Budget", SessionID: "missing"})
	require.ErrorIs(t, err, domainerrors.ErrSessionNotFound)
	require.ErrorIs(t, err, domainerrors.ErrNotFound)

	_, err = f.agenda.CreateAgendaItem(ctx, commands.CreateAgendaItemCommand{Title: "   ", SessionID: session.SessionID})
	require.ErrorIs(t, err, domainerrors.ErrTitleRequired)

	item, err := f.agenda.CreateAgendaItem(ctx, commands.CreateAgendaItemCommand{
		Title:       "  Budget  ",
		Description: "Annual",
		SessionID:   session.SessionID,
	})
	require.NoError(t, err)
	assert.Equal(t, "Budget", item.Title)

	loaded, err := f.agenda.GetAgendaItem(ctx, item.AgendaItemID)
	require.NoError(t, err)
	assert.Equal(t, session.SessionID, loaded.Session.SessionID)
	assert.Len(t, pendingOfType(t, f.store, contractsv1.EventTypeAgendaItemCreated), 1)
}
