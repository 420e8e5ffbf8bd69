package postgresadapter

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"assembly/contexts/assembly/voting-engine/domain/entities"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestIsUniqueViolation(t *testing.T) {
	unique := &pgconn.PgError{Code: "23505", ConstraintName: "ux_ballots_item_participant"}
	assert.True(t, isUniqueViolation(unique))
	assert.True(t, isUniqueViolation(fmt.Errorf("insert ballot: %w", unique)))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, isUniqueViolation(errors.New("23505")))
	assert.False(t, isUniqueViolation(nil))
}

func TestModelsNormalizeToUTC(t *testing.T) {
	sp := time.FixedZone("BRT", -3*60*60)
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, sp)

	session := sessionModelFromEntity(entities.Session{
		SessionID: " s-1 ",
		StartsAt:  start,
		EndsAt:    start.Add(time.Hour),
		CreatedAt: start,
	}).toEntity()
	assert.Equal(t, "s-1", session.SessionID)
	assert.Equal(t, time.UTC, session.StartsAt.Location())
	assert.True(t, session.StartsAt.Equal(start))

	item := agendaItemModelFromEntity(entities.AgendaItem{
		AgendaItemID: "a-1",
		Title:        "Budget",
		SessionID:    " s-1 ",
		CreatedAt:    start,
	}).toEntity()
	assert.Equal(t, "s-1", item.SessionID)

	ballot := ballotModelFromEntity(entities.Ballot{
		BallotID:       "b-1",
		AgendaItemID:   "a-1",
		ParticipantID:  "111.444.777-35",
		ParticipantKey: "11144477735",
		Choice:         entities.ChoiceNo,
		CastAt:         start,
	})
	assert.Equal(t, "NO", ballot.Choice)
	assert.Equal(t, "11144477735", ballot.ParticipantKey)
	assert.Equal(t, time.UTC, ballot.CastAt.Location())
}

func TestSystemClockIsUTC(t *testing.T) {
	assert.Equal(t, time.UTC, SystemClock{}.Now().Location())
}
