package entities

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeWindowStretchesShortAndInvertedWindows(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	_, end := NormalizeWindow(start, start.Add(30*time.Second))
	assert.Equal(t, start.Add(time.Minute), end)

	_, end = NormalizeWindow(start, start.Add(-time.Hour))
	assert.Equal(t, start.Add(time.Minute), end)

	_, end = NormalizeWindow(start, start)
	assert.Equal(t, start.Add(time.Minute), end)

	_, end = NormalizeWindow(start, start.Add(2*time.Hour))
	assert.Equal(t, start.Add(2*time.Hour), end)
}

func TestSessionWindowBoundsAreInclusive(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	session := Session{StartsAt: start, EndsAt: start.Add(time.Hour)}

	assert.True(t, session.IsOpen(start))
	assert.True(t, session.IsOpen(start.Add(time.Hour)))
	assert.False(t, session.IsOpen(start.Add(-time.Nanosecond)))
	assert.True(t, session.NotStarted(start.Add(-time.Nanosecond)))
	assert.False(t, session.Ended(start.Add(time.Hour)))
	assert.True(t, session.Ended(start.Add(time.Hour+time.Nanosecond)))
}

func TestParseChoice(t *testing.T) {
	assert.Equal(t, ChoiceYes, ParseChoice(" yes "))
	assert.Equal(t, ChoiceNo, ParseChoice("NO"))
	assert.False(t, ParseChoice("maybe").Valid())
}

func TestComputeTallyOutcomes(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	item := AgendaItem{
		AgendaItemID: "item-1",
		Title:        "Budget",
		Session:      Session{StartsAt: start, EndsAt: start.Add(time.Hour)},
	}
	open := start.Add(10 * time.Minute)
	closed := start.Add(2 * time.Hour)

	cases := []struct {
		name    string
		yes     int64
		no      int64
		now     time.Time
		outcome string
		winner  Choice
	}{
		{"open session", 3, 1, open, OutcomeInProgress, ""},
		{"no ballots", 0, 0, closed, OutcomeNoBallots, ""},
		{"approved", 3, 1, closed, OutcomeApproved, ChoiceYes},
		{"rejected", 1, 2, closed, OutcomeRejected, ChoiceNo},
		{"tied", 2, 2, closed, OutcomeTied, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result := ComputeTally(item, tc.yes, tc.no, tc.now)
			assert.Equal(t, tc.outcome, result.Outcome)
			assert.Equal(t, tc.winner, result.Winner)
			assert.Equal(t, tc.yes+tc.no, result.Total)
		})
	}
}

func TestComputeTallyPercentages(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	item := AgendaItem{Session: Session{StartsAt: start, EndsAt: start.Add(time.Hour)}}

	result := ComputeTally(item, 2, 1, start)
	assert.Equal(t, 66.67, result.AffirmativePct)
	assert.Equal(t, 33.33, result.NegativePct)

	result = ComputeTally(item, 0, 0, start)
	assert.Zero(t, result.AffirmativePct)
	assert.Zero(t, result.NegativePct)

	result = ComputeTally(item, 1, 0, start)
	require.Equal(t, 100.0, result.AffirmativePct)
	assert.False(t, result.SessionEnded)
}
