package entities

import (
	"math"
	"time"
)

const (
	OutcomeInProgress = "voting in progress"
	OutcomeNoBallots  = "no ballots recorded"
	OutcomeApproved   = "approved"
	OutcomeRejected   = "rejected"
	OutcomeTied       = "tied"
)

type TallyResult struct {
	AgendaItemID   string
	Title          string
	Affirmative    int64
	Negative       int64
	Total          int64
	AffirmativePct float64
	NegativePct    float64
	SessionEnded   bool
	Winner         Choice
	Outcome        string
}

// ComputeTally derives the result for an item from its vote counts. It is a
// pure function of its inputs.
func ComputeTally(item AgendaItem, affirmative int64, negative int64, now time.Time) TallyResult {
	total := affirmative + negative
	result := TallyResult{
		AgendaItemID:   item.AgendaItemID,
		Title:          item.Title,
		Affirmative:    affirmative,
		Negative:       negative,
		Total:          total,
		AffirmativePct: percentage(affirmative, total),
		NegativePct:    percentage(negative, total),
		SessionEnded:   item.Session.Ended(now),
	}

	switch {
	case !result.SessionEnded:
		result.Outcome = OutcomeInProgress
	case total == 0:
		result.Outcome = OutcomeNoBallots
	case affirmative > negative:
		result.Winner = ChoiceYes
		result.Outcome = OutcomeApproved
	case negative > affirmative:
		result.Winner = ChoiceNo
		result.Outcome = OutcomeRejected
	default:
		result.Outcome = OutcomeTied
	}
	return result
}

func percentage(part int64, total int64) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(part)*100/float64(total)*100) / 100
}
