package entities

import (
	"strings"
	"time"
)

type Choice string

const (
	ChoiceYes Choice = "YES"
	ChoiceNo  Choice = "NO"
)

func (c Choice) Valid() bool {
	return c == ChoiceYes || c == ChoiceNo
}

// ParseChoice accepts YES/NO in any case. Anything else yields an empty,
// invalid choice.
func ParseChoice(raw string) Choice {
	switch Choice(strings.ToUpper(strings.TrimSpace(raw))) {
	case ChoiceYes:
		return ChoiceYes
	case ChoiceNo:
		return ChoiceNo
	default:
		return ""
	}
}

// Ballot is one participant's recorded choice on one agenda item.
// ParticipantKey is the digit-only identifier; at most one ballot exists per
// (AgendaItemID, ParticipantKey).
type Ballot struct {
	BallotID       string
	AgendaItemID   string
	ParticipantID  string
	ParticipantKey string
	Choice         Choice
	CastAt         time.Time
}
