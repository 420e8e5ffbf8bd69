package http

import (
	"errors"
	"time"

	domainerrors "assembly/contexts/assembly/voting-engine/domain/errors"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type CreateSessionRequest struct {
	StartsAt time.Time `json:"starts_at" validate:"required"`
	EndsAt   time.Time `json:"ends_at" validate:"required"`
}

type SessionResponse struct {
	SessionID string    `json:"session_id"`
	StartsAt  time.Time `json:"starts_at"`
	EndsAt    time.Time `json:"ends_at"`
	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
}

type CreateAgendaItemRequest struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	SessionID   string `json:"session_id" validate:"required"`
}

type AgendaItemResponse struct {
	AgendaItemID string          `json:"agenda_item_id"`
	Title        string          `json:"title"`
	Description  string          `json:"description,omitempty"`
	SessionID    string          `json:"session_id"`
	Session      SessionResponse `json:"session"`
	CreatedAt    time.Time       `json:"created_at"`
}

type CastBallotRequest struct {
	AgendaItemID  string `json:"agenda_item_id" validate:"required"`
	ParticipantID string `json:"participant_id" validate:"required"`
	Choice        string `json:"choice" validate:"required"`
}

type BallotResponse struct {
	BallotID      string    `json:"ballot_id"`
	AgendaItemID  string    `json:"agenda_item_id"`
	ParticipantID string    `json:"participant_id"`
	Choice        string    `json:"choice"`
	CastAt        time.Time `json:"cast_at"`
}

type HasVotedResponse struct {
	AgendaItemID  string `json:"agenda_item_id"`
	ParticipantID string `json:"participant_id"`
	Voted         bool   `json:"voted"`
}

type TallyResponse struct {
	AgendaItemID   string  `json:"agenda_item_id"`
	Title          string  `json:"title"`
	Affirmative    int64   `json:"yes"`
	Negative       int64   `json:"no"`
	Total          int64   `json:"total"`
	AffirmativePct float64 `json:"yes_percentage"`
	NegativePct    float64 `json:"no_percentage"`
	SessionEnded   bool    `json:"session_ended"`
	Winner         string  `json:"winner,omitempty"`
	Outcome        string  `json:"outcome"`
}

// ValidateCreateSession maps a missing window bound to the domain error the
// use case would return.
func ValidateCreateSession(req CreateSessionRequest) error {
	if err := validate.Struct(req); err != nil {
		return mapValidationError(err, domainerrors.ErrSessionWindowRequired)
	}
	return nil
}

func ValidateCreateAgendaItem(req CreateAgendaItemRequest) error {
	if err := validate.Struct(req); err != nil {
		return mapValidationError(err, domainerrors.ErrSessionRequired)
	}
	return nil
}

func ValidateCastBallot(req CastBallotRequest) error {
	if err := validate.Struct(req); err != nil {
		return mapValidationError(err, domainerrors.ErrAllFieldsRequired)
	}
	return nil
}

func mapValidationError(err error, fieldErr error) error {
	var invalid validator.ValidationErrors
	if errors.As(err, &invalid) {
		return fieldErr
	}
	return err
}
