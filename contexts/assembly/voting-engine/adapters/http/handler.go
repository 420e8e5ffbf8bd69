package httpadapter

import (
	"context"

	"assembly/contexts/assembly/voting-engine/application/commands"
	"assembly/contexts/assembly/voting-engine/application/queries"
	"assembly/contexts/assembly/voting-engine/domain/entities"
	httptransport "assembly/contexts/assembly/voting-engine/transport/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "assembly/voting-engine"

type Handler struct {
	Sessions commands.SessionUseCase
	Agenda   commands.AgendaUseCase
	Ballots  commands.BallotUseCase
	Tallies  queries.TallyUseCase
}

// CreateSessionHandler godoc
// @Summary Create a voting session
// @Description Opens a session window. Windows shorter than one minute are stretched to one minute.
// @Tags voting-engine
// @Accept json
// @Produce json
// @Param request body httptransport.CreateSessionRequest true "Session window"
// @Success 201 {object} httptransport.SessionResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /v1/sessions [post]
func (h Handler) CreateSessionHandler(
	ctx context.Context,
	req httptransport.CreateSessionRequest,
) (resp httptransport.SessionResponse, err error) {
	ctx, span := startSpan(ctx, "voting.create_session")
	defer func() { endSpan(span, err) }()

	if err = httptransport.ValidateCreateSession(req); err != nil {
		return httptransport.SessionResponse{}, err
	}
	session, err := h.Sessions.CreateSession(ctx, commands.CreateSessionCommand{
		StartsAt: req.StartsAt,
		EndsAt:   req.EndsAt,
	})
	if err != nil {
		return httptransport.SessionResponse{}, err
	}
	span.SetAttributes(attribute.String("voting.session_id", session.SessionID))
	return mapSession(session), nil
}

// GetSessionHandler godoc
// @Summary Get a voting session
// @Tags voting-engine
// @Produce json
// @Param session_id path string true "Session id"
// @Success 200 {object} httptransport.SessionResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Router /v1/sessions/{session_id} [get]
func (h Handler) GetSessionHandler(ctx context.Context, sessionID string) (resp httptransport.SessionResponse, err error) {
	ctx, span := startSpan(ctx, "voting.get_session", attribute.String("voting.session_id", sessionID))
	defer func() { endSpan(span, err) }()

	session, err := h.Sessions.GetSession(ctx, sessionID)
	if err != nil {
		return httptransport.SessionResponse{}, err
	}
	return mapSession(session), nil
}

// CreateAgendaItemHandler godoc
// @Summary Create an agenda item
// @Tags voting-engine
// @Accept json
// @Produce json
// @Param request body httptransport.CreateAgendaItemRequest true "Agenda item"
// @Success 201 {object} httptransport.AgendaItemResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Router /v1/agendas [post]
func (h Handler) CreateAgendaItemHandler(
	ctx context.Context,
	req httptransport.CreateAgendaItemRequest,
) (resp httptransport.AgendaItemResponse, err error) {
	ctx, span := startSpan(ctx, "voting.create_agenda_item", attribute.String("voting.session_id", req.SessionID))
	defer func() { endSpan(span, err) }()

	if err = httptransport.ValidateCreateAgendaItem(req); err != nil {
		return httptransport.AgendaItemResponse{}, err
	}
	item, err := h.Agenda.CreateAgendaItem(ctx, commands.CreateAgendaItemCommand{
		Title:       req.Title,
		Description: req.Description,
		SessionID:   req.SessionID,
	})
	if err != nil {
		return httptransport.AgendaItemResponse{}, err
	}
	span.SetAttributes(attribute.String("voting.agenda_item_id", item.AgendaItemID))
	return mapAgendaItem(item), nil
}

// GetAgendaItemHandler godoc
// @Summary Get an agenda item with its session
// @Tags voting-engine
// @Produce json
// @Param agenda_id path string true "Agenda item id"
// @Success 200 {object} httptransport.AgendaItemResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Router /v1/agendas/{agenda_id} [get]
func (h Handler) GetAgendaItemHandler(ctx context.Context, agendaItemID string) (resp httptransport.AgendaItemResponse, err error) {
	ctx, span := startSpan(ctx, "voting.get_agenda_item", attribute.String("voting.agenda_item_id", agendaItemID))
	defer func() { endSpan(span, err) }()

	item, err := h.Agenda.GetAgendaItem(ctx, agendaItemID)
	if err != nil {
		return httptransport.AgendaItemResponse{}, err
	}
	return mapAgendaItem(item), nil
}

// CastBallotHandler godoc
// The participant identifier is never echoed into span attributes.
//
// @Summary Cast a ballot
// @Description Admits one YES/NO ballot per participant and agenda item while the session is open.
// @Tags voting-engine
// @Accept json
// @Produce json
// @Param request body httptransport.CastBallotRequest true "Ballot"
// @Success 201 {object} httptransport.BallotResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Router /v1/votes [post]
func (h Handler) CastBallotHandler(ctx context.Context, req httptransport.CastBallotRequest) (resp httptransport.BallotResponse, err error) {
	ctx, span := startSpan(ctx, "voting.cast_ballot", attribute.String("voting.agenda_item_id", req.AgendaItemID))
	defer func() { endSpan(span, err) }()

	if err = httptransport.ValidateCastBallot(req); err != nil {
		return httptransport.BallotResponse{}, err
	}
	ballot, err := h.Ballots.Cast(ctx, commands.CastBallotCommand{
		AgendaItemID:  req.AgendaItemID,
		ParticipantID: req.ParticipantID,
		Choice:        req.Choice,
	})
	if err != nil {
		return httptransport.BallotResponse{}, err
	}
	span.SetAttributes(
		attribute.String("voting.ballot_id", ballot.BallotID),
		attribute.String("voting.choice", string(ballot.Choice)),
	)
	return httptransport.BallotResponse{
		BallotID:      ballot.BallotID,
		AgendaItemID:  ballot.AgendaItemID,
		ParticipantID: ballot.ParticipantID,
		Choice:        string(ballot.Choice),
		CastAt:        ballot.CastAt,
	}, nil
}

// HasVotedHandler godoc
// @Summary Check whether a participant already voted
// @Tags voting-engine
// @Produce json
// @Param agenda_id path string true "Agenda item id"
// @Param participant_id path string true "Participant identifier, raw or decorated"
// @Success 200 {object} httptransport.HasVotedResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Router /v1/votes/check/{agenda_id}/{participant_id} [get]
func (h Handler) HasVotedHandler(
	ctx context.Context,
	agendaItemID string,
	participantID string,
) (resp httptransport.HasVotedResponse, err error) {
	ctx, span := startSpan(ctx, "voting.has_voted", attribute.String("voting.agenda_item_id", agendaItemID))
	defer func() { endSpan(span, err) }()

	voted, err := h.Ballots.HasVoted(ctx, agendaItemID, participantID)
	if err != nil {
		return httptransport.HasVotedResponse{}, err
	}
	return httptransport.HasVotedResponse{
		AgendaItemID:  agendaItemID,
		ParticipantID: participantID,
		Voted:         voted,
	}, nil
}

// TallyHandler godoc
// @Summary Tally an agenda item
// @Tags voting-engine
// @Produce json
// @Param agenda_id path string true "Agenda item id"
// @Success 200 {object} httptransport.TallyResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Router /v1/votes/results/{agenda_id} [get]
func (h Handler) TallyHandler(ctx context.Context, agendaItemID string) (resp httptransport.TallyResponse, err error) {
	ctx, span := startSpan(ctx, "voting.tally", attribute.String("voting.agenda_item_id", agendaItemID))
	defer func() { endSpan(span, err) }()

	result, err := h.Tallies.Tally(ctx, agendaItemID)
	if err != nil {
		return httptransport.TallyResponse{}, err
	}
	span.SetAttributes(
		attribute.Int64("voting.total", result.Total),
		attribute.String("voting.outcome", result.Outcome),
	)
	return httptransport.TallyResponse{
		AgendaItemID:   result.AgendaItemID,
		Title:          result.Title,
		Affirmative:    result.Affirmative,
		Negative:       result.Negative,
		Total:          result.Total,
		AffirmativePct: result.AffirmativePct,
		NegativePct:    result.NegativePct,
		SessionEnded:   result.SessionEnded,
		Winner:         string(result.Winner),
		Outcome:        result.Outcome,
	}, nil
}

func startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, name, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func mapSession(session entities.Session) httptransport.SessionResponse {
	return httptransport.SessionResponse{
		SessionID: session.SessionID,
		StartsAt:  session.StartsAt,
		EndsAt:    session.EndsAt,
		Version:   session.Version,
		CreatedAt: session.CreatedAt,
	}
}

func mapAgendaItem(item entities.AgendaItem) httptransport.AgendaItemResponse {
	return httptransport.AgendaItemResponse{
		AgendaItemID: item.AgendaItemID,
		Title:        item.Title,
		Description:  item.Description,
		SessionID:    item.SessionID,
		Session:      mapSession(item.Session),
		CreatedAt:    item.CreatedAt,
	}
}
