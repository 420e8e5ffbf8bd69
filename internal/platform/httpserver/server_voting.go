package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	domainerrors "assembly/contexts/assembly/voting-engine/domain/errors"
	votinghttp "assembly/contexts/assembly/voting-engine/transport/http"
)

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req votinghttp.CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeVotingError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.voting.Handler.CreateSessionHandler(r.Context(), req)
	if err != nil {
		s.writeVotingDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	resp, err := s.voting.Handler.GetSessionHandler(r.Context(), r.PathValue("session_id"))
	if err != nil {
		s.writeVotingDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateAgendaItem(w http.ResponseWriter, r *http.Request) {
	var req votinghttp.CreateAgendaItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeVotingError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.voting.Handler.CreateAgendaItemHandler(r.Context(), req)
	if err != nil {
		s.writeVotingDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGetAgendaItem(w http.ResponseWriter, r *http.Request) {
	resp, err := s.voting.Handler.GetAgendaItemHandler(r.Context(), r.PathValue("agenda_id"))
	if err != nil {
		s.writeVotingDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCastBallot(w http.ResponseWriter, r *http.Request) {
	var req votinghttp.CastBallotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeVotingError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.voting.Handler.CastBallotHandler(r.Context(), req)
	if err != nil {
		s.writeVotingDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleHasVoted(w http.ResponseWriter, r *http.Request) {
	resp, err := s.voting.Handler.HasVotedHandler(
		r.Context(),
		r.PathValue("agenda_id"),
		r.PathValue("participant_id"),
	)
	if err != nil {
		s.writeVotingDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleTally(w http.ResponseWriter, r *http.Request) {
	resp, err := s.voting.Handler.TallyHandler(r.Context(), r.PathValue("agenda_id"))
	if err != nil {
		s.writeVotingDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) writeVotingDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domainerrors.ErrAllFieldsRequired):
		writeVotingError(w, http.StatusBadRequest, "all_fields_required", err.Error())
	case errors.Is(err, domainerrors.ErrInvalidIdentifier):
		writeVotingError(w, http.StatusBadRequest, "invalid_identifier", err.Error())
	case errors.Is(err, domainerrors.ErrAlreadyVoted):
		writeVotingError(w, http.StatusConflict, "already_voted", err.Error())
	case errors.Is(err, domainerrors.ErrSessionNotOpen):
		writeVotingError(w, http.StatusConflict, "session_not_open", err.Error())
	case errors.Is(err, domainerrors.ErrSessionNotFound):
		writeVotingError(w, http.StatusNotFound, "session_not_found", err.Error())
	case errors.Is(err, domainerrors.ErrAgendaItemNotFound):
		writeVotingError(w, http.StatusNotFound, "agenda_item_not_found", err.Error())
	case errors.Is(err, domainerrors.ErrValidation):
		writeVotingError(w, http.StatusBadRequest, "validation_error", err.Error())
	case errors.Is(err, domainerrors.ErrNotFound):
		writeVotingError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, domainerrors.ErrConflict):
		writeVotingError(w, http.StatusConflict, "conflict", err.Error())
	default:
		s.logger.Error("voting request failed",
			"event", "http_voting_request_failed",
			"module", "internal/platform/httpserver",
			"layer", "platform",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err.Error(),
		)
		writeVotingError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeVotingError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, votinghttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}
