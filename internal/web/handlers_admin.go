package web

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/uniwahl/wahlportal/internal/client"
	"github.com/uniwahl/wahlportal/internal/logging"
)

// handleTriggerCount asks the voting API to run the tally for an election.
func (s *Server) handleTriggerCount(w http.ResponseWriter, r *http.Request) {
	electionID := chi.URLParam(r, "electionID")
	if err := s.api.TriggerCount(r.Context(), electionID); err != nil {
		writeAPIError(w, r, err)
		return
	}
	logging.FromContext(r.Context()).Info("count triggered", "election", electionID)
	writeJSON(w, http.StatusAccepted, map[string]any{"counting": true})
}

// handleCountResults fetches the tally for an election. A result body whose
// shape matches none of the known counting methods is reported as such, not
// guessed at.
func (s *Server) handleCountResults(w http.ResponseWriter, r *http.Request) {
	result, err := s.api.CountResults(r.Context(), chi.URLParam(r, "electionID"))
	if err != nil {
		if errors.Is(err, client.ErrUnexpectedResultShape) {
			writeJSON(w, http.StatusBadGateway, errorResponse{
				Error: "Das Auszählungsergebnis hat eine unbekannte Form.",
				Code:  "UNEXPECTED_RESULT_SHAPE",
			})
			return
		}
		writeAPIError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleAuditLogIntegrity(w http.ResponseWriter, r *http.Request) {
	rep, err := s.api.AuditLogIntegrity(r.Context())
	if err != nil {
		writeAPIError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (s *Server) handleBallotIntegrity(w http.ResponseWriter, r *http.Request) {
	rep, err := s.api.BallotIntegrity(r.Context())
	if err != nil {
		writeAPIError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}
