package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vytor/skillforge/internal/errors"
	"github.com/vytor/skillforge/internal/models"
)

func (s *Server) handleInternalGetSubmission(w http.ResponseWriter, r *http.Request) {
	sub, err := s.Submissions.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, sub)
}

func (s *Server) handleBeginEvaluation(w http.ResponseWriter, r *http.Request) {
	sub, err := s.Submissions.BeginEvaluation(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, sub)
}

// handleSubmitEvaluation takes the grader's raw per-criterion breakdown.
func (s *Server) handleSubmitEvaluation(w http.ResponseWriter, r *http.Request) {
	body, err := s.readBody(w, r)
	if err != nil {
		handleError(w, r, err)
		return
	}

	sub, err := s.Submissions.SubmitEvaluation(r.Context(), chi.URLParam(r, "id"), body)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, sub)
}

func (s *Server) handleMarkError(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Cause string `json:"cause"`
	}
	if err := s.decodeJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	sub, err := s.Submissions.MarkError(r.Context(), chi.URLParam(r, "id"), req.Cause)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, sub)
}

func (s *Server) handleRecordSubscription(w http.ResponseWriter, r *http.Request) {
	var sub models.Subscription
	if err := s.decodeJSON(w, r, &sub); err != nil {
		handleError(w, r, err)
		return
	}

	if err := s.Entitlements.RecordSubscription(r.Context(), sub); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetChallengeActive(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		handleError(w, r, err)
		return
	}

	var req struct {
		Active *bool `json:"active"`
	}
	if err := s.decodeJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	if req.Active == nil {
		handleError(w, r, errors.NewValidationError("active", "is required"))
		return
	}

	c, err := s.Challenges.SetActive(r.Context(), id, *req.Active)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, c)
}
