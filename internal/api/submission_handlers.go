package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/vytor/skillforge/internal/errors"
	"github.com/vytor/skillforge/internal/logger"
	"github.com/vytor/skillforge/internal/models"
	"github.com/vytor/skillforge/internal/services"
)

type submissionList struct {
	Submissions []models.Submission `json:"submissions"`
	Total       int                 `json:"total"`
	Limit       int                 `json:"limit"`
	Offset      int                 `json:"offset"`
}

func (s *Server) handleCreateSubmission(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := identity(r)

	var input services.CreateSubmissionInput
	if err := s.decodeJSON(w, r, &input); err != nil {
		handleError(w, r, err)
		return
	}

	rc, err := s.Entitlements.RequestContext(ctx, caller.UserID)
	if err != nil {
		handleError(w, r, err)
		return
	}

	sub, err := s.Submissions.Create(ctx, rc, input)
	if err != nil {
		handleError(w, r, err)
		return
	}

	logger.FromContext(ctx).Debug("submission accepted: id=%s", sub.ID)
	writeJSON(w, r, http.StatusCreated, sub)
}

func (s *Server) handleGetSubmission(w http.ResponseWriter, r *http.Request) {
	sub, err := s.Submissions.GetForUser(r.Context(), identity(r).UserID, chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, sub)
}

func (s *Server) handleListSubmissions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := models.SubmissionFilter{
		UserID: identity(r).UserID,
		Status: models.SubmissionStatus(q.Get("status")),
	}

	if v := q.Get("challenge_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			handleError(w, r, errors.NewValidationError("challenge_id", "must be a positive integer"))
			return
		}
		filter.ChallengeID = id
	}

	limit, err := queryInt(r, "limit", 20)
	if err != nil {
		handleError(w, r, err)
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		handleError(w, r, err)
		return
	}
	filter.Limit = min(max(limit, 1), 100)
	filter.Offset = offset

	subs, total, err := s.Submissions.List(r.Context(), filter)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, submissionList{
		Submissions: subs,
		Total:       total,
		Limit:       filter.Limit,
		Offset:      filter.Offset,
	})
}

func (s *Server) handleEntitlement(w http.ResponseWriter, r *http.Request) {
	var challengeID int64
	if v := r.URL.Query().Get("challenge_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			handleError(w, r, errors.NewValidationError("challenge_id", "must be a positive integer"))
			return
		}
		challengeID = id
	}

	view, err := s.Entitlements.Check(r.Context(), identity(r).UserID, challengeID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, view)
}
