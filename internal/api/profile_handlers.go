package api

import (
	"net/http"

	"github.com/vytor/skillforge/internal/errors"
)

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	profile, err := s.Profiles.GetProfile(r.Context(), identity(r).UserID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, profile)
}

func (s *Server) handleUpdateMe(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IsPublic *bool `json:"is_public"`
	}
	if err := s.decodeJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	if req.IsPublic == nil {
		handleError(w, r, errors.NewValidationError("is_public", "is required"))
		return
	}

	profile, err := s.Profiles.SetVisibility(r.Context(), identity(r).UserID, *req.IsPublic)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, profile)
}

func (s *Server) handleMyAchievements(w http.ResponseWriter, r *http.Request) {
	list, err := s.Profiles.Achievements(r.Context(), identity(r).UserID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"achievements": list})
}

func (s *Server) handleMyStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.Progress.Stats(r.Context(), identity(r).UserID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, stats)
}
