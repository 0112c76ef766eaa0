package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vytor/skillforge/internal/models"
)

func (s *Server) handleListChallenges(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	challenges, err := s.Challenges.List(r.Context(), models.ChallengeFilter{
		Category:   q.Get("category"),
		Difficulty: q.Get("difficulty"),
	})
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"challenges": challenges})
}

func (s *Server) handleGetChallenge(w http.ResponseWriter, r *http.Request) {
	c, err := s.Challenges.GetBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, c)
}
