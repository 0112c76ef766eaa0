package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		handleError(w, r, err)
		return
	}

	board, err := s.Leaderboard.Top(r.Context(), limit)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, board)
}

func (s *Server) handleOwnRank(w http.ResponseWriter, r *http.Request) {
	rank, err := s.Leaderboard.RankOf(r.Context(), identity(r).UserID, identity(r).UserID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, rank)
}

func (s *Server) handleUserRank(w http.ResponseWriter, r *http.Request) {
	rank, err := s.Leaderboard.RankOf(r.Context(), identity(r).UserID, chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, rank)
}
