package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(recoveryMiddleware)
	r.Use(loggingMiddleware)
	r.Use(securityHeadersMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)

	r.Route("/api", func(r chi.Router) {
		r.Use(s.authMiddleware)

		r.Post("/submissions", s.handleCreateSubmission)
		r.Get("/submissions", s.handleListSubmissions)
		r.Get("/submissions/{id}", s.handleGetSubmission)
		r.Get("/entitlement", s.handleEntitlement)

		r.Get("/challenges", s.handleListChallenges)
		r.Get("/challenges/{slug}", s.handleGetChallenge)

		r.Get("/leaderboard", s.handleLeaderboard)
		r.Get("/leaderboard/rank", s.handleOwnRank)
		r.Get("/users/{id}/rank", s.handleUserRank)

		r.Get("/me", s.handleMe)
		r.Patch("/me", s.handleUpdateMe)
		r.Get("/me/achievements", s.handleMyAchievements)
		r.Get("/me/stats", s.handleMyStats)
	})

	r.Route("/internal", func(r chi.Router) {
		r.Use(s.internalMiddleware)

		r.Get("/submissions/{id}", s.handleInternalGetSubmission)
		r.Post("/submissions/{id}/begin", s.handleBeginEvaluation)
		r.Post("/submissions/{id}/evaluation", s.handleSubmitEvaluation)
		r.Post("/submissions/{id}/error", s.handleMarkError)
		r.Post("/billing/subscriptions", s.handleRecordSubscription)
		r.Patch("/challenges/{id}/active", s.handleSetChallengeActive)
	})

	return r
}
