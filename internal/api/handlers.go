package api

import (
	"context"

	"github.com/vytor/skillforge/internal/services"
)

// Pinger reports database liveness for the readiness probe.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Server struct {
	DB            Pinger
	Submissions   services.SubmissionService
	Entitlements  services.EntitlementService
	Challenges    services.ChallengeService
	Leaderboard   services.LeaderboardService
	Profiles      services.ProfileService
	Progress      services.ProgressService
	JWTSecret     []byte
	InternalToken string
	CORSOrigins   []string
	MaxBodyBytes  int64
}
