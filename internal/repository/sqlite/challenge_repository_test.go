package sqlite_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/vytor/skillforge/internal/models"
	"github.com/vytor/skillforge/internal/repository"
	"github.com/vytor/skillforge/internal/repository/sqlite"
	"github.com/vytor/skillforge/internal/testutil"
)

type ChallengeRepositorySuite struct {
	suite.Suite
	db   *sql.DB
	repo repository.ChallengeRepository
	now  time.Time
}

func (s *ChallengeRepositorySuite) SetupTest() {
	s.db = testutil.NewTestDB(s.T())
	s.repo = sqlite.NewChallengeRepository(s.db)
	s.now = testutil.Date(2026, time.October, 14)
}

func (s *ChallengeRepositorySuite) TearDownTest() {
	testutil.MustClose(s.T(), s.db)
}

func (s *ChallengeRepositorySuite) challenge(slug string, published *time.Time) models.Challenge {
	return models.Challenge{
		Slug:         slug,
		Title:        "Title " + slug,
		Difficulty:   "intermediate",
		Category:     "automation",
		Points:       50,
		XPMultiplier: 1.25,
		IsActive:     true,
		PublishedAt:  published,
		Criteria: []models.Criterion{
			{Name: "correctness", Weight: 40},
			{Name: "efficiency", Weight: 30},
			{Name: "design", Weight: 30},
		},
		CreatedAt: s.now,
	}
}

func (s *ChallengeRepositorySuite) TestUpsertAndGet() {
	ctx := context.Background()
	published := s.now.Add(-time.Hour)

	created, err := s.repo.Upsert(ctx, s.challenge("webhooks", &published))
	s.Require().NoError(err)
	s.Assert().Greater(created.ID, int64(0))
	s.Assert().Equal(100, created.TotalWeight())
	s.Assert().Equal("correctness", created.Criteria[0].Name)

	bySlug, err := s.repo.GetBySlug(ctx, "webhooks")
	s.Require().NoError(err)
	s.Assert().Equal(created.ID, bySlug.ID)
	s.Assert().Equal(1.25, bySlug.XPMultiplier)

	missing, err := s.repo.GetBySlug(ctx, "nope")
	s.Require().NoError(err)
	s.Assert().Nil(missing)
}

func (s *ChallengeRepositorySuite) TestUpsert_PublishedContentIsImmutable() {
	ctx := context.Background()
	published := s.now.Add(-time.Hour)

	_, err := s.repo.Upsert(ctx, s.challenge("webhooks", &published))
	s.Require().NoError(err)

	changed := s.challenge("webhooks", &published)
	changed.Title = "Rewritten"
	changed.Criteria = []models.Criterion{{Name: "other", Weight: 100}}
	changed.IsActive = false

	got, err := s.repo.Upsert(ctx, changed)
	s.Require().NoError(err)
	s.Assert().Equal("Title webhooks", got.Title)
	s.Assert().Len(got.Criteria, 3)
	s.Assert().False(got.IsActive)
}

func (s *ChallengeRepositorySuite) TestUpsert_DraftContentUpdates() {
	ctx := context.Background()

	_, err := s.repo.Upsert(ctx, s.challenge("draft", nil))
	s.Require().NoError(err)

	changed := s.challenge("draft", nil)
	changed.Title = "Rewritten"
	got, err := s.repo.Upsert(ctx, changed)
	s.Require().NoError(err)
	s.Assert().Equal("Rewritten", got.Title)
}

func (s *ChallengeRepositorySuite) TestList_ActiveOnly() {
	ctx := context.Background()
	past := s.now.Add(-time.Hour)
	future := s.now.Add(time.Hour)

	_, err := s.repo.Upsert(ctx, s.challenge("live", &past))
	s.Require().NoError(err)
	_, err = s.repo.Upsert(ctx, s.challenge("scheduled", &future))
	s.Require().NoError(err)
	_, err = s.repo.Upsert(ctx, s.challenge("draft", nil))
	s.Require().NoError(err)
	off, err := s.repo.Upsert(ctx, s.challenge("retired", &past))
	s.Require().NoError(err)
	s.Require().NoError(s.repo.SetActive(ctx, off.ID, false))

	active, err := s.repo.List(ctx, models.ChallengeFilter{ActiveOnly: true, Now: s.now})
	s.Require().NoError(err)
	s.Require().Len(active, 1)
	s.Assert().Equal("live", active[0].Slug)

	all, err := s.repo.List(ctx, models.ChallengeFilter{})
	s.Require().NoError(err)
	s.Assert().Len(all, 4)
}

func (s *ChallengeRepositorySuite) TestSetActive_Missing() {
	err := s.repo.SetActive(context.Background(), 404, true)
	s.Assert().ErrorIs(err, repository.ErrNotFound)
}

func TestChallengeRepositorySuite(t *testing.T) {
	suite.Run(t, new(ChallengeRepositorySuite))
}
