package catalog_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/skillforge/internal/catalog"
	"github.com/vytor/skillforge/internal/models"
	"github.com/vytor/skillforge/internal/repository/sqlite"
	"github.com/vytor/skillforge/internal/testutil"
)

func TestSeed_IsRepeatable(t *testing.T) {
	db := testutil.NewTestDB(t)
	defer testutil.MustClose(t, db)
	ctx := context.Background()

	challenges := sqlite.NewChallengeRepository(db)
	achievements := sqlite.NewAchievementRepository(db)

	c, err := catalog.Default(now)
	require.NoError(t, err)

	require.NoError(t, catalog.Seed(ctx, c, challenges, achievements))
	require.NoError(t, catalog.Seed(ctx, c, challenges, achievements))

	listed, err := challenges.List(ctx, models.ChallengeFilter{ActiveOnly: true, Now: now})
	require.NoError(t, err)
	assert.Len(t, listed, len(c.Challenges))

	stored, err := achievements.Catalog(ctx)
	require.NoError(t, err)
	assert.Len(t, stored, len(c.Achievements))
}
