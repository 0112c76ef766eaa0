package catalog

import (
	"context"
	"fmt"

	"github.com/vytor/skillforge/internal/logger"
	"github.com/vytor/skillforge/internal/repository"
)

// Seed writes the catalog into the store. Published challenges keep their
// content; only activation flags follow the file.
func Seed(ctx context.Context, c *Catalog, challenges repository.ChallengeRepository, achievements repository.AchievementRepository) error {
	log := logger.FromContext(ctx).WithPrefix("catalog")

	for _, ch := range c.Challenges {
		if _, err := challenges.Upsert(ctx, ch); err != nil {
			return fmt.Errorf("seed challenge %s: %w", ch.Slug, err)
		}
	}
	if len(c.Achievements) > 0 {
		if err := achievements.UpsertCatalog(ctx, c.Achievements); err != nil {
			return fmt.Errorf("seed achievements: %w", err)
		}
	}

	log.Info("catalog seeded: challenges=%d, achievements=%d", len(c.Challenges), len(c.Achievements))
	return nil
}
