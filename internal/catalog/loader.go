// Package catalog loads challenge and achievement definitions from YAML.
package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vytor/skillforge/internal/models"
)

//go:embed default.yaml
var defaultCatalog []byte

// Catalog is the seed content for challenges and achievements.
type Catalog struct {
	Challenges   []models.Challenge
	Achievements []models.Achievement
}

type catalogFile struct {
	Challenges   []challengeFile      `yaml:"challenges"`
	Achievements []models.Achievement `yaml:"achievements"`
}

type challengeFile struct {
	Slug         string             `yaml:"slug"`
	Title        string             `yaml:"title"`
	Difficulty   string             `yaml:"difficulty"`
	Category     string             `yaml:"category"`
	Points       int                `yaml:"points"`
	XPMultiplier float64            `yaml:"xp_multiplier"`
	IsDaily      bool               `yaml:"is_daily"`
	Active       *bool              `yaml:"active"`
	PublishedAt  *time.Time         `yaml:"published_at"`
	Criteria     []models.Criterion `yaml:"criteria"`
}

// Default returns the catalog bundled with the binary.
func Default(now time.Time) (*Catalog, error) {
	return Parse(defaultCatalog, now)
}

// LoadDir merges every *.yaml and *.yml file in dir, in name order. A slug or
// key defined twice is an error.
func LoadDir(dir string, now time.Time) (*Catalog, error) {
	var files []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		files = append(files, matches...)
	}
	sort.Strings(files)

	merged := &Catalog{}
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", file, err)
		}
		c, err := Parse(data, now)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(file), err)
		}
		merged.Challenges = append(merged.Challenges, c.Challenges...)
		merged.Achievements = append(merged.Achievements, c.Achievements...)
	}

	if err := merged.validate(); err != nil {
		return nil, err
	}
	return merged, nil
}

// Parse decodes one catalog document. Challenges without published_at are
// published at now; active defaults to true.
func Parse(data []byte, now time.Time) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	out := &Catalog{Achievements: f.Achievements}
	for _, cf := range f.Challenges {
		active := true
		if cf.Active != nil {
			active = *cf.Active
		}
		published := cf.PublishedAt
		if published == nil {
			p := now.UTC()
			published = &p
		}
		multiplier := cf.XPMultiplier
		if multiplier == 0 {
			multiplier = 1
		}
		out.Challenges = append(out.Challenges, models.Challenge{
			Slug:         cf.Slug,
			Title:        cf.Title,
			Difficulty:   cf.Difficulty,
			Category:     cf.Category,
			Points:       cf.Points,
			XPMultiplier: multiplier,
			IsDaily:      cf.IsDaily,
			IsActive:     active,
			PublishedAt:  published,
			Criteria:     cf.Criteria,
			CreatedAt:    now.UTC(),
		})
	}

	if err := out.validate(); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Catalog) validate() error {
	slugs := map[string]bool{}
	for _, ch := range c.Challenges {
		if strings.TrimSpace(ch.Slug) == "" {
			return fmt.Errorf("challenge slug is required")
		}
		if slugs[ch.Slug] {
			return fmt.Errorf("duplicate challenge slug %q", ch.Slug)
		}
		slugs[ch.Slug] = true

		if ch.Title == "" {
			return fmt.Errorf("challenge %q: title is required", ch.Slug)
		}
		if ch.XPMultiplier < 0 {
			return fmt.Errorf("challenge %q: xp_multiplier must not be negative", ch.Slug)
		}
		if len(ch.Criteria) == 0 {
			return fmt.Errorf("challenge %q: at least one criterion is required", ch.Slug)
		}
		names := map[string]bool{}
		for _, cr := range ch.Criteria {
			if cr.Name == "" || cr.Weight <= 0 {
				return fmt.Errorf("challenge %q: criteria need a name and a positive weight", ch.Slug)
			}
			if names[cr.Name] {
				return fmt.Errorf("challenge %q: duplicate criterion %q", ch.Slug, cr.Name)
			}
			names[cr.Name] = true
		}
	}

	keys := map[string]bool{}
	for _, a := range c.Achievements {
		if a.Key == "" {
			return fmt.Errorf("achievement key is required")
		}
		if keys[a.Key] {
			return fmt.Errorf("duplicate achievement key %q", a.Key)
		}
		keys[a.Key] = true

		switch a.CriteriaType {
		case models.CriteriaCompletedSubmissions, models.CriteriaDistinctChallenges, models.CriteriaTotalXP,
			models.CriteriaStreak, models.CriteriaPerfectScores, models.CriteriaHighScore:
		default:
			return fmt.Errorf("achievement %q: unknown criteria_type %q", a.Key, a.CriteriaType)
		}
		if a.Threshold <= 0 {
			return fmt.Errorf("achievement %q: threshold must be positive", a.Key)
		}
		if a.XPReward < 0 {
			return fmt.Errorf("achievement %q: xp_reward must not be negative", a.Key)
		}
	}
	return nil
}
