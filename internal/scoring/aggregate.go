// Package scoring turns an evaluator's per-criterion results into a grade.
package scoring

import (
	"fmt"
	"math"
	"sort"

	"github.com/vytor/skillforge/internal/errors"
	"github.com/vytor/skillforge/internal/models"
)

// MaxScore is the top of the normalized scale.
const MaxScore = 100

type Result struct {
	Total     int                   `json:"total"`
	Breakdown models.ScoreBreakdown `json:"breakdown"`
}

// Aggregate validates raw against the challenge rubric and computes the total.
//
// Criteria the evaluator did not report score zero. Each score is clamped to
// [0, max]; when the evaluator's max differs from the rubric weight the score
// is projected onto the weight. Criteria not in the rubric are ignored. A
// rubric whose weights do not sum to 100 is rescaled to 0-100. Totals round
// half up.
func Aggregate(raw models.RawBreakdown, criteria []models.Criterion) (Result, error) {
	if len(criteria) == 0 {
		return Result{}, errors.NewValidationError("criteria", "challenge has no evaluation criteria")
	}
	if err := Validate(raw); err != nil {
		return Result{}, err
	}

	breakdown := make(models.ScoreBreakdown, len(criteria))
	sum := 0.0
	totalWeight := 0
	for _, c := range criteria {
		if c.Weight <= 0 {
			return Result{}, errors.NewValidationError("criteria", fmt.Sprintf("weight for %q must be positive", c.Name))
		}
		weight := float64(c.Weight)
		totalWeight += c.Weight

		r, ok := raw[c.Name]
		if !ok {
			r = models.RawCriterionResult{Score: 0, Max: weight}
		}

		score := clamp(r.Score, 0, r.Max)
		if r.Max != weight {
			score = score * weight / r.Max
		}

		details := r.Details
		if details == nil {
			details = []models.CriterionDetail{}
		}

		breakdown[c.Name] = models.CriterionResult{
			Score:      score,
			Max:        weight,
			Percentage: roundTo(score/weight*100, 1),
			Details:    details,
		}
		sum += score
	}

	scaled := sum
	if totalWeight != MaxScore {
		scaled = sum * MaxScore / float64(totalWeight)
	}
	total := roundHalfUp(scaled)
	if total < 0 {
		total = 0
	}
	if total > MaxScore {
		total = MaxScore
	}

	return Result{Total: total, Breakdown: breakdown}, nil
}

// Validate rejects results that are not finite or whose max is not positive.
// Every reported criterion is checked, including ones outside the rubric.
func Validate(raw models.RawBreakdown) error {
	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		r := raw[name]
		if name == "" {
			return errors.NewMalformedBreakdownError(name, "criterion name is empty")
		}
		if !isFinite(r.Score) {
			return errors.NewMalformedBreakdownError(name, "score is not a finite number")
		}
		if !isFinite(r.Max) {
			return errors.NewMalformedBreakdownError(name, "max is not a finite number")
		}
		if r.Max <= 0 {
			return errors.NewMalformedBreakdownError(name, "max must be positive")
		}
	}
	return nil
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// roundHalfUp rounds to the nearest integer with .5 going up. The epsilon
// absorbs float error from rescaling (e.g. 84.4999999 for 84.5).
func roundHalfUp(f float64) int {
	return int(math.Floor(f + 0.5 + 1e-9))
}

func roundTo(f float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Floor(f*p+0.5) / p
}
