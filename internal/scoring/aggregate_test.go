package scoring_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/skillforge/internal/errors"
	"github.com/vytor/skillforge/internal/models"
	"github.com/vytor/skillforge/internal/scoring"
)

var standardRubric = []models.Criterion{
	{Name: "functionality", Weight: 50},
	{Name: "efficiency", Weight: 20},
	{Name: "error_handling", Weight: 20},
	{Name: "best_practices", Weight: 10},
}

func TestAggregate_ReferenceBreakdown(t *testing.T) {
	raw := models.RawBreakdown{
		"functionality":  {Score: 45, Max: 50},
		"efficiency":     {Score: 20, Max: 20},
		"error_handling": {Score: 10, Max: 20},
		"best_practices": {Score: 10, Max: 10},
	}

	res, err := scoring.Aggregate(raw, standardRubric)

	require.NoError(t, err)
	assert.Equal(t, 85, res.Total)
	assert.Equal(t, 45.0, res.Breakdown["functionality"].Score)
	assert.Equal(t, 90.0, res.Breakdown["functionality"].Percentage)
	assert.Equal(t, 50.0, res.Breakdown["error_handling"].Percentage)
}

func TestAggregate_MissingCriterionScoresZero(t *testing.T) {
	raw := models.RawBreakdown{
		"functionality": {Score: 50, Max: 50},
	}

	res, err := scoring.Aggregate(raw, standardRubric)

	require.NoError(t, err)
	assert.Equal(t, 50, res.Total)
	eff := res.Breakdown["efficiency"]
	assert.Equal(t, 0.0, eff.Score)
	assert.Equal(t, 20.0, eff.Max)
	assert.Empty(t, eff.Details)
}

func TestAggregate_ClampsOutOfRangeScores(t *testing.T) {
	raw := models.RawBreakdown{
		"functionality":  {Score: 80, Max: 50},
		"efficiency":     {Score: -5, Max: 20},
		"error_handling": {Score: 20, Max: 20},
		"best_practices": {Score: 10, Max: 10},
	}

	res, err := scoring.Aggregate(raw, standardRubric)

	require.NoError(t, err)
	assert.Equal(t, 50.0, res.Breakdown["functionality"].Score)
	assert.Equal(t, 0.0, res.Breakdown["efficiency"].Score)
	assert.Equal(t, 80, res.Total)
}

func TestAggregate_ProjectsForeignScaleOntoWeight(t *testing.T) {
	raw := models.RawBreakdown{
		"functionality": {Score: 5, Max: 10},
	}

	res, err := scoring.Aggregate(raw, standardRubric)

	require.NoError(t, err)
	assert.Equal(t, 25.0, res.Breakdown["functionality"].Score)
	assert.Equal(t, 50.0, res.Breakdown["functionality"].Max)
	assert.Equal(t, 25, res.Total)
}

func TestAggregate_RescalesNonHundredWeights(t *testing.T) {
	rubric := []models.Criterion{
		{Name: "functionality", Weight: 30},
		{Name: "style", Weight: 10},
	}
	raw := models.RawBreakdown{
		"functionality": {Score: 20, Max: 30},
		"style":         {Score: 7, Max: 10},
	}

	res, err := scoring.Aggregate(raw, rubric)

	require.NoError(t, err)
	// 27/40 = 67.5 -> rounds half up to 68.
	assert.Equal(t, 68, res.Total)
}

func TestAggregate_RoundHalfUp(t *testing.T) {
	raw := models.RawBreakdown{
		"functionality":  {Score: 44.5, Max: 50},
		"efficiency":     {Score: 0, Max: 20},
		"error_handling": {Score: 0, Max: 20},
		"best_practices": {Score: 0, Max: 10},
	}

	res, err := scoring.Aggregate(raw, standardRubric)

	require.NoError(t, err)
	assert.Equal(t, 45, res.Total)
}

func TestAggregate_UnknownCriteriaIgnored(t *testing.T) {
	raw := models.RawBreakdown{
		"functionality": {Score: 50, Max: 50},
		"creativity":    {Score: 100, Max: 100},
	}

	res, err := scoring.Aggregate(raw, standardRubric)

	require.NoError(t, err)
	assert.Equal(t, 50, res.Total)
	_, present := res.Breakdown["creativity"]
	assert.False(t, present)
}

func TestAggregate_MalformedInputs(t *testing.T) {
	tests := []struct {
		name string
		raw  models.RawBreakdown
	}{
		{"zero max", models.RawBreakdown{"functionality": {Score: 1, Max: 0}}},
		{"negative max", models.RawBreakdown{"efficiency": {Score: 1, Max: -20}}},
		{"nan score", models.RawBreakdown{"functionality": {Score: math.NaN(), Max: 50}}},
		{"infinite score", models.RawBreakdown{"functionality": {Score: math.Inf(1), Max: 50}}},
		{"infinite max", models.RawBreakdown{"functionality": {Score: 1, Max: math.Inf(1)}}},
		{"unknown criterion still validated", models.RawBreakdown{"creativity": {Score: 1, Max: 0}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := scoring.Aggregate(tt.raw, standardRubric)

			require.Error(t, err)
			assert.True(t, errors.HasCode(err, errors.ErrCodeMalformedBreakdown))
		})
	}
}

func TestAggregate_EmptyRubricRejected(t *testing.T) {
	_, err := scoring.Aggregate(models.RawBreakdown{}, nil)

	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeValidation))
}

// With weights summing to 100 and integral scores, the total is the exact sum
// of clamped criterion scores and stays within [0, 100].
func TestAggregate_TotalEqualsClampedSum(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 500; i++ {
		raw := models.RawBreakdown{}
		for _, c := range standardRubric {
			if rng.Intn(5) == 0 {
				continue
			}
			raw[c.Name] = models.RawCriterionResult{
				Score: float64(rng.Intn(c.Weight*2+20) - 10),
				Max:   float64(c.Weight),
			}
		}

		res, err := scoring.Aggregate(raw, standardRubric)
		require.NoError(t, err)

		sum := 0.0
		for _, cr := range res.Breakdown {
			assert.GreaterOrEqual(t, cr.Score, 0.0)
			assert.LessOrEqual(t, cr.Score, cr.Max)
			sum += cr.Score
		}
		assert.Equal(t, int(sum), res.Total)
		assert.GreaterOrEqual(t, res.Total, 0)
		assert.LessOrEqual(t, res.Total, 100)
	}
}
