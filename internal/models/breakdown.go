package models

// CriterionDetail is one check reported by the evaluator for a criterion.
type CriterionDetail struct {
	Description string `json:"description"`
	Passed      bool   `json:"passed"`
}

// RawCriterionResult is the evaluator's unvalidated result for one criterion.
type RawCriterionResult struct {
	Score   float64           `json:"score"`
	Max     float64           `json:"max"`
	Details []CriterionDetail `json:"details"`
}

// RawBreakdown maps criterion name to the evaluator's result.
type RawBreakdown map[string]RawCriterionResult

// CriterionResult is a validated, clamped criterion result as stored on a submission.
type CriterionResult struct {
	Score      float64           `json:"score"`
	Max        float64           `json:"max"`
	Percentage float64           `json:"percentage"`
	Details    []CriterionDetail `json:"details"`
}

type ScoreBreakdown map[string]CriterionResult
