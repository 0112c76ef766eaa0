package scoring

import (
	"encoding/json"
	"fmt"

	"github.com/vytor/skillforge/internal/errors"
	"github.com/vytor/skillforge/internal/models"
)

type wireCriterion struct {
	Score   any               `json:"score"`
	Max     any               `json:"max"`
	Details []json.RawMessage `json:"details"`
}

// DecodeBreakdown parses an evaluator payload of the form
// {"criterion": {"score": n, "max": n, "details": [{"description": s, "passed": b}]}}.
// Shape violations are reported as MALFORMED_BREAKDOWN rather than coerced.
func DecodeBreakdown(data []byte) (models.RawBreakdown, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil || top == nil {
		return nil, errors.NewMalformedBreakdownError("", "payload must be an object keyed by criterion")
	}

	out := make(models.RawBreakdown, len(top))
	for name, rawCrit := range top {
		var wc wireCriterion
		if err := json.Unmarshal(rawCrit, &wc); err != nil {
			return nil, errors.NewMalformedBreakdownError(name, "criterion result must be an object")
		}

		score, ok := wc.Score.(float64)
		if !ok {
			return nil, errors.NewMalformedBreakdownError(name, "score is not a finite number")
		}
		max, ok := wc.Max.(float64)
		if !ok {
			return nil, errors.NewMalformedBreakdownError(name, "max is not a finite number")
		}

		details := make([]models.CriterionDetail, 0, len(wc.Details))
		for i, rd := range wc.Details {
			var d struct {
				Description *string `json:"description"`
				Passed      *bool   `json:"passed"`
			}
			if err := json.Unmarshal(rd, &d); err != nil || d.Description == nil || d.Passed == nil {
				return nil, errors.NewMalformedBreakdownError(name, fmt.Sprintf("detail %d needs description and passed", i))
			}
			details = append(details, models.CriterionDetail{Description: *d.Description, Passed: *d.Passed})
		}

		out[name] = models.RawCriterionResult{Score: score, Max: max, Details: details}
	}

	if err := Validate(out); err != nil {
		return nil, err
	}
	return out, nil
}
