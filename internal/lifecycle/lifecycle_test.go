package lifecycle_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vytor/skillforge/internal/lifecycle"
	"github.com/vytor/skillforge/internal/models"
)

var all = []models.SubmissionStatus{
	models.StatusPending,
	models.StatusEvaluating,
	models.StatusCompleted,
	models.StatusError,
}

func TestCanTransition_LegalEdges(t *testing.T) {
	assert.True(t, lifecycle.CanTransition(models.StatusPending, models.StatusEvaluating))
	assert.True(t, lifecycle.CanTransition(models.StatusEvaluating, models.StatusCompleted))
	assert.True(t, lifecycle.CanTransition(models.StatusEvaluating, models.StatusError))
	assert.True(t, lifecycle.CanTransition(models.StatusPending, models.StatusError))
}

func TestCanTransition_CompletionNeverSkipsEvaluating(t *testing.T) {
	assert.False(t, lifecycle.CanTransition(models.StatusPending, models.StatusCompleted))
}

func TestCanTransition_TerminalStatesAreFinal(t *testing.T) {
	for _, from := range []models.SubmissionStatus{models.StatusCompleted, models.StatusError} {
		for _, to := range all {
			assert.False(t, lifecycle.CanTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func TestCanTransition_NeverRegresses(t *testing.T) {
	for _, from := range all {
		for _, to := range all {
			if lifecycle.CanTransition(from, to) {
				assert.False(t, lifecycle.CanTransition(to, from), "%s -> %s is reversible", from, to)
				assert.NotEqual(t, from, to)
			}
		}
	}
}

func TestTransition_Allows(t *testing.T) {
	cases := []struct {
		transition lifecycle.Transition
		status     models.SubmissionStatus
		want       bool
	}{
		{lifecycle.Begin, models.StatusPending, true},
		{lifecycle.Begin, models.StatusEvaluating, false},
		{lifecycle.Complete, models.StatusEvaluating, true},
		{lifecycle.Complete, models.StatusPending, false},
		{lifecycle.Complete, models.StatusError, false},
		{lifecycle.Fail, models.StatusEvaluating, true},
		{lifecycle.Fail, models.StatusPending, false},
		{lifecycle.Abandon, models.StatusPending, true},
		{lifecycle.Abandon, models.StatusEvaluating, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.transition.Allows(tc.status), "%s from %s", tc.transition, tc.status)
	}
}

func TestTransition_Validate(t *testing.T) {
	for _, tr := range []lifecycle.Transition{lifecycle.Begin, lifecycle.Complete, lifecycle.Fail, lifecycle.Abandon} {
		assert.NoError(t, tr.Validate(), tr.String())
	}

	bogus := lifecycle.Transition{Name: "reopen", From: models.StatusCompleted, To: models.StatusPending}
	assert.Error(t, bogus.Validate())
}
