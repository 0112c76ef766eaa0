// Package lifecycle holds the submission state machine:
//
//	pending -> evaluating -> completed
//	   |                  -> error
//	   +-> error (abandoned: never picked up by an evaluator)
//
// completed and error are terminal. Stores apply a Transition as a
// compare-and-set on From, so a lost race surfaces as a status conflict.
package lifecycle

import (
	"fmt"

	"github.com/vytor/skillforge/internal/models"
)

// Transition is one legal edge of the state machine.
type Transition struct {
	Name string
	From models.SubmissionStatus
	To   models.SubmissionStatus
}

var (
	Begin    = Transition{Name: "begin", From: models.StatusPending, To: models.StatusEvaluating}
	Complete = Transition{Name: "complete", From: models.StatusEvaluating, To: models.StatusCompleted}
	Fail     = Transition{Name: "fail", From: models.StatusEvaluating, To: models.StatusError}
	Abandon  = Transition{Name: "abandon", From: models.StatusPending, To: models.StatusError}
)

var transitions = []Transition{Begin, Complete, Fail, Abandon}

// Allows reports whether a submission currently in status may take t.
func (t Transition) Allows(status models.SubmissionStatus) bool {
	return status == t.From
}

func (t Transition) String() string {
	return fmt.Sprintf("%s (%s -> %s)", t.Name, t.From, t.To)
}

// CanTransition reports whether from -> to is a legal edge.
func CanTransition(from, to models.SubmissionStatus) bool {
	for _, t := range transitions {
		if t.From == from && t.To == to {
			return true
		}
	}
	return false
}

// Validate rejects a Transition value that is not one of the declared edges.
func (t Transition) Validate() error {
	if !CanTransition(t.From, t.To) {
		return fmt.Errorf("illegal transition %s -> %s", t.From, t.To)
	}
	return nil
}
