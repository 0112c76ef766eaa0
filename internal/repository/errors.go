package repository

import (
	"errors"
	"fmt"

	"github.com/vytor/skillforge/internal/models"
)

// ErrNotFound is returned by mutations whose target row does not exist.
var ErrNotFound = errors.New("not found")

// StatusConflictError is returned when a compare-and-set transition finds the
// row in a different status than expected.
type StatusConflictError struct {
	ID       string
	Expected models.SubmissionStatus
	Current  models.SubmissionStatus
}

func (e *StatusConflictError) Error() string {
	return fmt.Sprintf("submission %s: expected status %s, found %s", e.ID, e.Expected, e.Current)
}
