package services

import (
	stderrors "errors"
	"time"

	"github.com/vytor/skillforge/internal/errors"
	"github.com/vytor/skillforge/internal/models"
	"github.com/vytor/skillforge/internal/repository"
)

// Clock returns the current time. Services take one so tests can pin "now".
type Clock func() time.Time

func systemClock() time.Time { return time.Now().UTC() }

func clockOr(c Clock) Clock {
	if c == nil {
		return systemClock
	}
	return func() time.Time { return c().UTC() }
}

// transitionError maps a store transition failure onto the API taxonomy.
func transitionError(id string, to models.SubmissionStatus, err error) error {
	if stderrors.Is(err, repository.ErrNotFound) {
		return errors.NewNotFoundError("submission", id)
	}
	var conflict *repository.StatusConflictError
	if stderrors.As(err, &conflict) {
		return errors.NewInvalidTransitionError(id, string(conflict.Current), string(to))
	}
	return errors.NewInternalError(err)
}

// passthrough keeps AppErrors and wraps anything else as internal.
func passthrough(err error) error {
	if _, ok := errors.As(err); ok {
		return err
	}
	return errors.NewInternalError(err)
}
