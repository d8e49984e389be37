package http

import (
	"errors"

	apierrors "cellviewer/internal/errors"
	"cellviewer/internal/services"
)

// serviceError maps service sentinel errors to API errors. Anything else is
// returned unchanged for the error handler to classify.
func serviceError(err error) error {
	switch {
	case errors.Is(err, services.ErrFileNotFound),
		errors.Is(err, services.ErrJobNotFound),
		errors.Is(err, services.ErrLabelNotFound):
		return apierrors.ErrNotFound.WithMessage(err.Error())
	case errors.Is(err, services.ErrLabelInUse):
		return apierrors.ErrConflict.WithMessage(err.Error())
	case errors.Is(err, services.ErrDimensionMismatch),
		errors.Is(err, services.ErrTooFewJobs):
		return apierrors.ErrUnprocessableEntity.WithMessage(err.Error())
	case errors.Is(err, services.ErrInvalidLabels),
		errors.Is(err, services.ErrInvalidInput),
		errors.Is(err, services.ErrNoFiles):
		return apierrors.ErrInvalidRequest.WithMessage(err.Error())
	default:
		return err
	}
}
