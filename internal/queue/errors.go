package queue

import (
	"errors"

	"reelsmith/internal/services"
)

// FailureStatus maps a stage error to the status the runner should persist
// after the stage fails. Validation, configuration, and not-found errors need
// operator attention and route to review; everything else is a retryable
// failure.
func FailureStatus(err error) Status {
	switch {
	case errors.Is(err, services.ErrValidation),
		errors.Is(err, services.ErrConfiguration),
		errors.Is(err, services.ErrNotFound):
		return StatusReview
	default:
		return StatusFailed
	}
}
