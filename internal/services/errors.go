package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrExternalService = errors.New("external service error")
	ErrValidation      = errors.New("validation error")
	ErrConfiguration   = errors.New("configuration error")
	ErrNotFound        = errors.New("not found")
	ErrTimeout         = errors.New("timeout")
	ErrTransient       = errors.New("transient failure")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later status classification. The marker should
// be one of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// MissingInput constructs the validation error used when a stage's required
// upstream artifact is absent.
func MissingInput(stage, artifact string) error {
	return Wrap(ErrValidation, stage, "validate inputs",
		fmt.Sprintf("required upstream artifact %q is missing; run the producing stage first", artifact), nil)
}

// Details extracts a human-readable summary from a wrapped service error.
type ErrorDetails struct {
	Message string
}

// Details returns the message portion of a wrapped error for operator display.
func Details(err error) ErrorDetails {
	if err == nil {
		return ErrorDetails{}
	}
	return ErrorDetails{Message: strings.TrimSpace(err.Error())}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
