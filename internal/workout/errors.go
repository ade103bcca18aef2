package workout

import (
	"github.com/dubovds/workout-tracker/internal/errors"
)

var (
	ErrNotFound = errors.NewSentinel("not found")
	// ErrInvalidInput matches every [*InputError].
	ErrInvalidInput = errors.NewSentinel("invalid input")

	ErrCooldown         error = &InputError{Message: "Please wait before saving again."}
	ErrSaveInProgress   error = &InputError{Message: "A save is already in progress."}
	ErrLastSet          error = &InputError{Message: "Cannot remove the last set. Each exercise must have at least one set."}
	ErrExerciseNotFound error = &InputError{Message: "Exercise not found."}
	ErrSetNotFound      error = &InputError{Message: "Set not found."}
)

// InputError is a problem with caller supplied data. Message is meant for end users.
type InputError struct {
	Message string
}

func (e *InputError) Error() string {
	return e.Message
}

func (e *InputError) Is(target error) bool {
	return target == ErrInvalidInput //nolint:errorlint // sentinel identity
}

func inputError(msg string) error {
	return &InputError{Message: msg}
}
