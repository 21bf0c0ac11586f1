package alerts

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a referenced notification id does not exist.
var ErrNotFound = errors.New("notification not found")

// ErrConflict is returned when an update loses the optimistic-locking
// race more times than the store is willing to retry.
var ErrConflict = errors.New("notification update conflict")

// ValidationError reports malformed or missing caller input. It is
// surfaced to the caller and never retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
