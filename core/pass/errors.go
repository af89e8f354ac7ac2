package pass

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when no store holds the requested pass.
	ErrNotFound = errors.New("press pass not found")
	// ErrStorageUnavailable is returned when both the primary and the
	// fallback store failed the same operation.
	ErrStorageUnavailable = errors.New("press pass storage unavailable")
)

// ValidationError reports a rejected input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

// IsValidation reports whether err is, or wraps, a *ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
