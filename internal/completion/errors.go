package completion

import (
	"errors"
	"fmt"
)

// ErrInvalidInput is returned when the prompt is empty after trimming. It is
// never retried and no upstream call is made.
var ErrInvalidInput = errors.New("invalid input: prompt must be a non-empty string")

// ErrEmptyCompletion marks an upstream call that succeeded but produced no
// usable text. It is retried like any other transient failure.
var ErrEmptyCompletion = errors.New("no valid text returned from upstream")

// TransientError is a failed attempt that counts against the retry budget.
type TransientError struct {
	Attempt int
	Err     error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("attempt %d: %v", e.Attempt, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// ExhaustedError is returned once every attempt allowed by the policy has
// failed. It unwraps to the last attempt's error.
type ExhaustedError struct {
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("completion failed after %d attempts: %v", e.Attempts, e.Last)
}

func (e *ExhaustedError) Unwrap() error { return e.Last }

// IsExhausted reports whether err is (or wraps) an ExhaustedError.
func IsExhausted(err error) bool {
	var ex *ExhaustedError
	return errors.As(err, &ex)
}
