package quiz

import (
	"errors"
	"fmt"
)

// State-machine contract violations. Always caller error, never transient.
var (
	ErrQuizNotFound     = errors.New("quiz not found")
	ErrAttemptNotFound  = errors.New("attempt not found")
	ErrOutOfRange       = errors.New("question index out of range")
	ErrAlreadyAnswered  = errors.New("question already answered")
	ErrAlreadyCompleted = errors.New("attempt already completed")
	ErrNotCompleted     = errors.New("attempt not completed")
	ErrNoAnswers        = errors.New("no questions answered")
)

// ErrVersionConflict is returned by Store.UpdateAttempt when the attempt row
// changed since it was read. Callers re-read and re-check preconditions.
var ErrVersionConflict = errors.New("attempt modified concurrently")

// ValidationError means raw generator output was unusable after
// normalization: zero questions survived filtering. Recoverable only by
// regenerating.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid question payload: %s", e.Reason)
}

// GenerationError means the external generator failed, timed out, or
// returned unparsable content. The caller decides whether to retry.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("quiz generation failed: %v", e.Err)
	}
	return "quiz generation failed"
}

func (e *GenerationError) Unwrap() error { return e.Err }
