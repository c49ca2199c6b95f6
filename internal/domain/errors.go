package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrSessionNotFound is returned when a quiz session id does not resolve.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrSessionNotInProgress is returned for answer operations outside a running session.
	ErrSessionNotInProgress = errors.New("quiz session not in progress")
	// ErrSessionNotCompleted is returned when results are requested before the last question.
	ErrSessionNotCompleted = errors.New("quiz session not completed")
	// ErrNoAnswerSelected is returned when advancing without a selected answer.
	ErrNoAnswerSelected = errors.New("no answer selected for current question")
	// ErrAnswerAlreadySelected is returned when a second answer is selected before advancing.
	ErrAnswerAlreadySelected = errors.New("answer already selected for current question")
	// ErrInvalidTimerTransition is returned when a timer operation is not valid in its state.
	ErrInvalidTimerTransition = errors.New("invalid timer transition")
)

// ValidationError reports a rejected input; the operation was not attempted.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Message
	}
	return fmt.Sprintf("validation failed: %s %s", e.Field, e.Message)
}

// PersistenceError reports a failure of the backing store.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsPersistence reports whether err is a PersistenceError.
func IsPersistence(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}
