package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrQuizNotFound indicates the quiz metadata could not be found.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrNoQuestions is returned when a quiz has no usable questions for a level.
	ErrNoQuestions = errors.New("no questions available")
	// ErrInvalidLevel indicates an unknown difficulty level.
	ErrInvalidLevel = errors.New("invalid level")
	// ErrStorageUnavailable marks a key-value backend that failed its availability probe.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// MalformedQuestionError describes a fetched question record that could not be normalized.
type MalformedQuestionError struct {
	QuestionID string
	Reason     string
}

func (e *MalformedQuestionError) Error() string {
	return fmt.Sprintf("malformed question %q: %s", e.QuestionID, e.Reason)
}

// FetchError wraps a failed quiz metadata or question fetch with a message safe to show to learners.
type FetchError struct {
	Op      string
	Message string
	Err     error
}

func (e *FetchError) Error() string {
	if e.Err == nil {
		return e.Op + ": " + e.Message
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *FetchError) Unwrap() error { return e.Err }

// UserMessage returns the learner-facing text for err.
func UserMessage(err error) string {
	var fe *FetchError
	if errors.As(err, &fe) && fe.Message != "" {
		return fe.Message
	}
	switch {
	case errors.Is(err, ErrQuizNotFound):
		return "This quiz could not be found."
	case errors.Is(err, ErrInvalidLevel):
		return "Unknown difficulty level."
	}
	return "Something went wrong while loading the quiz. Please try again."
}
