package practice

import (
	"errors"

	"github.com/abhisek/ielts-coach/internal/evaluation"
	"github.com/abhisek/ielts-coach/internal/recorder"
)

// Validation errors. They leave the machine where it was and are shown
// inline next to the answer.
var (
	ErrEmptyAnswer = errors.New("answer is empty")
	ErrTooEarly    = errors.New("answer time has not run out")
	ErrInputClosed = errors.New("answer input is closed")
)

var (
	// ErrWrongState means the action does not apply in the current state.
	ErrWrongState = errors.New("action not available in the current state")
	// ErrStaleSubmission means a newer session replaced the one the
	// submission belongs to; its outcome is dropped.
	ErrStaleSubmission = errors.New("submission belongs to a previous session")
	ErrClosed          = errors.New("practice machine is closed")
)

// Message returns the text shown to the user for err.
func Message(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrEmptyAnswer):
		return "Please provide an answer before submitting."
	case errors.Is(err, ErrTooEarly):
		return "You can submit your answer when the time is up."
	case errors.Is(err, ErrInputClosed):
		return "Time's up! Your answer can no longer be changed."
	case errors.Is(err, evaluation.ErrFailed):
		return evaluation.FailureMessage
	case errors.Is(err, recorder.ErrUnsupported):
		return "Audio recording is not supported on this system."
	case errors.Is(err, recorder.ErrPermissionDenied):
		return "Microphone access was denied. Please allow it to record your answer."
	default:
		return err.Error()
	}
}
