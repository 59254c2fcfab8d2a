// Package scheduling implements the calendar actions: finding common free
// time, viewing an employee's day timeline, and composing daily briefings.
package scheduling

import "github.com/kairoshq/kairos/internal/people"

// Result is the envelope every scheduling action returns. A failed result can
// still carry the participants resolved before the failure, and any names that
// matched several people, so callers can ask the user to clarify instead of
// starting over.
type Result[T any] struct {
	OK           bool                   `json:"ok"`
	Value        T                      `json:"value,omitzero"`
	Message      string                 `json:"message,omitempty"`
	Participants []people.Identity      `json:"participants,omitempty"`
	Ambiguous    []people.AmbiguousName `json:"ambiguous,omitempty"`
}

// Success wraps a value into an OK result.
func Success[T any](v T) Result[T] {
	return Result[T]{OK: true, Value: v}
}

// Failure builds a failed result carrying a user-facing message.
func Failure[T any](msg string) Result[T] {
	return Result[T]{Message: msg}
}
