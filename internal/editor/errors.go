package editor

import "fmt"

// ErrorCode is a one-word tag identifying the class of an edit failure.
type ErrorCode string

const (
	CodePathNotFound ErrorCode = "path-not-found"
	CodeValidation   ErrorCode = "validation"
	CodePersistence  ErrorCode = "persistence"
)

// EditError is the tagged error returned across the editor boundary. It is
// always returned, never panicked, so callers can render an inline message.
type EditError struct {
	Code   ErrorCode
	Reason string
	Err    error // optional underlying cause
}

func (e *EditError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Reason)
}

func (e *EditError) Unwrap() error {
	return e.Err
}

func pathNotFound(format string, args ...interface{}) *EditError {
	return &EditError{Code: CodePathNotFound, Reason: fmt.Sprintf(format, args...)}
}

func validationErr(format string, args ...interface{}) *EditError {
	return &EditError{Code: CodeValidation, Reason: fmt.Sprintf(format, args...)}
}

// PersistenceError wraps a failed save so the caller keeps the old tree and
// the draft; nothing is lost on a storage failure.
func PersistenceError(err error) *EditError {
	return &EditError{Code: CodePersistence, Reason: "save failed", Err: err}
}
