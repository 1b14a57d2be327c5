package usecase

import "fmt"

// ValidationError means the caller's input was rejected before any remote
// call was made. The session stays in its current stage.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s", e.Message)
}

// BusyError means a remote request is already in flight for the session.
// At most one request per session may be outstanding.
type BusyError struct{}

func (e *BusyError) Error() string {
	return "a request is already in flight for this session"
}

// NotFoundError means no session exists for the given id.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("session %s not found", e.ID)
}

// SessionError is any remote-call failure that terminates the session. It is
// never auto-retried: the remote chat session tracks turn order internally
// and a resend could desynchronize it.
type SessionError struct {
	Message string
	Cause   error
}

func (e *SessionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("session error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("session error: %s", e.Message)
}

func (e *SessionError) Unwrap() error {
	return e.Cause
}
