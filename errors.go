package geminisdk

import "fmt"

// SessionClosedError is returned when sending to a destroyed session.
type SessionClosedError struct {
	SessionID string
}

func (e *SessionClosedError) Error() string {
	return fmt.Sprintf("session %s is closed", e.SessionID)
}

// SessionNotFoundError is returned when looking up an unknown session ID.
type SessionNotFoundError struct {
	SessionID string
}

func (e *SessionNotFoundError) Error() string {
	return fmt.Sprintf("session %s not found", e.SessionID)
}
