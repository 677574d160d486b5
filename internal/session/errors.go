package session

import "errors"

// ErrSuperseded is returned when a sign-out or another authentication
// completed while the call was in flight; its result was discarded.
var ErrSuperseded = errors.New("session changed while request was in flight")

// AuthError reports a failed sign-up or sign-in. Message is suitable for
// display.
type AuthError struct {
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	return e.Message
}

func (e *AuthError) Unwrap() error {
	return e.Err
}
