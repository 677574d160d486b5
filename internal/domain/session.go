package domain

import "time"

// Session is the authenticated identity held by the client.
// Token and UserID are either both empty or both set.
type Session struct {
	Token         string
	UserID        string
	ExpiresAt     time.Time
	AutoLoggedOut bool
}

// Authenticated returns true if a token is held.
func (s Session) Authenticated() bool {
	return s.Token != ""
}

// Remaining returns the lifetime left at now, or 0 if already expired.
func (s Session) Remaining(now time.Time) time.Duration {
	if s.ExpiresAt.IsZero() {
		return 0
	}
	d := s.ExpiresAt.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}
