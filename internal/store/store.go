// Package store provides durable storage for the client session.
package store

import (
	"context"
	"strconv"
	"time"
)

// Persisted keys. All three are written and cleared together.
const (
	KeyToken           = "token"
	KeyUserID          = "userId"
	KeyTokenExpiration = "tokenExpiration"
)

// Persisted is the session state that survives a restart.
type Persisted struct {
	Token     string
	UserID    string
	ExpiresAt time.Time
}

// Empty returns true if either the token or the user id is missing.
func (p Persisted) Empty() bool {
	return p.Token == "" || p.UserID == ""
}

// SessionStore defines durable key/value storage for the session.
type SessionStore interface {
	// Load reads the persisted values. Missing keys load as zero values;
	// a missing or malformed expiration loads as the zero time.
	Load(ctx context.Context) (Persisted, error)

	// Save writes token, user id and expiration atomically.
	Save(ctx context.Context, p Persisted) error

	// Clear removes all three keys.
	Clear(ctx context.Context) error

	// Close releases the underlying connection.
	Close() error
}

// FormatExpiration renders t as an epoch-millisecond string.
func FormatExpiration(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}

// ParseExpiration parses an epoch-millisecond string. Malformed input yields
// the zero time.
func ParseExpiration(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	ms, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}

func fromValues(values map[string]string) Persisted {
	return Persisted{
		Token:     values[KeyToken],
		UserID:    values[KeyUserID],
		ExpiresAt: ParseExpiration(values[KeyTokenExpiration]),
	}
}

func toValues(p Persisted) map[string]string {
	return map[string]string{
		KeyToken:           p.Token,
		KeyUserID:          p.UserID,
		KeyTokenExpiration: FormatExpiration(p.ExpiresAt),
	}
}
