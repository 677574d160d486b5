// Package session manages the client's authenticated session: sign-up,
// sign-in, sign-out, restore after restart, and timed auto-logout.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ashureev/coach-finder/internal/clock"
	"github.com/ashureev/coach-finder/internal/domain"
	"github.com/ashureev/coach-finder/internal/identity"
	"github.com/ashureev/coach-finder/internal/metrics"
	"github.com/ashureev/coach-finder/internal/store"
)

// Authenticator is the identity provider operation the manager needs.
type Authenticator interface {
	Authenticate(ctx context.Context, mode identity.Mode, email, password string) (*identity.Credentials, error)
}

// EventKind identifies a session transition.
type EventKind int

const (
	EventSignedIn EventKind = iota + 1
	EventRestored
	EventSignedOut
	EventExpired
)

func (k EventKind) String() string {
	switch k {
	case EventSignedIn:
		return "signed_in"
	case EventRestored:
		return "restored"
	case EventSignedOut:
		return "signed_out"
	case EventExpired:
		return "expired"
	}
	return "unknown"
}

// Event is delivered to subscribers after a transition.
type Event struct {
	Kind   EventKind
	UserID string
}

// Manager owns the session state. The epoch increases on every transition
// so that responses started under an older session can be recognised.
type Manager struct {
	auth      Authenticator
	persist   store.SessionStore
	scheduler *Scheduler
	clock     clock.Clock
	logger    *slog.Logger

	mu        sync.Mutex
	state     domain.Session
	epoch     uint64
	observers []func(Event)
}

// NewManager creates an anonymous manager. Call Restore once at startup.
func NewManager(auth Authenticator, persist store.SessionStore, scheduler *Scheduler, clk clock.Clock, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		auth:      auth,
		persist:   persist,
		scheduler: scheduler,
		clock:     clk,
		logger:    logger,
	}
}

// Subscribe registers fn to be called after every transition. Callbacks run
// synchronously on the goroutine that caused the transition.
func (m *Manager) Subscribe(fn func(Event)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observers = append(m.observers, fn)
}

// SignUp creates an account and starts a session for it.
func (m *Manager) SignUp(ctx context.Context, email, password string) error {
	return m.authenticate(ctx, identity.ModeSignUp, email, password)
}

// SignIn starts a session for an existing account.
func (m *Manager) SignIn(ctx context.Context, email, password string) error {
	return m.authenticate(ctx, identity.ModeSignIn, email, password)
}

func (m *Manager) authenticate(ctx context.Context, mode identity.Mode, email, password string) error {
	m.mu.Lock()
	epoch := m.epoch
	m.mu.Unlock()

	creds, err := m.auth.Authenticate(ctx, mode, email, password)
	if err != nil {
		var perr *identity.ProviderError
		if errors.As(err, &perr) {
			metrics.AuthAttempts.WithLabelValues(string(mode), "rejected").Inc()
			m.logger.Info("Authentication rejected", "mode", mode, "reason", perr.Message)
			return &AuthError{Message: perr.Message, Err: err}
		}
		metrics.AuthAttempts.WithLabelValues(string(mode), "error").Inc()
		m.logger.Warn("Authentication request failed", "mode", mode, "error", err)
		return &AuthError{Message: err.Error(), Err: err}
	}
	if creds.ExpiresIn <= 0 {
		metrics.AuthAttempts.WithLabelValues(string(mode), "error").Inc()
		return &AuthError{Message: fmt.Sprintf("provider returned non-positive lifetime %s", creds.ExpiresIn)}
	}

	m.mu.Lock()
	if m.epoch != epoch {
		m.mu.Unlock()
		metrics.AuthAttempts.WithLabelValues(string(mode), "superseded").Inc()
		m.logger.Info("Discarding authentication response for superseded session", "mode", mode)
		return ErrSuperseded
	}

	expiresAt := m.clock.Now().Add(creds.ExpiresIn)
	if err := m.persist.Save(ctx, store.Persisted{
		Token:     creds.IDToken,
		UserID:    creds.LocalID,
		ExpiresAt: expiresAt,
	}); err != nil {
		m.mu.Unlock()
		metrics.AuthAttempts.WithLabelValues(string(mode), "error").Inc()
		return fmt.Errorf("persist session: %w", err)
	}

	m.epoch++
	m.state = domain.Session{
		Token:     creds.IDToken,
		UserID:    creds.LocalID,
		ExpiresAt: expiresAt,
	}
	m.armLocked(creds.ExpiresIn)
	observers := m.observers
	m.mu.Unlock()

	metrics.AuthAttempts.WithLabelValues(string(mode), "success").Inc()
	m.logger.Info("Session started", "mode", mode, "user_id", creds.LocalID, "expires_at", expiresAt)
	notify(observers, Event{Kind: EventSignedIn, UserID: creds.LocalID})
	return nil
}

// SignOut clears the session, its persisted keys and the pending timer.
// Persistence failures are logged, never returned.
func (m *Manager) SignOut(ctx context.Context) {
	m.mu.Lock()
	userID := m.state.UserID
	m.clearLocked(ctx)
	observers := m.observers
	m.mu.Unlock()

	metrics.SignOuts.Inc()
	m.logger.Info("Signed out", "user_id", userID)
	notify(observers, Event{Kind: EventSignedOut, UserID: userID})
}

// Restore reloads a persisted session at startup. A session whose expiry is
// not in the future is silently discarded. Only a storage read failure is
// returned; the manager stays anonymous in that case.
func (m *Manager) Restore(ctx context.Context) error {
	m.mu.Lock()

	p, err := m.persist.Load(ctx)
	if err != nil {
		m.mu.Unlock()
		metrics.SessionRestores.WithLabelValues("error").Inc()
		return fmt.Errorf("load persisted session: %w", err)
	}

	if p.Empty() {
		m.mu.Unlock()
		metrics.SessionRestores.WithLabelValues("anonymous").Inc()
		m.logger.Info("No persisted session")
		return nil
	}

	remaining := p.ExpiresAt.Sub(m.clock.Now())
	if p.ExpiresAt.IsZero() || remaining <= 0 {
		m.clearLocked(ctx)
		m.mu.Unlock()
		metrics.SessionRestores.WithLabelValues("expired").Inc()
		m.logger.Info("Persisted session expired, discarding", "user_id", p.UserID)
		return nil
	}

	m.epoch++
	m.state = domain.Session{
		Token:     p.Token,
		UserID:    p.UserID,
		ExpiresAt: p.ExpiresAt,
	}
	m.armLocked(remaining)
	observers := m.observers
	m.mu.Unlock()

	metrics.SessionRestores.WithLabelValues("restored").Inc()
	m.logger.Info("Session restored", "user_id", p.UserID, "remaining", remaining)
	notify(observers, Event{Kind: EventRestored, UserID: p.UserID})
	return nil
}

// autoLogout runs from the scheduler. It is a no-op if the session it was
// armed for has already been replaced.
func (m *Manager) autoLogout(epoch uint64) {
	m.mu.Lock()
	if m.epoch != epoch {
		m.mu.Unlock()
		return
	}
	userID := m.state.UserID
	m.clearLocked(context.Background())
	m.state.AutoLoggedOut = true
	observers := m.observers
	m.mu.Unlock()

	metrics.SessionExpirations.Inc()
	m.logger.Info("Session expired, logged out automatically", "user_id", userID)
	notify(observers, Event{Kind: EventExpired, UserID: userID})
}

func (m *Manager) armLocked(d time.Duration) {
	epoch := m.epoch
	m.scheduler.Arm(d, func() { m.autoLogout(epoch) })
}

// clearLocked removes persisted keys, cancels the timer and resets state.
// The auto-logout flag survives; only a new session resets it.
func (m *Manager) clearLocked(ctx context.Context) {
	if err := m.persist.Clear(ctx); err != nil {
		m.logger.Error("Failed to clear persisted session", "error", err)
	}
	m.scheduler.Cancel()
	m.epoch++
	m.state = domain.Session{AutoLoggedOut: m.state.AutoLoggedOut}
}

func notify(observers []func(Event), ev Event) {
	for _, fn := range observers {
		fn(ev)
	}
}

// Snapshot returns a copy of the current session.
func (m *Manager) Snapshot() domain.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// IsAuthenticated reports whether a token is held.
func (m *Manager) IsAuthenticated() bool {
	return m.Snapshot().Authenticated()
}

// Token returns the current token, or "" when anonymous.
func (m *Manager) Token() string {
	return m.Snapshot().Token
}

// UserID returns the current user id, or "" when anonymous.
func (m *Manager) UserID() string {
	return m.Snapshot().UserID
}

// AutoLoggedOut reports whether the last session ended by expiring. It stays
// set until the next successful authentication.
func (m *Manager) AutoLoggedOut() bool {
	return m.Snapshot().AutoLoggedOut
}

// Epoch returns the current session epoch.
func (m *Manager) Epoch() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.epoch
}
