// Package app combines the session manager with the coach and request
// collections and exposes the derived queries the UI reads.
package app

import (
	"context"
	"errors"
	"log/slog"

	"github.com/ashureev/coach-finder/internal/coaches"
	"github.com/ashureev/coach-finder/internal/domain"
	"github.com/ashureev/coach-finder/internal/requests"
	"github.com/ashureev/coach-finder/internal/session"
)

// ErrNotAuthenticated is returned by operations that need a session.
var ErrNotAuthenticated = errors.New("not authenticated")

// Store is the single state container behind the UI.
type Store struct {
	session   *session.Manager
	directory *coaches.Directory
	inbox     *requests.Inbox
	logger    *slog.Logger
}

// New creates a Store over its three components.
func New(mgr *session.Manager, dir *coaches.Directory, inbox *requests.Inbox, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		session:   mgr,
		directory: dir,
		inbox:     inbox,
		logger:    logger,
	}
}

// Init restores a persisted session. It runs once at startup.
func (s *Store) Init(ctx context.Context) error {
	return s.session.Restore(ctx)
}

// Session returns the session manager.
func (s *Store) Session() *session.Manager {
	return s.session
}

// SignUp creates an account and starts a session.
func (s *Store) SignUp(ctx context.Context, email, password string) error {
	return s.session.SignUp(ctx, email, password)
}

// SignIn starts a session for an existing account.
func (s *Store) SignIn(ctx context.Context, email, password string) error {
	return s.session.SignIn(ctx, email, password)
}

// SignOut ends the current session.
func (s *Store) SignOut(ctx context.Context) {
	s.session.SignOut(ctx)
}

// IsAuthenticated reports whether a session token is held.
func (s *Store) IsAuthenticated() bool {
	return s.session.IsAuthenticated()
}

// IsCoach reports whether the current user has a coach record in the
// directory.
func (s *Store) IsCoach() bool {
	uid := s.session.UserID()
	return uid != "" && s.directory.Has(uid)
}

// Coaches returns the cached coaches offering any of areas, or all of them.
func (s *Store) Coaches(areas ...domain.Area) []domain.Coach {
	return s.directory.Filter(areas...)
}

// Coach looks up one cached coach.
func (s *Store) Coach(id string) (domain.Coach, bool) {
	return s.directory.Get(id)
}

// ShouldUpdateCoaches reports whether the coach cache is stale.
func (s *Store) ShouldUpdateCoaches() bool {
	return s.directory.ShouldUpdate()
}

// LoadCoaches refreshes the coach directory unless it is fresh and force is
// false.
func (s *Store) LoadCoaches(ctx context.Context, force bool) error {
	return s.directory.Load(ctx, force)
}

// RegisterCoach writes a coach record for the signed-in user.
func (s *Store) RegisterCoach(ctx context.Context, fields domain.CoachFields) (domain.Coach, error) {
	if err := fields.Validate(); err != nil {
		return domain.Coach{}, err
	}
	sess := s.session.Snapshot()
	if !sess.Authenticated() {
		return domain.Coach{}, ErrNotAuthenticated
	}
	return s.directory.Register(ctx, fields, sess.UserID, sess.Token)
}

// ContactCoach sends a contact request to coachID.
func (s *Store) ContactCoach(ctx context.Context, coachID, email, message string) (domain.ContactRequest, error) {
	if err := (domain.RequestFields{UserEmail: email, Message: message}).Validate(); err != nil {
		return domain.ContactRequest{}, err
	}
	return s.inbox.Contact(ctx, coachID, email, message)
}

// LoadRequests fetches the requests addressed to the signed-in user. If the
// session changes while the fetch is in flight the result is discarded and
// session.ErrSuperseded is returned.
func (s *Store) LoadRequests(ctx context.Context) error {
	epoch := s.session.Epoch()
	sess := s.session.Snapshot()
	if !sess.Authenticated() {
		return ErrNotAuthenticated
	}

	items, err := s.inbox.Fetch(ctx, sess.UserID, sess.Token)
	if err != nil {
		return err
	}
	if s.session.Epoch() != epoch {
		s.logger.Info("Discarding requests fetched for superseded session", "user_id", sess.UserID)
		return session.ErrSuperseded
	}
	s.inbox.Replace(items)
	return nil
}

// Requests returns the requests addressed to the current user.
func (s *Store) Requests() []domain.ContactRequest {
	return s.inbox.OwnRequests(s.session.UserID())
}

// HasRequests reports whether the current user has received any request.
func (s *Store) HasRequests() bool {
	return len(s.Requests()) > 0
}
