// Package requests holds contact requests and derives the ones addressed to
// the current user.
package requests

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/ashureev/coach-finder/internal/cache"
	"github.com/ashureev/coach-finder/internal/domain"
	"github.com/ashureev/coach-finder/internal/metrics"
)

// Remote is the document store surface used by the inbox.
type Remote interface {
	ListRequests(ctx context.Context, ownerID, token string) ([]domain.ContactRequest, error)
	PostRequest(ctx context.Context, coachID string, fields domain.RequestFields) (string, error)
}

// RequestSendError reports a failed request write. The inbox is not
// modified.
type RequestSendError struct {
	Err error
}

func (e *RequestSendError) Error() string {
	return fmt.Sprintf("send request: %v", e.Err)
}

func (e *RequestSendError) Unwrap() error {
	return e.Err
}

// Inbox holds every request fetched or sent in this process.
type Inbox struct {
	remote Remote
	logger *slog.Logger

	mu    sync.RWMutex
	items []domain.ContactRequest
}

// NewInbox creates an empty inbox.
func NewInbox(remote Remote, logger *slog.Logger) *Inbox {
	if logger == nil {
		logger = slog.Default()
	}
	return &Inbox{remote: remote, logger: logger, items: []domain.ContactRequest{}}
}

// Contact posts a request to coachID and appends it on success.
func (in *Inbox) Contact(ctx context.Context, coachID, email, message string) (domain.ContactRequest, error) {
	fields := domain.RequestFields{UserEmail: email, Message: message}
	id, err := in.remote.PostRequest(ctx, coachID, fields)
	if err != nil {
		metrics.RemoteWrites.WithLabelValues("request", "error").Inc()
		in.logger.Warn("Contact request failed", "coach_id", coachID, "error", err)
		return domain.ContactRequest{}, &RequestSendError{Err: err}
	}

	req := domain.ContactRequest{
		ID:        id,
		CoachID:   coachID,
		UserEmail: email,
		Message:   message,
	}
	in.mu.Lock()
	in.items = append(in.items, req)
	in.mu.Unlock()

	metrics.RemoteWrites.WithLabelValues("request", "success").Inc()
	in.logger.Info("Contact request sent", "coach_id", coachID, "request_id", id)
	return req, nil
}

// FetchOwn replaces the inbox with every request stored under ownerID.
func (in *Inbox) FetchOwn(ctx context.Context, ownerID, token string) error {
	items, err := in.Fetch(ctx, ownerID, token)
	if err != nil {
		return err
	}
	in.Replace(items)
	return nil
}

// Fetch reads the requests stored under ownerID without touching the inbox.
func (in *Inbox) Fetch(ctx context.Context, ownerID, token string) ([]domain.ContactRequest, error) {
	items, err := in.remote.ListRequests(ctx, ownerID, token)
	if err != nil {
		metrics.CacheRefreshes.WithLabelValues("requests", "error").Inc()
		in.logger.Warn("Request fetch failed", "user_id", ownerID, "error", err)
		return nil, &cache.FetchError{Collection: "requests", Err: err}
	}
	metrics.CacheRefreshes.WithLabelValues("requests", "miss").Inc()
	if items == nil {
		items = []domain.ContactRequest{}
	}
	return items, nil
}

// Replace swaps the inbox contents.
func (in *Inbox) Replace(items []domain.ContactRequest) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.items = slices.Clone(items)
	if in.items == nil {
		in.items = []domain.ContactRequest{}
	}
}

// All returns every held request.
func (in *Inbox) All() []domain.ContactRequest {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return slices.Clone(in.items)
}

// OwnRequests returns the requests addressed to userID in their original
// order. An empty userID yields an empty slice.
func (in *Inbox) OwnRequests(userID string) []domain.ContactRequest {
	out := []domain.ContactRequest{}
	if userID == "" {
		return out
	}
	in.mu.RLock()
	defer in.mu.RUnlock()
	for _, r := range in.items {
		if r.CoachID == userID {
			out = append(out, r)
		}
	}
	return out
}

// HasOwnRequests reports whether any request is addressed to userID.
func (in *Inbox) HasOwnRequests(userID string) bool {
	return len(in.OwnRequests(userID)) > 0
}
