// Package coaches caches the coach directory and registers new coaches.
package coaches

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ashureev/coach-finder/internal/cache"
	"github.com/ashureev/coach-finder/internal/clock"
	"github.com/ashureev/coach-finder/internal/domain"
	"github.com/ashureev/coach-finder/internal/metrics"
)

// Remote is the document store surface used by the directory.
type Remote interface {
	ListCoaches(ctx context.Context) ([]domain.Coach, error)
	PutCoach(ctx context.Context, id, token string, fields domain.CoachFields) error
}

// RegistrationError reports a failed coach write. The directory is not
// modified.
type RegistrationError struct {
	Err error
}

func (e *RegistrationError) Error() string {
	return fmt.Sprintf("register coach: %v", e.Err)
}

func (e *RegistrationError) Unwrap() error {
	return e.Err
}

// Directory is the cached coach collection.
type Directory struct {
	remote Remote
	cache  *cache.Cache[domain.Coach]
	logger *slog.Logger
}

// NewDirectory creates an empty directory with the given staleness window.
func NewDirectory(remote Remote, window time.Duration, clk clock.Clock, logger *slog.Logger) *Directory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Directory{
		remote: remote,
		cache:  cache.New[domain.Coach]("coaches", remote.ListCoaches, window, clk, logger),
		logger: logger,
	}
}

// Load refreshes the directory; see cache.Cache.Refresh.
func (d *Directory) Load(ctx context.Context, force bool) error {
	return d.cache.Refresh(ctx, force)
}

// ShouldUpdate reports whether a non-forced Load would fetch.
func (d *Directory) ShouldUpdate() bool {
	return d.cache.ShouldUpdate()
}

// Register writes fields under ownerID and, on success, puts the new coach
// at the front of the directory. An existing entry with the same id is not
// removed.
func (d *Directory) Register(ctx context.Context, fields domain.CoachFields, ownerID, token string) (domain.Coach, error) {
	if err := d.remote.PutCoach(ctx, ownerID, token, fields); err != nil {
		metrics.RemoteWrites.WithLabelValues("coach", "error").Inc()
		d.logger.Warn("Coach registration failed", "user_id", ownerID, "error", err)
		return domain.Coach{}, &RegistrationError{Err: err}
	}

	coach := fields.WithID(ownerID)
	d.cache.Prepend(coach)

	metrics.RemoteWrites.WithLabelValues("coach", "success").Inc()
	d.logger.Info("Coach registered", "user_id", ownerID)
	return coach, nil
}

// Coaches returns the directory snapshot.
func (d *Directory) Coaches() []domain.Coach {
	return d.cache.Items()
}

// Len returns the number of cached coaches.
func (d *Directory) Len() int {
	return d.cache.Len()
}

// Get returns the coach with the given id.
func (d *Directory) Get(id string) (domain.Coach, bool) {
	return d.cache.Find(func(c domain.Coach) bool { return c.ID == id })
}

// Has reports whether a coach with the given id is cached.
func (d *Directory) Has(id string) bool {
	if id == "" {
		return false
	}
	_, ok := d.Get(id)
	return ok
}

// Filter returns the coaches offering at least one of areas. With no areas
// every coach matches.
func (d *Directory) Filter(areas ...domain.Area) []domain.Coach {
	all := d.cache.Items()
	if len(areas) == 0 {
		return all
	}
	out := make([]domain.Coach, 0, len(all))
	for _, c := range all {
		for _, a := range areas {
			if c.HasArea(a) {
				out = append(out, c)
				break
			}
		}
	}
	return out
}
