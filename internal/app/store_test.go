package app

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ashureev/coach-finder/internal/clock"
	"github.com/ashureev/coach-finder/internal/coaches"
	"github.com/ashureev/coach-finder/internal/docstore"
	"github.com/ashureev/coach-finder/internal/domain"
	"github.com/ashureev/coach-finder/internal/emulator"
	"github.com/ashureev/coach-finder/internal/identity"
	"github.com/ashureev/coach-finder/internal/requests"
	"github.com/ashureev/coach-finder/internal/session"
	"github.com/ashureev/coach-finder/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	store   *Store
	emu     *emulator.Emulator
	clock   *clock.Fake
	persist *store.MemoryStore
}

// newHarness wires a Store against an in-process emulator. wrap, if set,
// decorates the emulator handler.
func newHarness(t *testing.T, wrap func(http.Handler) http.Handler) *harness {
	t.Helper()
	clk := clock.NewFake(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	emu := emulator.New(emulator.Config{TokenTTL: time.Hour, Clock: clk})

	var h http.Handler = emu.Handler()
	if wrap != nil {
		h = wrap(h)
	}
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	persist := store.NewMemory()
	auth := identity.NewClient(srv.URL+"/v1", "", srv.Client())
	docs := docstore.NewClient(srv.URL, srv.Client())

	mgr := session.NewManager(auth, persist, session.NewScheduler(clk), clk, nil)
	dir := coaches.NewDirectory(docs, 0, clk, nil)
	inbox := requests.NewInbox(docs, nil)
	return &harness{store: New(mgr, dir, inbox, nil), emu: emu, clock: clk, persist: persist}
}

func coachFields() domain.CoachFields {
	return domain.CoachFields{
		FirstName:   "Julie",
		LastName:    "Jones",
		Description: "Career coach",
		HourlyRate:  30,
		Areas:       []domain.Area{domain.AreaCareer},
	}
}

func TestRegisterCoachFlow(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	h.emu.SeedCoach("c1", domain.CoachFields{FirstName: "Max", LastName: "Schwarz", HourlyRate: 20, Areas: []domain.Area{domain.AreaFrontend}})

	require.NoError(t, h.store.LoadCoaches(ctx, false))
	assert.Len(t, h.store.Coaches(), 1)

	require.NoError(t, h.store.SignUp(ctx, "julie@test.com", "secret123"))
	assert.True(t, h.store.IsAuthenticated())
	assert.False(t, h.store.IsCoach())

	coach, err := h.store.RegisterCoach(ctx, coachFields())
	require.NoError(t, err)

	uid := h.store.Session().UserID()
	assert.Equal(t, uid, coach.ID)
	assert.True(t, h.store.IsCoach())

	list := h.store.Coaches()
	require.Len(t, list, 2)
	assert.Equal(t, uid, list[0].ID, "registered coach should be prepended")
	assert.Equal(t, 2, h.emu.CoachCount())

	career := h.store.Coaches(domain.AreaCareer)
	require.Len(t, career, 1)
	assert.Equal(t, uid, career[0].ID)
}

func TestRegisterCoachRequiresSession(t *testing.T) {
	h := newHarness(t, nil)

	_, err := h.store.RegisterCoach(context.Background(), coachFields())
	assert.ErrorIs(t, err, ErrNotAuthenticated)
	assert.Equal(t, 0, h.emu.CoachCount())
}

func TestRegisterCoachValidates(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	require.NoError(t, h.store.SignUp(ctx, "julie@test.com", "secret123"))

	fields := coachFields()
	fields.HourlyRate = 0
	_, err := h.store.RegisterCoach(ctx, fields)

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "hourlyRate", verr.Field)
	assert.Equal(t, 0, h.emu.CoachCount())
}

func TestRequestsReachTheirCoach(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	require.NoError(t, h.store.SignUp(ctx, "coach@test.com", "secret123"))
	coachID := h.store.Session().UserID()
	h.store.SignOut(ctx)

	sent, err := h.store.ContactCoach(ctx, coachID, "client@example.com", "Hello coach!")
	require.NoError(t, err)
	assert.Equal(t, coachID, sent.CoachID)
	assert.NotEmpty(t, sent.ID)
	assert.Empty(t, h.store.Requests(), "anonymous users see no requests")

	require.NoError(t, h.store.SignIn(ctx, "coach@test.com", "secret123"))
	require.NoError(t, h.store.LoadRequests(ctx))

	got := h.store.Requests()
	require.Len(t, got, 1)
	assert.Equal(t, sent, got[0])
	assert.True(t, h.store.HasRequests())
}

func TestContactCoachValidates(t *testing.T) {
	h := newHarness(t, nil)

	_, err := h.store.ContactCoach(context.Background(), "c1", "nope", "hi")
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "userEmail", verr.Field)
}

func TestLoadRequestsRequiresSession(t *testing.T) {
	h := newHarness(t, nil)
	assert.ErrorIs(t, h.store.LoadRequests(context.Background()), ErrNotAuthenticated)
}

func TestLoadRequestsDiscardedAfterSignOut(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	block := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/requests/") {
				close(started)
				<-release
			}
			next.ServeHTTP(w, r)
		})
	}
	h := newHarness(t, block)
	ctx := context.Background()

	require.NoError(t, h.store.SignUp(ctx, "coach@test.com", "secret123"))
	h.emu.SeedRequest(h.store.Session().UserID(), domain.RequestFields{UserEmail: "a@test.com", Message: "hi"})

	done := make(chan error, 1)
	go func() { done <- h.store.LoadRequests(ctx) }()

	<-started
	h.store.SignOut(ctx)
	close(release)

	err := <-done
	assert.True(t, errors.Is(err, session.ErrSuperseded), "got %v", err)
	assert.Empty(t, h.store.Session().Snapshot().Token)
}

func TestAutoLogoutClearsDerivedState(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	require.NoError(t, h.store.SignUp(ctx, "coach@test.com", "secret123"))
	_, err := h.store.RegisterCoach(ctx, coachFields())
	require.NoError(t, err)
	require.True(t, h.store.IsCoach())

	h.clock.Advance(time.Hour)

	assert.False(t, h.store.IsAuthenticated())
	assert.False(t, h.store.IsCoach())
	assert.True(t, h.store.Session().AutoLoggedOut())
	assert.Empty(t, h.persist.Raw())
}

func TestInitRestoresSession(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	expires := h.clock.Now().Add(30 * time.Minute)
	require.NoError(t, h.persist.Save(ctx, store.Persisted{Token: "T1", UserID: "U1", ExpiresAt: expires}))

	require.NoError(t, h.store.Init(ctx))
	assert.True(t, h.store.IsAuthenticated())
	assert.Equal(t, "U1", h.store.Session().UserID())
}
