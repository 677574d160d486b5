package coaches

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ashureev/coach-finder/internal/cache"
	"github.com/ashureev/coach-finder/internal/clock"
	"github.com/ashureev/coach-finder/internal/domain"
)

type fakeRemote struct {
	listCalls int
	coaches   []domain.Coach
	listErr   error

	putErr   error
	putID    string
	putToken string
	putBody  domain.CoachFields
}

func (f *fakeRemote) ListCoaches(context.Context) ([]domain.Coach, error) {
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]domain.Coach(nil), f.coaches...), nil
}

func (f *fakeRemote) PutCoach(_ context.Context, id, token string, fields domain.CoachFields) error {
	f.putID, f.putToken, f.putBody = id, token, fields
	return f.putErr
}

func newDirectory(remote *fakeRemote) (*Directory, *clock.Fake) {
	clk := clock.NewFake(time.Unix(1_700_000_000, 0))
	return NewDirectory(remote, cache.DefaultWindow, clk, nil), clk
}

var sampleFields = domain.CoachFields{
	FirstName:   "Test",
	LastName:    "Coach",
	Description: "A test coach.",
	HourlyRate:  100,
	Areas:       []domain.Area{domain.AreaFrontend},
}

func TestLoadSkipsWhileFresh(t *testing.T) {
	remote := &fakeRemote{coaches: []domain.Coach{{ID: "c1", FirstName: "A"}}}
	d, clk := newDirectory(remote)
	ctx := context.Background()

	if err := d.Load(ctx, false); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	remote.coaches = append(remote.coaches, domain.Coach{ID: "c2"})

	clk.Advance(10 * time.Second)
	if err := d.Load(ctx, false); err != nil {
		t.Fatalf("second Load failed: %v", err)
	}
	if remote.listCalls != 1 || d.Len() != 1 {
		t.Fatalf("expected a cache hit, got %d calls and %d coaches", remote.listCalls, d.Len())
	}

	if err := d.Load(ctx, true); err != nil {
		t.Fatalf("forced Load failed: %v", err)
	}
	if remote.listCalls != 2 || d.Len() != 2 {
		t.Fatalf("expected forced fetch, got %d calls and %d coaches", remote.listCalls, d.Len())
	}
}

func TestLoadFailureIsFetchError(t *testing.T) {
	remote := &fakeRemote{listErr: errors.New("boom")}
	d, _ := newDirectory(remote)

	var ferr *cache.FetchError
	if err := d.Load(context.Background(), false); !errors.As(err, &ferr) {
		t.Fatalf("expected FetchError, got %v", err)
	}
}

func TestRegisterPrependsOwnedCoach(t *testing.T) {
	remote := &fakeRemote{coaches: []domain.Coach{{ID: "c1"}, {ID: "c2"}}}
	d, _ := newDirectory(remote)
	ctx := context.Background()
	_ = d.Load(ctx, false)

	coach, err := d.Register(ctx, sampleFields, "test-user-id", "test-auth-token")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if remote.putID != "test-user-id" || remote.putToken != "test-auth-token" {
		t.Fatalf("unexpected put target %q/%q", remote.putID, remote.putToken)
	}
	if remote.putBody.FirstName != "Test" || remote.putBody.HourlyRate != 100 {
		t.Fatalf("unexpected put body %+v", remote.putBody)
	}
	if coach.ID != "test-user-id" {
		t.Fatalf("expected id to equal owner id, got %q", coach.ID)
	}

	all := d.Coaches()
	if len(all) != 3 {
		t.Fatalf("expected length to grow by one, got %d", len(all))
	}
	if all[0].ID != "test-user-id" {
		t.Fatalf("expected new coach first, got %q", all[0].ID)
	}
	if remote.listCalls != 1 {
		t.Fatalf("register must not refetch, got %d list calls", remote.listCalls)
	}
}

func TestRegisterFailureLeavesDirectory(t *testing.T) {
	remote := &fakeRemote{coaches: []domain.Coach{{ID: "c1"}}, putErr: errors.New("Failed to save")}
	d, _ := newDirectory(remote)
	ctx := context.Background()
	_ = d.Load(ctx, false)

	_, err := d.Register(ctx, sampleFields, "u1", "tok")
	var rerr *RegistrationError
	if !errors.As(err, &rerr) {
		t.Fatalf("expected RegistrationError, got %v", err)
	}
	if d.Len() != 1 {
		t.Fatalf("expected directory unchanged, got %d coaches", d.Len())
	}
}

func TestRegisterTwiceKeepsDuplicates(t *testing.T) {
	remote := &fakeRemote{}
	d, _ := newDirectory(remote)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := d.Register(ctx, sampleFields, "u1", "tok"); err != nil {
			t.Fatalf("Register failed: %v", err)
		}
	}
	all := d.Coaches()
	if len(all) != 2 || all[0].ID != "u1" || all[1].ID != "u1" {
		t.Fatalf("expected two entries for u1, got %+v", all)
	}
}

func TestHasAndGet(t *testing.T) {
	remote := &fakeRemote{coaches: []domain.Coach{{ID: "c1", FirstName: "Ann"}}}
	d, _ := newDirectory(remote)
	_ = d.Load(context.Background(), false)

	if !d.Has("c1") || d.Has("c2") || d.Has("") {
		t.Fatal("unexpected Has results")
	}
	c, ok := d.Get("c1")
	if !ok || c.FirstName != "Ann" {
		t.Fatalf("unexpected Get result %+v (ok=%v)", c, ok)
	}
}

func TestFilter(t *testing.T) {
	remote := &fakeRemote{coaches: []domain.Coach{
		{ID: "fe", Areas: []domain.Area{domain.AreaFrontend}},
		{ID: "be", Areas: []domain.Area{domain.AreaBackend}},
		{ID: "full", Areas: []domain.Area{domain.AreaFrontend, domain.AreaBackend, domain.AreaCareer}},
	}}
	d, _ := newDirectory(remote)
	_ = d.Load(context.Background(), false)

	tests := []struct {
		name  string
		areas []domain.Area
		want  []string
	}{
		{"no filter", nil, []string{"fe", "be", "full"}},
		{"frontend", []domain.Area{domain.AreaFrontend}, []string{"fe", "full"}},
		{"career", []domain.Area{domain.AreaCareer}, []string{"full"}},
		{"backend or career", []domain.Area{domain.AreaBackend, domain.AreaCareer}, []string{"be", "full"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := d.Filter(tt.areas...)
			if len(got) != len(tt.want) {
				t.Fatalf("expected %v, got %+v", tt.want, got)
			}
			for i, id := range tt.want {
				if got[i].ID != id {
					t.Fatalf("expected %v, got %+v", tt.want, got)
				}
			}
		})
	}
}
