package store

import (
	"context"
	"testing"
	"time"
)

func TestMemoryStore_WritesAllKeysTogether(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	if err := m.Save(ctx, Persisted{Token: "T1", UserID: "U1", ExpiresAt: time.UnixMilli(3_600_000)}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	raw := m.Raw()
	if raw[KeyToken] != "T1" || raw[KeyUserID] != "U1" || raw[KeyTokenExpiration] != "3600000" {
		t.Fatalf("unexpected raw values: %v", raw)
	}

	if err := m.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if len(m.Raw()) != 0 {
		t.Fatalf("expected no keys after Clear, got %v", m.Raw())
	}
}

func TestMemoryStore_MalformedExpiration(t *testing.T) {
	m := NewMemory()
	m.Set(KeyToken, "T1")
	m.Set(KeyUserID, "U1")
	m.Set(KeyTokenExpiration, "not-a-number")

	p, err := m.Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if p.Empty() {
		t.Fatal("expected token and user id to load")
	}
	if !p.ExpiresAt.IsZero() {
		t.Fatalf("expected zero expiration, got %v", p.ExpiresAt)
	}
}

func TestParseExpiration(t *testing.T) {
	tests := []struct {
		in   string
		want int64
		zero bool
	}{
		{"", 0, true},
		{"abc", 0, true},
		{"1700000000000", 1_700_000_000_000, false},
	}
	for _, tt := range tests {
		got := ParseExpiration(tt.in)
		if tt.zero {
			if !got.IsZero() {
				t.Errorf("ParseExpiration(%q) = %v, want zero", tt.in, got)
			}
			continue
		}
		if got.UnixMilli() != tt.want {
			t.Errorf("ParseExpiration(%q) = %d, want %d", tt.in, got.UnixMilli(), tt.want)
		}
	}
}
