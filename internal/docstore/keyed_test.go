package docstore

import (
	"errors"
	"testing"

	"github.com/ashureev/coach-finder/internal/domain"
)

func TestDecodeKeyedPreservesOrder(t *testing.T) {
	body := []byte(`{
		"zeta": {"firstName": "Zed", "hourlyRate": 10, "areas": ["career"]},
		"alpha": {"firstName": "Al", "hourlyRate": 20, "areas": ["frontend", "backend"]},
		"mid": {"firstName": "Mia", "hourlyRate": 30}
	}`)

	coaches, err := DecodeKeyed(body, func(c *domain.Coach, key string) { c.ID = key })
	if err != nil {
		t.Fatalf("DecodeKeyed failed: %v", err)
	}

	want := []string{"zeta", "alpha", "mid"}
	if len(coaches) != len(want) {
		t.Fatalf("expected %d coaches, got %d", len(want), len(coaches))
	}
	for i, id := range want {
		if coaches[i].ID != id {
			t.Errorf("coach %d: expected id %q, got %q", i, id, coaches[i].ID)
		}
	}
	if !coaches[1].HasArea(domain.AreaBackend) {
		t.Errorf("expected alpha to have backend area, got %v", coaches[1].Areas)
	}
}

func TestDecodeKeyedEmptyBodies(t *testing.T) {
	for _, body := range []string{"", "null", "  null\n", "{}"} {
		out, err := DecodeKeyed[domain.ContactRequest]([]byte(body), nil)
		if err != nil {
			t.Fatalf("DecodeKeyed(%q) failed: %v", body, err)
		}
		if out == nil || len(out) != 0 {
			t.Fatalf("DecodeKeyed(%q) = %#v, want empty non-nil slice", body, out)
		}
	}
}

func TestDecodeKeyedRejectsNonObject(t *testing.T) {
	_, err := DecodeKeyed[domain.Coach]([]byte(`[1,2,3]`), nil)
	if !errors.Is(err, ErrMalformedCollection) {
		t.Fatalf("expected ErrMalformedCollection, got %v", err)
	}
}

func TestDecodeKeyedBadRecord(t *testing.T) {
	_, err := DecodeKeyed[domain.Coach]([]byte(`{"c1": {"hourlyRate": "lots"}}`), nil)
	if err == nil {
		t.Fatal("expected error for malformed record")
	}
}
