package query

import (
	"errors"
	"testing"

	"github.com/kailas-cloud/talentrag/internal/domain"
	"github.com/kailas-cloud/talentrag/internal/domain/search/filter"
)

func TestNew_Defaults(t *testing.T) {
	c, err := New("  go engineer ", filter.Filter{}, 0, 10, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Text() != "go engineer" {
		t.Errorf("Text() = %q", c.Text())
	}
	if c.K() != 10 {
		t.Errorf("K() = %d, want 10", c.K())
	}
	if c.Role() != domain.RoleCandidate {
		t.Errorf("Role() = %q, want candidate", c.Role())
	}
}

func TestNew_ClampsK(t *testing.T) {
	c, err := New("q", filter.Filter{}, 5000, 10, domain.RoleAdmin)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.K() != MaxK {
		t.Errorf("K() = %d, want %d", c.K(), MaxK)
	}
}

func TestNew_Errors(t *testing.T) {
	if _, err := New("   ", filter.Filter{}, 1, 10, ""); !errors.Is(err, domain.ErrInvalidQuery) {
		t.Errorf("expected ErrInvalidQuery for empty text, got %v", err)
	}
	if _, err := New("q", filter.Filter{}, -1, 10, ""); !errors.Is(err, domain.ErrInvalidQuery) {
		t.Errorf("expected ErrInvalidQuery for negative k, got %v", err)
	}
}
