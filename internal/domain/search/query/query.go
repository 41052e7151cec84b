package query

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/talentrag/internal/domain"
	"github.com/kailas-cloud/talentrag/internal/domain/search/filter"
)

// MaxK caps the number of results any single query may request.
const MaxK = 100

// Context is one retrieval request: what to look for, how to narrow it, and who asks.
type Context struct {
	text   string
	filter filter.Filter
	k      int
	role   domain.Role
}

// New validates and creates a query Context.
// k == 0 selects defaultK; k above MaxK is clamped.
func New(text string, f filter.Filter, k, defaultK int, role domain.Role) (Context, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Context{}, fmt.Errorf("%w: query text is required", domain.ErrInvalidQuery)
	}
	if k < 0 {
		return Context{}, fmt.Errorf("%w: k must be positive, got %d", domain.ErrInvalidQuery, k)
	}
	if k == 0 {
		k = defaultK
	}
	if k < 1 {
		k = 1
	}
	if k > MaxK {
		k = MaxK
	}
	if role == "" {
		role = domain.RoleCandidate
	}
	return Context{text: text, filter: f, k: k, role: role}, nil
}

// Text returns the trimmed query text.
func (c Context) Text() string { return c.text }

// Filter returns the structural filter.
func (c Context) Filter() filter.Filter { return c.filter }

// K returns the result limit, always >= 1.
func (c Context) K() int { return c.k }

// Role returns the caller role.
func (c Context) Role() domain.Role { return c.role }
