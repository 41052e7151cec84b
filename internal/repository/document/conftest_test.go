package document

import (
	"context"
	"testing"
	"time"

	"github.com/kailas-cloud/talentrag/internal/db/memory"
	domdoc "github.com/kailas-cloud/talentrag/internal/domain/document"
	"github.com/kailas-cloud/talentrag/internal/domain/job"
)

// mockStore wraps an in-memory store and lets a test inject failures per operation.
type mockStore struct {
	*memory.Store
	getFn  func(ctx context.Context, key string) ([]byte, error)
	scanFn func(ctx context.Context, pattern string) ([]string, error)
	setFn  func(ctx context.Context, key string, value []byte) error
}

func (m *mockStore) Get(ctx context.Context, key string) ([]byte, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	return m.Store.Get(ctx, key)
}

func (m *mockStore) Scan(ctx context.Context, pattern string) ([]string, error) {
	if m.scanFn != nil {
		return m.scanFn(ctx, pattern)
	}
	return m.Store.Scan(ctx, pattern)
}

func (m *mockStore) Set(ctx context.Context, key string, value []byte) error {
	if m.setFn != nil {
		return m.setFn(ctx, key, value)
	}
	return m.Store.Set(ctx, key, value)
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{Store: memory.New()}
	return New(ms), ms
}

func testResume(id string, years float64, loc string, skills ...string) *domdoc.Document {
	d := &domdoc.Document{
		ID:                id,
		Text:              "Engineer with experience in " + id,
		Status:            domdoc.StatusCompleted,
		Embedding:         []float32{0.1, 0.2, 0.3},
		YearsOfExperience: years,
		Location:          loc,
		CreatedAt:         time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		PersonalInfo:      domdoc.PersonalInfo{Name: "Ann Lee", Email: "ann@example.com"},
	}
	for _, s := range skills {
		d.Structured.Skills = append(d.Structured.Skills, domdoc.Skill{Name: s})
	}
	return d
}

func testJob(id, poster string, status job.Status, created time.Time) *job.Job {
	return &job.Job{
		ID:              id,
		Title:           "Backend Engineer",
		Company:         "Acme",
		ExperienceLevel: job.TierSenior,
		Status:          status,
		PostedBy:        poster,
		Skills:          []job.Skill{{Name: "Go", Required: true}},
		Embedding:       []float32{0.5, 0.5},
		CreatedAt:       created,
	}
}
