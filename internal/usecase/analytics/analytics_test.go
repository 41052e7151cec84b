package analytics

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/talentrag/internal/domain/document"
	"github.com/kailas-cloud/talentrag/internal/domain/job"
	"github.com/kailas-cloud/talentrag/internal/domain/search/filter"
	"github.com/kailas-cloud/talentrag/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.RegisterSearchMetrics()
	os.Exit(m.Run())
}

// --- Mocks ---

type mockCounterStore struct {
	mu      sync.Mutex
	views   map[string]int
	matches map[string]int
	err     error
	block   chan struct{}
}

func newMockCounterStore() *mockCounterStore {
	return &mockCounterStore{views: map[string]int{}, matches: map[string]int{}}
}

func (m *mockCounterStore) IncrementViews(_ context.Context, id string) error {
	if m.block != nil {
		<-m.block
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.views[id]++
	return nil
}

func (m *mockCounterStore) IncrementMatches(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.matches[id]++
	return nil
}

func (m *mockCounterStore) get(counts map[string]int, id string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return counts[id]
}

type mockCorpus struct {
	docs []*document.Document
	err  error
}

func (m *mockCorpus) Find(_ context.Context, f filter.Filter) ([]*document.Document, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []*document.Document
	for _, d := range m.docs {
		if f.Matches(d) {
			out = append(out, d)
		}
	}
	return out, nil
}

func resume(id string, years float64, created time.Time, skills ...string) *document.Document {
	d := &document.Document{
		ID:                id,
		Text:              "resume " + id,
		Status:            document.StatusCompleted,
		Embedding:         []float32{1, 0},
		YearsOfExperience: years,
		CreatedAt:         created,
	}
	for _, s := range skills {
		d.Structured.Skills = append(d.Structured.Skills, document.Skill{Name: s})
	}
	return d
}

// --- Tests ---

func TestCounters_AppliesEvents(t *testing.T) {
	resumes, jobs := newMockCounterStore(), newMockCounterStore()
	c := NewCounters(resumes, jobs, 0, zap.NewNop())
	go c.Run(context.Background())

	c.ResumesViewed("r1", "r2", "r1")
	c.Record(KindResumeMatch, "r2")
	c.JobMatched("j1")
	c.Record(KindJobView, "j1")
	c.Close()

	if got := resumes.get(resumes.views, "r1"); got != 2 {
		t.Errorf("r1 views = %d, want 2", got)
	}
	if got := resumes.get(resumes.matches, "r2"); got != 1 {
		t.Errorf("r2 matches = %d, want 1", got)
	}
	if got := jobs.get(jobs.matches, "j1"); got != 1 {
		t.Errorf("j1 matches = %d, want 1", got)
	}
	if got := jobs.get(jobs.views, "j1"); got != 1 {
		t.Errorf("j1 views = %d, want 1", got)
	}
}

func TestCounters_FullQueueDrops(t *testing.T) {
	resumes := newMockCounterStore()
	resumes.block = make(chan struct{})
	c := NewCounters(resumes, newMockCounterStore(), 1, zap.NewNop())

	// Without a running worker the single slot fills and the rest are dropped.
	done := make(chan struct{})
	go func() {
		c.ResumesViewed("a", "b", "c")
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Record blocked on a full queue")
	}

	close(resumes.block)
	go c.Run(context.Background())
	c.Close()

	if got := resumes.get(resumes.views, "a"); got != 1 {
		t.Errorf("a views = %d, want 1", got)
	}
	if got := resumes.get(resumes.views, "b") + resumes.get(resumes.views, "c"); got != 0 {
		t.Errorf("dropped events were applied: %d", got)
	}
}

func TestCounters_StoreErrorIsAbsorbed(t *testing.T) {
	resumes := newMockCounterStore()
	resumes.err = errors.New("connection refused")
	c := NewCounters(resumes, newMockCounterStore(), 4, zap.NewNop())
	go c.Run(context.Background())

	c.ResumesViewed("a")
	c.Close()
}

func TestCounters_RecordAfterClose(t *testing.T) {
	c := NewCounters(newMockCounterStore(), newMockCounterStore(), 4, zap.NewNop())
	go c.Run(context.Background())
	c.Close()

	c.ResumesViewed("late")
	c.Close()
}

func TestCounters_RunStopsOnCancel(t *testing.T) {
	c := NewCounters(newMockCounterStore(), newMockCounterStore(), 4, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	finished := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(finished)
	}()
	cancel()

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}

func TestInsights_Aggregates(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	processing := resume("p", 3, now, "Go")
	processing.Status = document.StatusProcessing
	processing.Embedding = nil

	corpus := &mockCorpus{docs: []*document.Document{
		resume("a", 1, now.Add(-24*time.Hour), "Go", "Python"),
		resume("b", 4.5, now.Add(-10*24*time.Hour), "Go"),
		resume("c", 6, now.Add(-40*24*time.Hour), "Go", "Rust"),
		resume("d", 15, now.Add(-90*24*time.Hour), "Python"),
		processing,
	}}
	svc := New(corpus)
	svc.now = func() time.Time { return now }

	got, err := svc.Insights(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.TotalResumes != 4 {
		t.Errorf("TotalResumes = %d, want 4", got.TotalResumes)
	}
	if got.RecentResumes != 2 {
		t.Errorf("RecentResumes = %d, want 2", got.RecentResumes)
	}

	wantSkills := []SkillCount{{"Go", 3}, {"Python", 2}, {"Rust", 1}}
	if len(got.SkillDistribution) != len(wantSkills) {
		t.Fatalf("SkillDistribution = %+v", got.SkillDistribution)
	}
	for i, w := range wantSkills {
		if got.SkillDistribution[i] != w {
			t.Errorf("skill[%d] = %+v, want %+v", i, got.SkillDistribution[i], w)
		}
	}

	wantTiers := []TierCount{{job.TierEntry, 1}, {job.TierMid, 1}, {job.TierSenior, 1}, {job.TierExecutive, 1}}
	if len(got.ExperienceDistribution) != len(wantTiers) {
		t.Fatalf("ExperienceDistribution = %+v", got.ExperienceDistribution)
	}
	for i, w := range wantTiers {
		if got.ExperienceDistribution[i] != w {
			t.Errorf("tier[%d] = %+v, want %+v", i, got.ExperienceDistribution[i], w)
		}
	}
}

func TestInsights_TopSkillsBounded(t *testing.T) {
	var docs []*document.Document
	for i := range 30 {
		docs = append(docs, resume(fmt.Sprintf("r%d", i), 1, time.Now(), fmt.Sprintf("skill-%02d", i)))
	}
	got, err := New(&mockCorpus{docs: docs}).Insights(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.SkillDistribution) != TopSkills {
		t.Errorf("len(SkillDistribution) = %d, want %d", len(got.SkillDistribution), TopSkills)
	}
}

func TestInsights_CorpusError(t *testing.T) {
	_, err := New(&mockCorpus{err: errors.New("boom")}).Insights(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestTierOf(t *testing.T) {
	tests := []struct {
		years float64
		want  job.Tier
	}{
		{0, job.TierEntry},
		{1.9, job.TierEntry},
		{2, job.TierMid},
		{5, job.TierSenior},
		{8, job.TierLead},
		{11.9, job.TierLead},
		{12, job.TierExecutive},
		{40, job.TierExecutive},
	}
	for _, tc := range tests {
		if got := TierOf(tc.years); got != tc.want {
			t.Errorf("TierOf(%v) = %q, want %q", tc.years, got, tc.want)
		}
	}
}

func TestTrackQuery_ReturnsID(t *testing.T) {
	svc := New(&mockCorpus{})
	a := svc.TrackQuery(context.Background(), Query{Text: "go", Kind: "search"})
	b := svc.TrackQuery(context.Background(), Query{Text: "go", Kind: "search"})
	if a == "" || a == b {
		t.Errorf("expected distinct non-empty ids, got %q and %q", a, b)
	}
}
