package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/kailas-cloud/talentrag/internal/db"
	"github.com/kailas-cloud/talentrag/internal/domain"
	"github.com/kailas-cloud/talentrag/internal/domain/document"
	"github.com/kailas-cloud/talentrag/internal/domain/job"
	"github.com/kailas-cloud/talentrag/internal/domain/search/filter"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), MemoryPath)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func resume(id string, years float64, loc string, skills ...string) *document.Document {
	d := &document.Document{
		ID:                id,
		Text:              "Résumé text for " + id,
		Status:            document.StatusCompleted,
		Embedding:         []float32{0.25, 0.5},
		YearsOfExperience: years,
		Location:          loc,
		CreatedAt:         time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
	}
	for _, s := range skills {
		d.Structured.Skills = append(d.Structured.Skills, document.Skill{Name: s})
	}
	return d
}

func TestOpen_MigratesIdempotently(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "talentrag.db")
	s, err := Open(context.Background(), path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	var v int
	if err := s.db.QueryRow(`SELECT version FROM schema_migrations`).Scan(&v); err != nil {
		t.Fatalf("version scan: %v", err)
	}
	if v != len(migrations) {
		t.Errorf("version = %d, want %d", v, len(migrations))
	}
	_ = s.Close()

	again, err := Open(context.Background(), path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer again.Close()
	if err := again.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
}

func TestOpen_EmptyPath(t *testing.T) {
	if _, err := Open(context.Background(), ""); err == nil {
		t.Fatal("expected error")
	}
}

func TestKV(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, err := s.Get(ctx, "k"); !errors.Is(err, db.ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound, got %v", err)
	}
	_ = s.Set(ctx, "k", []byte{1, 2})
	_ = s.Set(ctx, "k", []byte{3})
	got, err := s.Get(ctx, "k")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0] != 3 {
		t.Errorf("Get = %v, want [3]", got)
	}
}

func TestKV_IncrBy(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for _, v := range []int64{5, 37} {
		if err := s.IncrBy(ctx, "n", v); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	got, err := s.Get(ctx, "n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(got) != "42" {
		t.Errorf("Get = %q, want 42", got)
	}
}

func TestResumes_SaveGetCounters(t *testing.T) {
	s := openTestStore(t)
	repo := NewResumes(s)
	ctx := context.Background()

	if err := repo.Save(ctx, resume("r1", 4, "Lisbon", "Go")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_ = repo.IncrementViews(ctx, "r1")
	_ = repo.IncrementMatches(ctx, "r1")
	_ = repo.IncrementMatches(ctx, "r1")

	// Replacing the document keeps counters.
	if err := repo.Save(ctx, resume("r1", 5, "Lisbon", "Go")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := repo.Get(ctx, "r1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.YearsOfExperience != 5 || got.ViewCount != 1 || got.MatchCount != 2 {
		t.Errorf("unexpected document: years=%v views=%d matches=%d",
			got.YearsOfExperience, got.ViewCount, got.MatchCount)
	}
	if len(got.Embedding) != 2 || got.Embedding[1] != 0.5 {
		t.Errorf("embedding not preserved: %v", got.Embedding)
	}
	if !got.CreatedAt.Equal(time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("CreatedAt = %v", got.CreatedAt)
	}

	if _, err := repo.Get(ctx, "missing"); !errors.Is(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
}

func TestResumes_FindPushDown(t *testing.T) {
	s := openTestStore(t)
	repo := NewResumes(s)
	ctx := context.Background()

	_ = repo.Save(ctx, resume("a", 6, "Berlin, Germany", "Go", "Kafka"))
	_ = repo.Save(ctx, resume("b", 6, "Munich", "Go"))
	_ = repo.Save(ctx, resume("c", 1, "Berlin", "Go"))
	_ = repo.Save(ctx, resume("d", 7, "BERLIN", "Java"))
	failed := resume("e", 6, "Berlin", "Go")
	failed.Status = document.StatusFailed
	failed.Embedding = nil
	_ = repo.Save(ctx, failed)

	f, err := filter.New("senior", "berlin", []string{"go"}, nil, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	docs, err := repo.Find(ctx, f)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs) != 1 || docs[0].ID != "a" {
		t.Errorf("unexpected results: %v", docIDs(docs))
	}

	all, err := repo.Find(ctx, filter.Filter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 4 {
		t.Errorf("expected 4 searchable resumes, got %v", docIDs(all))
	}

	n, err := repo.CountSearchable(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 4 {
		t.Errorf("CountSearchable = %d, want 4", n)
	}
}

func TestResumes_Delete(t *testing.T) {
	s := openTestStore(t)
	repo := NewResumes(s)
	ctx := context.Background()
	_ = repo.Save(ctx, resume("r1", 1, ""))

	if err := repo.Delete(ctx, "r1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := repo.Delete(ctx, "r1"); !errors.Is(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
}

func TestJobs_ListByPoster(t *testing.T) {
	s := openTestStore(t)
	repo := NewJobs(s)
	ctx := context.Background()
	base := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)

	mk := func(id, poster string, status job.Status, offset time.Duration) *job.Job {
		return &job.Job{
			ID: id, Title: "Data Engineer", Company: "Initech",
			ExperienceLevel: job.TierMid, Status: status, PostedBy: poster,
			CreatedAt: base.Add(offset),
		}
	}
	_ = repo.Save(ctx, mk("j1", "u1", job.StatusActive, 0))
	_ = repo.Save(ctx, mk("j2", "u1", job.StatusActive, time.Hour))
	_ = repo.Save(ctx, mk("j3", "u1", job.StatusDraft, 2*time.Hour))
	_ = repo.Save(ctx, mk("j4", "u2", job.StatusActive, 3*time.Hour))

	list, err := repo.ListByPoster(ctx, "u1", job.StatusActive, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(list) != 2 || list[0].ID != "j2" || list[1].ID != "j1" {
		t.Errorf("unexpected list: %d items", len(list))
	}

	_ = repo.IncrementMatches(ctx, "j1")
	got, err := repo.Get(ctx, "j1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.MatchCount != 1 || got.Title != "Data Engineer" {
		t.Errorf("unexpected job: %+v", got)
	}
	if _, err := repo.Get(ctx, "nope"); !errors.Is(err, domain.ErrJobNotFound) {
		t.Fatalf("expected ErrJobNotFound, got %v", err)
	}
}

func docIDs(docs []*document.Document) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.ID
	}
	return out
}
