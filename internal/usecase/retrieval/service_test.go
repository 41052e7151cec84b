package retrieval

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/talentrag/internal/domain"
	domanswer "github.com/kailas-cloud/talentrag/internal/domain/answer"
	"github.com/kailas-cloud/talentrag/internal/domain/document"
	"github.com/kailas-cloud/talentrag/internal/domain/job"
	"github.com/kailas-cloud/talentrag/internal/domain/search/filter"
	"github.com/kailas-cloud/talentrag/internal/domain/search/query"
	"github.com/kailas-cloud/talentrag/internal/metrics"
	"github.com/kailas-cloud/talentrag/internal/provider"
	"github.com/kailas-cloud/talentrag/internal/usecase/analytics"
	"github.com/kailas-cloud/talentrag/internal/usecase/answer"
	"github.com/kailas-cloud/talentrag/internal/usecase/scoring"
	"github.com/kailas-cloud/talentrag/internal/usecase/search"
)

func TestMain(m *testing.M) {
	metrics.RegisterSearchMetrics()
	os.Exit(m.Run())
}

// --- Mocks ---

type mockEmbedder struct {
	vec   []float32
	err   error
	texts []string
}

func (m *mockEmbedder) Embed(ctx context.Context, text string, _ int) (domain.EmbeddingResult, error) {
	m.texts = append(m.texts, text)
	if err := ctx.Err(); err != nil {
		return domain.EmbeddingResult{}, err
	}
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: m.vec}, nil
}

type mockCorpus struct {
	docs      []*document.Document
	findCalls int
	countErr  error
}

func (m *mockCorpus) Find(_ context.Context, f filter.Filter) ([]*document.Document, error) {
	m.findCalls++
	var out []*document.Document
	for _, d := range m.docs {
		if f.Matches(d) {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *mockCorpus) CountSearchable(_ context.Context) (int, error) {
	if m.countErr != nil {
		return 0, m.countErr
	}
	n := 0
	for _, d := range m.docs {
		if d.Searchable() {
			n++
		}
	}
	return n, nil
}

type listCall struct {
	poster string
	status job.Status
	limit  int
}

type mockJobs struct {
	jobs    map[string]*job.Job
	listed  []*job.Job
	listErr error
	calls   []listCall
}

func (m *mockJobs) Get(_ context.Context, id string) (*job.Job, error) {
	j, ok := m.jobs[id]
	if !ok {
		return nil, domain.ErrJobNotFound
	}
	return j, nil
}

func (m *mockJobs) ListByPoster(_ context.Context, poster string, status job.Status, limit int) ([]*job.Job, error) {
	m.calls = append(m.calls, listCall{poster, status, limit})
	return m.listed, m.listErr
}

type mockAnswerer struct {
	req answer.Request
}

func (m *mockAnswerer) Answer(_ context.Context, req answer.Request) domanswer.Answer {
	m.req = req
	ev := make([]domanswer.Evidence, len(req.Hits))
	for i, h := range req.Hits {
		ev[i] = domanswer.Evidence{DocumentID: h.Document.ID, Similarity: h.Similarity}
	}
	return domanswer.Answer{Text: "synthesized", Evidence: ev, Sources: len(ev)}
}

type mockEvents struct {
	mu      sync.Mutex
	viewed  []string
	matched []string
	jobs    []string
}

func (m *mockEvents) ResumesViewed(ids ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.viewed = append(m.viewed, ids...)
}

func (m *mockEvents) ResumesMatched(ids ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.matched = append(m.matched, ids...)
}

func (m *mockEvents) JobMatched(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs = append(m.jobs, id)
}

type mockTracker struct{ kinds []string }

func (m *mockTracker) TrackQuery(_ context.Context, q analytics.Query) string {
	m.kinds = append(m.kinds, q.Kind)
	return "q-1"
}

type mockModels struct{}

func (mockModels) Models() provider.Models {
	return provider.Models{Embedding: "emb-model", Generation: "gen-model"}
}

type fixture struct {
	svc      *Service
	embedder *mockEmbedder
	corpus   *mockCorpus
	jobs     *mockJobs
	answerer *mockAnswerer
	events   *mockEvents
	tracker  *mockTracker
}

func newFixture(docs ...*document.Document) *fixture {
	f := &fixture{
		embedder: &mockEmbedder{vec: []float32{1, 0}},
		corpus:   &mockCorpus{docs: docs},
		jobs:     &mockJobs{jobs: map[string]*job.Job{}},
		answerer: &mockAnswerer{},
		events:   &mockEvents{},
		tracker:  &mockTracker{},
	}
	f.svc = New(Deps{
		Embedder: f.embedder,
		Index:    search.New(f.corpus, 2, zap.NewNop()),
		Corpus:   f.corpus,
		Jobs:     f.jobs,
		Answerer: f.answerer,
		Scorer:   scoring.New(scoring.DefaultWeights),
		Events:   f.events,
		Tracker:  f.tracker,
		Models:   mockModels{},
	}, Config{}, zap.NewNop())
	return f
}

var baseTime = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func resume(id string, vec []float32, years float64, skills ...string) *document.Document {
	d := &document.Document{
		ID:                id,
		Text:              "Resume of " + id + ". Contact jane@example.com for details.",
		Status:            document.StatusCompleted,
		Embedding:         vec,
		YearsOfExperience: years,
		CreatedAt:         baseTime,
		PersonalInfo:      document.PersonalInfo{Name: "Name " + id, Email: "jane@example.com"},
	}
	for _, s := range skills {
		d.Structured.Skills = append(d.Structured.Skills, document.Skill{Name: s})
	}
	return d
}

func corpus3() []*document.Document {
	return []*document.Document{
		resume("a", []float32{1, 0}, 6, "Go"),
		resume("b", []float32{0.8, 0.6}, 1),
		resume("c", []float32{0, 1}, 6, "Go"),
	}
}

func mustQuery(t *testing.T, text string, k int, role domain.Role) query.Context {
	t.Helper()
	qc, err := query.New(text, filter.Filter{}, k, DefaultSearchK, role)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return qc
}

func ids(hits []search.Hit) []string {
	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = h.Document.ID
	}
	return out
}

// --- Tests ---

func TestSearch_RanksAndTracks(t *testing.T) {
	f := newFixture(corpus3()...)

	resp, err := f.svc.Search(context.Background(), mustQuery(t, "go engineer", 0, domain.RoleRecruiter))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := strings.Join(ids(resp.Documents), ","); got != "a,b" {
		t.Errorf("hits = %s, want a,b", got)
	}
	if resp.TotalResults != 2 || resp.Degraded {
		t.Errorf("unexpected response: %+v", resp)
	}
	if resp.QueryID != "q-1" {
		t.Errorf("QueryID = %q", resp.QueryID)
	}
	if strings.Join(f.events.viewed, ",") != "a,b" {
		t.Errorf("viewed = %v", f.events.viewed)
	}
	if resp.Documents[0].Document.PersonalInfo == nil {
		t.Error("recruiter should see personal info")
	}
}

func TestSearch_RedactsForCandidate(t *testing.T) {
	f := newFixture(corpus3()...)

	resp, err := f.svc.Search(context.Background(), mustQuery(t, "go engineer", 1, domain.RoleCandidate))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v := resp.Documents[0].Document
	if v.PersonalInfo != nil {
		t.Error("candidate must not see personal info")
	}
	if strings.Contains(v.Text, "jane@example.com") {
		t.Errorf("email leaked: %q", v.Text)
	}
}

func TestSearch_DegradedEmbedding(t *testing.T) {
	f := newFixture(corpus3()...)
	f.embedder.vec = nil

	resp, err := f.svc.Search(context.Background(), mustQuery(t, "go", 0, ""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !resp.Degraded || resp.Documents == nil || len(resp.Documents) != 0 {
		t.Errorf("expected degraded empty response, got %+v", resp)
	}
	if f.corpus.findCalls != 0 {
		t.Error("corpus must not be scanned without a vector")
	}
}

func TestSearch_EmbedderErrorAbsorbed(t *testing.T) {
	f := newFixture(corpus3()...)
	f.embedder.err = domain.ErrProviderUnavailable

	resp, err := f.svc.Search(context.Background(), mustQuery(t, "go", 0, ""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !resp.Degraded {
		t.Error("expected degraded response")
	}
}

func TestSearch_CallerCancellation(t *testing.T) {
	f := newFixture(corpus3()...)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.svc.Search(ctx, mustQuery(t, "go", 0, ""))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestSearch_NoHits(t *testing.T) {
	f := newFixture(resume("c", []float32{0, 1}, 6))

	resp, err := f.svc.Search(context.Background(), mustQuery(t, "go", 0, ""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Message != NoResultsMessage || len(resp.Documents) != 0 || resp.Documents == nil {
		t.Errorf("unexpected response: %+v", resp)
	}
	if len(f.events.viewed) != 0 {
		t.Errorf("no views expected, got %v", f.events.viewed)
	}
}

func TestAsk_EmptyCorpus(t *testing.T) {
	f := newFixture()

	resp, err := f.svc.Ask(context.Background(), AskRequest{Context: mustQuery(t, "who knows go?", 0, "")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Answer != EmptyCorpusText {
		t.Errorf("Answer = %q", resp.Answer)
	}
	if len(f.embedder.texts) != 0 {
		t.Error("embedder must not be called on an empty corpus")
	}
}

func TestAsk_CountError(t *testing.T) {
	f := newFixture(corpus3()...)
	f.corpus.countErr = errors.New("boom")

	if _, err := f.svc.Ask(context.Background(), AskRequest{Context: mustQuery(t, "q", 0, "")}); err == nil {
		t.Fatal("expected error")
	}
}

func TestAsk_Degraded(t *testing.T) {
	f := newFixture(corpus3()...)
	f.embedder.vec = nil

	resp, err := f.svc.Ask(context.Background(), AskRequest{Context: mustQuery(t, "q", 0, "")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !resp.Degraded || resp.TotalResults != 0 || resp.Answer != answer.UnavailableText {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestAsk_NoHits(t *testing.T) {
	f := newFixture(resume("c", []float32{0, 1}, 6))

	resp, err := f.svc.Ask(context.Background(), AskRequest{Context: mustQuery(t, "q", 0, "")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Answer != NoMatchText || len(resp.Sources) != 0 || resp.Sources == nil {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestAsk_Success(t *testing.T) {
	f := newFixture(corpus3()...)
	qc, err := query.New("who knows go?", filter.Filter{}, 0, DefaultAskK, domain.RoleCandidate)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	resp, err := f.svc.Ask(context.Background(), AskRequest{Context: qc})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Answer != "synthesized" || resp.TotalResults != 2 || len(resp.Sources) != 2 {
		t.Errorf("unexpected response: %+v", resp)
	}
	if resp.Metadata == nil || resp.Metadata.Models.Generation != "gen-model" {
		t.Errorf("Metadata = %+v", resp.Metadata)
	}
	if f.answerer.req.MaxEvidence != answer.DefaultMaxEvidence {
		t.Errorf("MaxEvidence = %d", f.answerer.req.MaxEvidence)
	}
	if f.answerer.req.SecondaryContext != "" {
		t.Error("no job context expected")
	}
	if len(f.jobs.calls) != 0 {
		t.Error("jobs must not be read without a request for job context")
	}
}

func TestAsk_JobContextPrivileged(t *testing.T) {
	f := newFixture(corpus3()...)
	f.jobs.listed = []*job.Job{
		{ID: "j1", Title: "Go Dev", Description: "Build services"},
	}

	_, err := f.svc.Ask(context.Background(), AskRequest{
		Context:           mustQuery(t, "q", 0, domain.RoleRecruiter),
		IncludeJobContext: true,
		UserID:            "u1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.jobs.calls) != 1 {
		t.Fatalf("expected one ListByPoster call, got %d", len(f.jobs.calls))
	}
	call := f.jobs.calls[0]
	if call.poster != "u1" || call.status != job.StatusActive || call.limit != DefaultJobContextLimit {
		t.Errorf("unexpected call: %+v", call)
	}
	sc := f.answerer.req.SecondaryContext
	if !strings.Contains(sc, "Current job openings context:") || !strings.Contains(sc, "- Go Dev: Build services...") {
		t.Errorf("SecondaryContext = %q", sc)
	}
}

func TestAsk_JobContextDeniedForCandidate(t *testing.T) {
	f := newFixture(corpus3()...)

	_, err := f.svc.Ask(context.Background(), AskRequest{
		Context:           mustQuery(t, "q", 0, domain.RoleCandidate),
		IncludeJobContext: true,
		UserID:            "u1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.jobs.calls) != 0 {
		t.Error("candidates must not get job context")
	}
}

func TestAsk_JobContextErrorIgnored(t *testing.T) {
	f := newFixture(corpus3()...)
	f.jobs.listErr = errors.New("boom")

	resp, err := f.svc.Ask(context.Background(), AskRequest{
		Context:           mustQuery(t, "q", 0, domain.RoleAdmin),
		IncludeJobContext: true,
		UserID:            "u1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Answer != "synthesized" || f.answerer.req.SecondaryContext != "" {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestCandidates_RerankBySkills(t *testing.T) {
	f := newFixture(
		resume("a", []float32{1, 0}, 3),
		resume("b", []float32{0.8, 0.6}, 3, "Go", "Kubernetes"),
	)

	resp, err := f.svc.CandidatesForRequirements(context.Background(), CandidateRequest{
		Requirements: "backend engineer",
		Skills:       []string{"Go", "Kubernetes"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.embedder.texts[0] != "backend engineer Required skills: Go, Kubernetes" {
		t.Errorf("embedded text = %q", f.embedder.texts[0])
	}
	if len(resp.Candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(resp.Candidates))
	}
	first, second := resp.Candidates[0], resp.Candidates[1]
	if first.Document.ID != "b" || second.Document.ID != "a" {
		t.Errorf("order = %s,%s, want b,a", first.Document.ID, second.Document.ID)
	}
	if first.Combined != 0.88 || second.Combined != 0.6 {
		t.Errorf("combined = %v, %v", first.Combined, second.Combined)
	}
	if first.SkillMatch != 1 || strings.Join(first.MatchedSkills, ",") != "go,kubernetes" {
		t.Errorf("unexpected skill match: %+v", first)
	}
	if strings.Join(second.MissingSkills, ",") != "go,kubernetes" {
		t.Errorf("MissingSkills = %v", second.MissingSkills)
	}
}

func TestCandidates_BlankSkillsIgnoredConsistently(t *testing.T) {
	f := newFixture(resume("b", []float32{1, 0}, 3, "Go", "Kubernetes"))

	resp, err := f.svc.CandidatesForRequirements(context.Background(), CandidateRequest{
		Requirements: "backend engineer",
		Skills:       []string{" Go ", "", "   ", "Rust"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.embedder.texts[0] != "backend engineer Required skills: Go, Rust" {
		t.Errorf("embedded text = %q", f.embedder.texts[0])
	}
	if len(resp.Candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(resp.Candidates))
	}
	c := resp.Candidates[0]
	if c.SkillMatch != 0.5 {
		t.Errorf("SkillMatch = %v, want 0.5", c.SkillMatch)
	}
	if strings.Join(c.MatchedSkills, ",") != "go" || strings.Join(c.MissingSkills, ",") != "rust" {
		t.Errorf("unexpected skills: matched=%v missing=%v", c.MatchedSkills, c.MissingSkills)
	}
}

func TestCandidates_TruncatesToK(t *testing.T) {
	f := newFixture(corpus3()...)

	resp, err := f.svc.CandidatesForRequirements(context.Background(), CandidateRequest{
		Requirements: "backend", K: 1,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Candidates) != 1 || resp.Candidates[0].Document.ID != "a" {
		t.Errorf("unexpected candidates: %+v", resp.Candidates)
	}
}

func TestCandidates_InvalidInput(t *testing.T) {
	f := newFixture(corpus3()...)

	if _, err := f.svc.CandidatesForRequirements(context.Background(), CandidateRequest{Requirements: "  "}); !errors.Is(err, domain.ErrInvalidQuery) {
		t.Errorf("expected ErrInvalidQuery, got %v", err)
	}
	if _, err := f.svc.CandidatesForRequirements(context.Background(), CandidateRequest{Requirements: "x", K: -1}); !errors.Is(err, domain.ErrInvalidQuery) {
		t.Errorf("expected ErrInvalidQuery, got %v", err)
	}
}

func seniorGoJob() *job.Job {
	return &job.Job{
		ID:              "j1",
		Title:           "Senior Go Engineer",
		Company:         "Acme",
		Skills:          []job.Skill{{Name: "Go", Required: true}},
		ExperienceLevel: job.TierSenior,
		Status:          job.StatusActive,
		Embedding:       []float32{1, 0},
	}
}

func TestMatchJob_Ranks(t *testing.T) {
	f := newFixture(corpus3()...)
	f.jobs.jobs["j1"] = seniorGoJob()

	resp, err := f.svc.MatchJob(context.Background(), "j1", 2, domain.RoleCandidate)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.TotalCandidates != 3 || len(resp.Matches) != 2 {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.Matches[0].ResumeID != "a" || resp.Matches[1].ResumeID != "c" {
		t.Errorf("order = %s,%s, want a,c", resp.Matches[0].ResumeID, resp.Matches[1].ResumeID)
	}
	if resp.Matches[0].Overall != 1 || resp.Matches[1].Overall != 0.6 {
		t.Errorf("overall = %v, %v", resp.Matches[0].Overall, resp.Matches[1].Overall)
	}
	if resp.Matches[0].CandidateName != "Candidate 1" || resp.Matches[1].CandidateName != "Candidate 2" {
		t.Errorf("names = %q, %q", resp.Matches[0].CandidateName, resp.Matches[1].CandidateName)
	}
	if resp.Criteria == nil || resp.Criteria.Semantic != "40%" || resp.Criteria.Experience != "20%" {
		t.Errorf("Criteria = %+v", resp.Criteria)
	}
	if strings.Join(f.events.jobs, ",") != "j1" || strings.Join(f.events.matched, ",") != "a,c" {
		t.Errorf("events = %v / %v", f.events.jobs, f.events.matched)
	}
}

func TestMatchJob_PrivilegedNames(t *testing.T) {
	docs := corpus3()
	docs[0].PersonalInfo.Name = ""
	f := newFixture(docs...)
	f.jobs.jobs["j1"] = seniorGoJob()

	resp, err := f.svc.MatchJob(context.Background(), "j1", 0, domain.RoleAdmin)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Matches[0].CandidateName != anonymousName {
		t.Errorf("name = %q, want %q", resp.Matches[0].CandidateName, anonymousName)
	}
	if resp.Matches[1].CandidateName != "Name c" {
		t.Errorf("name = %q, want Name c", resp.Matches[1].CandidateName)
	}
}

func TestMatchJob_NoResumes(t *testing.T) {
	f := newFixture()
	f.jobs.jobs["j1"] = seniorGoJob()

	resp, err := f.svc.MatchJob(context.Background(), "j1", 5, domain.RoleRecruiter)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Message != NoResumesToMatch || resp.Matches == nil || len(resp.Matches) != 0 {
		t.Errorf("unexpected response: %+v", resp)
	}
	if len(f.events.jobs) != 0 {
		t.Error("no match event expected without résumés")
	}
}

func TestMatchJob_Errors(t *testing.T) {
	f := newFixture(corpus3()...)

	if _, err := f.svc.MatchJob(context.Background(), "missing", 5, ""); !errors.Is(err, domain.ErrJobNotFound) {
		t.Errorf("expected ErrJobNotFound, got %v", err)
	}
	if _, err := f.svc.MatchJob(context.Background(), "", 5, ""); !errors.Is(err, domain.ErrInvalidQuery) {
		t.Errorf("expected ErrInvalidQuery, got %v", err)
	}
	if _, err := f.svc.MatchJob(context.Background(), "j1", -1, ""); !errors.Is(err, domain.ErrInvalidQuery) {
		t.Errorf("expected ErrInvalidQuery, got %v", err)
	}
}
