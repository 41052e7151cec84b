package extraction

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/talentrag/internal/domain"
	"github.com/kailas-cloud/talentrag/internal/domain/document"
	"github.com/kailas-cloud/talentrag/internal/provider"
)

// --- Mocks ---

type mockExtractor struct {
	out provider.Extraction
	err error
}

func (m *mockExtractor) Name() string { return "mock" }

func (m *mockExtractor) ExtractStructured(_ context.Context, _ string) (provider.Extraction, error) {
	return m.out, m.err
}

const resumeText = `Jane Doe
jane.doe@example.com | +1 (555) 123-4567
linkedin.com/in/jane-doe | GitHub.com/janedoe
Senior engineer: Python, Docker and Kubernetes on AWS.`

// --- Tests ---

func TestExtract_ProviderSuccess(t *testing.T) {
	ext := &mockExtractor{out: provider.Extraction{
		PersonalInfo: document.PersonalInfo{Name: "Jane Doe"},
		Structured:   document.Structured{Skills: []document.Skill{{Name: "Python"}}},
	}}
	s := New(ext, 0, zap.NewNop())

	res := s.Extract(context.Background(), resumeText)
	if res.Fallback {
		t.Fatal("expected provider result, got fallback")
	}
	if res.PersonalInfo.Name != "Jane Doe" || len(res.Structured.Skills) != 1 {
		t.Errorf("unexpected result: %+v", res)
	}
}

func TestExtract_ProviderFailureFallsBack(t *testing.T) {
	s := New(&mockExtractor{err: domain.ErrMalformedOutput}, 0, zap.NewNop())

	res := s.Extract(context.Background(), resumeText)
	if !res.Fallback {
		t.Fatal("expected fallback result")
	}
	if res.PersonalInfo.Email != "jane.doe@example.com" {
		t.Errorf("Email = %q", res.PersonalInfo.Email)
	}
}

func TestExtract_NoProvider(t *testing.T) {
	s := New(nil, 0, zap.NewNop())
	if res := s.Extract(context.Background(), resumeText); !res.Fallback {
		t.Fatal("expected fallback result without a provider")
	}
}

func TestFallback_Contacts(t *testing.T) {
	res := Fallback(resumeText)

	if res.PersonalInfo.Phone != "+1 (555) 123-4567" {
		t.Errorf("Phone = %q", res.PersonalInfo.Phone)
	}
	if res.PersonalInfo.LinkedIn != "https://linkedin.com/in/jane-doe" {
		t.Errorf("LinkedIn = %q", res.PersonalInfo.LinkedIn)
	}
	if res.PersonalInfo.GitHub != "https://GitHub.com/janedoe" {
		t.Errorf("GitHub = %q", res.PersonalInfo.GitHub)
	}
	if res.PersonalInfo.Name != "" {
		t.Errorf("fallback must not guess a name, got %q", res.PersonalInfo.Name)
	}
}

func TestFallback_Skills(t *testing.T) {
	res := Fallback(resumeText)

	want := map[string]bool{"Python": true, "AWS": true, "Docker": true, "Kubernetes": true}
	for name := range want {
		found := false
		for _, s := range res.Structured.Skills {
			if s.Name == name {
				found = true
				if s.Category != "technical" || s.Proficiency != "intermediate" {
					t.Errorf("skill %s: unexpected category/proficiency %+v", name, s)
				}
			}
		}
		if !found {
			t.Errorf("expected skill %s", name)
		}
	}
	for _, s := range res.Structured.Skills {
		if s.Name == "Rust" || s.Name == "PHP" {
			t.Errorf("unexpected skill %s", s.Name)
		}
	}
}

func TestFallback_EmptyText(t *testing.T) {
	res := Fallback("")
	if !res.PersonalInfo.IsZero() || len(res.Structured.Skills) != 0 {
		t.Errorf("expected empty result, got %+v", res)
	}
}
