package redact

import (
	"strings"
	"testing"

	"github.com/kailas-cloud/talentrag/internal/domain"
	"github.com/kailas-cloud/talentrag/internal/domain/document"
	"github.com/kailas-cloud/talentrag/internal/domain/job"
)

func TestText_Patterns(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"email", "Reach me at jane.doe@mail.example.com today", "Reach me at [EMAIL REDACTED] today"},
		{"phone", "Call (555) 123-4567 now", "Call [PHONE REDACTED] now"},
		{"intl phone", "Call +1 555-123-4567", "Call [PHONE REDACTED]"},
		{"ssn", "SSN 123-45-6789 on file", "SSN [SSN REDACTED] on file"},
		{"address", "Lives at 42 Main Street, Springfield 12345", "Lives at [ADDRESS REDACTED]"},
		{"dob slash", "Born 04/12/1990", "Born [DOB REDACTED]"},
		{"dob iso", "Born 1990-04-12", "Born [DOB REDACTED]"},
		{"plain", "Built distributed systems in Go", "Built distributed systems in Go"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Text(tc.in, document.PersonalInfo{}); got != tc.want {
				t.Errorf("Text() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestText_LiteralsAndName(t *testing.T) {
	info := document.PersonalInfo{
		Name:  "Jo Anne Smithers",
		Email: "JO@EXAMPLE.ORG",
		Phone: "555 0100",
	}
	in := "Jo Anne Smithers (jo@example.org, 555 0100). anne led the team. Smithers-style code."
	got := Text(in, info)

	for _, leaked := range []string{"Anne", "anne", "Smithers", "jo@example.org", "555 0100"} {
		if strings.Contains(got, leaked) {
			t.Errorf("%q leaked in %q", leaked, got)
		}
	}
	// two-letter name parts are kept
	if !strings.HasPrefix(got, "Jo ") {
		t.Errorf("short name part should stay, got %q", got)
	}
	if !strings.Contains(got, EmailPlaceholder) || !strings.Contains(got, PhonePlaceholder) {
		t.Errorf("expected email and phone placeholders in %q", got)
	}
}

func TestText_Idempotent(t *testing.T) {
	info := document.PersonalInfo{Name: "Name Redacted Person", Email: "a@b.io"}
	in := "Name Redacted Person, a@b.io, +1 (555) 010-9999, 123-45-6789, born 01.02.1985"
	once := Text(in, info)
	twice := Text(once, info)
	if once != twice {
		t.Errorf("not idempotent:\n once=%q\ntwice=%q", once, twice)
	}
	if strings.Contains(once, "[[") {
		t.Errorf("placeholder rewritten: %q", once)
	}
}

func TestText_Empty(t *testing.T) {
	if got := Text("", document.PersonalInfo{Name: "Someone"}); got != "" {
		t.Errorf("Text(\"\") = %q", got)
	}
}

func testDoc() *document.Document {
	return &document.Document{
		ID:           "r1",
		Text:         "Ann Example, ann@example.com",
		RedactedText: "[NAME REDACTED] [NAME REDACTED], [EMAIL REDACTED]",
		PersonalInfo: document.PersonalInfo{Name: "Ann Example", Email: "ann@example.com"},
		Embedding:    []float32{1, 2},
		Status:       document.StatusCompleted,
	}
}

func TestStrip_Candidate(t *testing.T) {
	v := Strip(testDoc(), domain.RoleCandidate)
	if v.PersonalInfo != nil {
		t.Error("candidate must not see personal info")
	}
	if v.Text != testDoc().RedactedText {
		t.Errorf("Text = %q, want redacted text", v.Text)
	}
}

func TestStrip_CandidateWithoutStoredRedaction(t *testing.T) {
	d := testDoc()
	d.RedactedText = ""
	v := Strip(d, domain.RoleCandidate)
	if strings.Contains(v.Text, "ann@example.com") || strings.Contains(v.Text, "Example") {
		t.Errorf("raw PII leaked: %q", v.Text)
	}
}

func TestStrip_Privileged(t *testing.T) {
	for _, role := range []domain.Role{domain.RoleRecruiter, domain.RoleAdmin} {
		v := Strip(testDoc(), role)
		if v.PersonalInfo == nil || v.PersonalInfo.Email != "ann@example.com" {
			t.Errorf("%s should see personal info", role)
		}
		if v.Text != testDoc().Text {
			t.Errorf("%s should see raw text", role)
		}
	}
}

func TestStripJob(t *testing.T) {
	j := &job.Job{ID: "j1", Title: "Engineer", PostedBy: "user-7"}
	if v := StripJob(j, domain.RoleCandidate); v.PostedBy != "" {
		t.Error("candidate must not see poster")
	}
	if v := StripJob(j, domain.RoleAdmin); v.PostedBy != "user-7" {
		t.Error("admin should see poster")
	}
}
