package snippet

import (
	"strings"
	"testing"
	"unicode/utf8"
)

const resumeText = "Jane has worked on payment systems for years. " +
	"She designed Kubernetes operators and wrote Go services at scale! " +
	"Short line. " +
	"Her hobbies include hiking in the mountains and reading novels? " +
	"Go and Kubernetes are her main tools for building reliable platforms."

func TestExtract_PicksRelevantSentences(t *testing.T) {
	got := Extract(resumeText, "kubernetes go", 200)
	if !strings.HasPrefix(got, "Go and Kubernetes are her main tools") &&
		!strings.HasPrefix(got, "She designed Kubernetes operators") {
		t.Errorf("expected a kubernetes sentence first, got %q", got)
	}
	if strings.Contains(got, "hiking") {
		t.Errorf("irrelevant sentence included: %q", got)
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("expected ellipsis, got %q", got)
	}
}

func TestExtract_StableOrderForEqualScores(t *testing.T) {
	got := Extract(resumeText, "kubernetes", 500)
	first := strings.Index(got, "She designed")
	second := strings.Index(got, "Go and Kubernetes")
	if first < 0 || second < 0 || first > second {
		t.Errorf("equal scores should keep text order, got %q", got)
	}
}

func TestExtract_RespectsMaxLength(t *testing.T) {
	got := Extract(resumeText, "kubernetes go", 80)
	body := strings.TrimSuffix(got, "...")
	if n := utf8.RuneCountInString(body); n >= 80 {
		t.Errorf("excerpt length %d exceeds limit", n)
	}
}

func TestExtract_FallbackToHead(t *testing.T) {
	got := Extract(resumeText, "cobol mainframe", 30)
	if got != string([]rune(resumeText)[:30])+"..." {
		t.Errorf("unexpected fallback %q", got)
	}
}

func TestExtract_ShortWordsIgnored(t *testing.T) {
	// "go" is two characters and does not count as a keyword
	got := Extract(resumeText, "go", 30)
	if !strings.HasPrefix(got, "Jane has worked") {
		t.Errorf("expected head fallback, got %q", got)
	}
}

func TestExtract_WholeWordOnly(t *testing.T) {
	text := "Worked extensively with PostgreSQL databases daily. Also used Postgres for analytics pipelines."
	got := Extract(text, "postgres", 200)
	if !strings.HasPrefix(got, "Also used Postgres") {
		t.Errorf("expected whole-word match sentence, got %q", got)
	}
}

func TestExtract_NoLongSentences(t *testing.T) {
	if got := Extract("Hi. Go dev.", "go", 200); got != "Hi. Go dev." {
		t.Errorf("short text should come back whole, got %q", got)
	}
}

func TestExtract_Empty(t *testing.T) {
	if got := Extract("", "anything", 100); got != "" {
		t.Errorf("Extract(\"\") = %q", got)
	}
}

func TestExtract_NonEmptyForNonEmptyInput(t *testing.T) {
	for _, text := range []string{"x", "A sentence that is long enough to count.", resumeText} {
		if Extract(text, "zzz", 10) == "" {
			t.Errorf("empty excerpt for %q", text)
		}
	}
}
