// Package answer turns retrieved résumés into a grounded natural-language answer.
package answer

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/talentrag/internal/domain"
	domanswer "github.com/kailas-cloud/talentrag/internal/domain/answer"
	"github.com/kailas-cloud/talentrag/internal/domain/document"
	"github.com/kailas-cloud/talentrag/internal/logger"
	"github.com/kailas-cloud/talentrag/internal/provider"
	"github.com/kailas-cloud/talentrag/internal/snippet"
	"github.com/kailas-cloud/talentrag/internal/usecase/search"
)

// Fixed answer texts.
const (
	NoHitsText      = "I couldn't find any relevant resumes to answer your question."
	UnavailableText = "I'm unable to process your question at the moment due to AI service limitations. Please try again later."
	EmptyOutputText = "Unable to generate answer."
)

const systemPrompt = "You are a helpful assistant that analyzes resume databases to answer questions about candidates. " +
	"Always provide specific evidence and cite which resume(s) your information comes from."

// Prompt and evidence bounds.
const (
	DefaultMaxEvidence = 5
	DefaultTimeout     = 60 * time.Second
	DefaultTemperature = 0.3
	DefaultMaxTokens   = 1000

	promptExcerptChars   = 300
	evidenceExcerptChars = 200
	promptSkills         = 10
	promptExperience     = 3
	promptEducation      = 2
	evidenceSkills       = 5
	notSpecified         = "Not specified"
	nameNotAvailable     = "Name not available"
)

// Config tunes generation.
type Config struct {
	Timeout     time.Duration
	Temperature float32
	MaxTokens   int
}

// ApplyDefaults fills zero fields.
func (c *Config) ApplyDefaults() {
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.Temperature <= 0 {
		c.Temperature = DefaultTemperature
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = DefaultMaxTokens
	}
}

// Request is one answer synthesis call.
type Request struct {
	Query string
	Hits  []search.Hit
	// MaxEvidence bounds how many hits reach the prompt; <= 0 uses DefaultMaxEvidence.
	MaxEvidence int
	// SecondaryContext is appended after the résumé block (e.g. the caller's open jobs).
	SecondaryContext string
	Role             domain.Role
}

// Synthesizer builds a bounded prompt from search hits and asks the provider for an answer.
// It never returns an error: provider failures become a fixed apologetic answer.
type Synthesizer struct {
	gen Generator
	cfg Config
}

// NewSynthesizer creates an answer synthesizer.
func NewSynthesizer(gen Generator, cfg Config) *Synthesizer {
	cfg.ApplyDefaults()
	return &Synthesizer{gen: gen, cfg: cfg}
}

// Answer synthesizes an answer. There are no retries.
func (s *Synthesizer) Answer(ctx context.Context, req Request) domanswer.Answer {
	if len(req.Hits) == 0 {
		return domanswer.Answer{Text: NoHitsText, Evidence: []domanswer.Evidence{}}
	}
	maxEvidence := req.MaxEvidence
	if maxEvidence <= 0 {
		maxEvidence = DefaultMaxEvidence
	}
	hits := req.Hits
	if len(hits) > maxEvidence {
		hits = hits[:maxEvidence]
	}

	prompt := BuildPrompt(req.Query, hits, req.SecondaryContext, contextChars(s.gen))
	prompt.Temperature = s.cfg.Temperature
	prompt.MaxTokens = s.cfg.MaxTokens

	genCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	text, err := s.gen.GenerateAnswer(genCtx, prompt)
	if err != nil {
		logger.FromContext(ctx).Warn("Answer generation failed",
			zap.String("provider", s.gen.Name()),
			zap.Int("hits", len(hits)),
			zap.Error(err),
		)
		return domanswer.Answer{Text: UnavailableText, Evidence: []domanswer.Evidence{}}
	}
	if strings.TrimSpace(text) == "" {
		text = EmptyOutputText
	}

	return domanswer.Answer{
		Text:     text,
		Evidence: BuildEvidence(req.Query, hits, req.Role),
		Sources:  len(hits),
	}
}

// BuildEvidence shapes one evidence item per hit. Privileged roles see the candidate's
// real name; everyone else sees "Candidate N".
func BuildEvidence(query string, hits []search.Hit, role domain.Role) []domanswer.Evidence {
	out := make([]domanswer.Evidence, len(hits))
	for i, h := range hits {
		v := h.Document
		out[i] = domanswer.Evidence{
			DocumentID:        v.ID,
			Similarity:        h.Similarity,
			Excerpt:           snippet.Extract(v.Text, query, evidenceExcerptChars),
			CandidateName:     candidateName(v, i, role),
			CurrentPosition:   v.CurrentPosition,
			YearsOfExperience: v.YearsOfExperience,
			KeySkills:         head(v.Structured.SkillNames(), evidenceSkills),
		}
	}
	return out
}

// BuildPrompt renders the answer prompt. Each résumé text is cut to contextChars runes.
func BuildPrompt(query string, hits []search.Hit, secondary string, contextChars int) provider.Prompt {
	var sb strings.Builder
	for i, h := range hits {
		writeResumeBlock(&sb, i, h.Document, query, contextChars)
	}

	user := "You are an AI assistant helping with resume analysis and candidate search. " +
		"Based on the provided resume data, answer the user's query in a helpful and accurate manner.\n\n" +
		"User Query: \"" + query + "\"\n\n" +
		"Available Resume Data:\n" + sb.String()
	if secondary != "" {
		user += "\n" + secondary + "\n"
	}
	user += `
Instructions:
1. Answer the query directly and concisely
2. Cite specific evidence from the resumes when making claims
3. If comparing candidates, be fair and highlight different strengths
4. Use professional, recruiter-friendly language
5. If the query asks for specific numbers or counts, provide them accurately
6. Mention relevant skills, experience, and qualifications
7. If no perfect matches exist, suggest the closest alternatives

Provide a comprehensive answer that would be useful for a recruiter or hiring manager:`

	return provider.Prompt{System: systemPrompt, User: user}
}

func writeResumeBlock(sb *strings.Builder, i int, v document.View, query string, contextChars int) {
	position := v.CurrentPosition
	if position == "" {
		position = notSpecified
	}
	fmt.Fprintf(sb, "\nResume %d:\n", i+1)
	fmt.Fprintf(sb, "- Years of Experience: %s\n", strconv.FormatFloat(v.YearsOfExperience, 'f', -1, 64))
	fmt.Fprintf(sb, "- Current Position: %s\n", position)
	fmt.Fprintf(sb, "- Key Skills: %s\n", joinOr(head(v.Structured.SkillNames(), promptSkills)))
	fmt.Fprintf(sb, "- Work Experience: %s\n", joinOr(experienceLines(v.Structured.Experience)))
	fmt.Fprintf(sb, "- Education: %s\n", joinOr(educationLines(v.Structured.Education)))
	fmt.Fprintf(sb, "- Relevant Text Excerpt: %s\n", snippet.Extract(v.Text, query, promptExcerptChars))
	fmt.Fprintf(sb, "- Resume Text: %s\n", domain.Truncate(v.Text, contextChars))
}

func experienceLines(exps []document.Experience) []string {
	out := make([]string, 0, promptExperience)
	for _, e := range exps {
		if len(out) == promptExperience {
			break
		}
		out = append(out, fmt.Sprintf("%s at %s (%s - %s)", e.Position, e.Company, e.StartDate, e.EndDate))
	}
	return out
}

func educationLines(edus []document.Education) []string {
	out := make([]string, 0, promptEducation)
	for _, e := range edus {
		if len(out) == promptEducation {
			break
		}
		out = append(out, fmt.Sprintf("%s in %s from %s", e.Degree, e.Field, e.Institution))
	}
	return out
}

func candidateName(v document.View, i int, role domain.Role) string {
	if !role.Privileged() {
		return "Candidate " + strconv.Itoa(i+1)
	}
	if v.PersonalInfo == nil || v.PersonalInfo.Name == "" {
		return nameNotAvailable
	}
	return v.PersonalInfo.Name
}

func contextChars(g Generator) int {
	return provider.ContextChars(g.Name())
}

func joinOr(items []string) string {
	if len(items) == 0 {
		return notSpecified
	}
	return strings.Join(items, ", ")
}

func head(items []string, n int) []string {
	if len(items) > n {
		return items[:n]
	}
	return items
}
