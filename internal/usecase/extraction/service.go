// Package extraction turns raw résumé text into structured fields, falling back
// to regular expressions and a fixed skill list when the model is unavailable.
package extraction

import (
	"context"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/talentrag/internal/domain/document"
	"github.com/kailas-cloud/talentrag/internal/provider"
)

// DefaultTimeout bounds one extraction call.
const DefaultTimeout = 60 * time.Second

// Result is the outcome of one extraction. Fallback is true when the regex path produced it.
type Result struct {
	PersonalInfo document.PersonalInfo `json:"personalInfo"`
	Structured   document.Structured   `json:"structured"`
	Fallback     bool                  `json:"fallback"`
}

// Service runs model extraction with a regex fallback. It never fails.
type Service struct {
	ext     Extractor
	timeout time.Duration
	logger  *zap.Logger
}

// New creates an extraction service. timeout <= 0 uses DefaultTimeout.
func New(ext Extractor, timeout time.Duration, logger *zap.Logger) *Service {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Service{ext: ext, timeout: timeout, logger: logger}
}

// Extract asks the provider for structured fields; any failure yields the regex result.
func (s *Service) Extract(ctx context.Context, text string) Result {
	if s.ext != nil {
		callCtx, cancel := context.WithTimeout(ctx, s.timeout)
		out, err := s.ext.ExtractStructured(callCtx, text)
		cancel()
		if err == nil {
			return Result{PersonalInfo: out.PersonalInfo, Structured: out.Structured}
		}
		s.logger.Warn("Structured extraction failed, using regex fallback",
			zap.String("provider", s.ext.Name()),
			zap.Error(err),
		)
	}
	return Fallback(text)
}

var (
	emailRe    = regexp.MustCompile(`[\w.-]+@[\w.-]+\.\w+`)
	phoneRe    = regexp.MustCompile(`(\+\d{1,3}[-.\s]?)?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}`)
	linkedInRe = regexp.MustCompile(`(?i)linkedin\.com/in/[\w-]+`)
	gitHubRe   = regexp.MustCompile(`(?i)github\.com/[\w-]+`)
)

// SkillKeywords are recognised by the fallback parser. Matching is a
// case-insensitive substring test, so short names like "Go" over-match.
var SkillKeywords = []string{
	"JavaScript", "Python", "Java", "C++", "C#", "PHP", "Ruby", "Go", "Rust",
	"React", "Angular", "Vue", "Node.js", "Express", "Django", "Flask",
	"HTML", "CSS", "MongoDB", "PostgreSQL", "MySQL", "Redis",
	"AWS", "Azure", "Docker", "Kubernetes", "Git", "TypeScript",
}

// Fallback extracts contact details and keyword skills without a model.
func Fallback(text string) Result {
	info := document.PersonalInfo{
		Email: emailRe.FindString(text),
		Phone: strings.TrimSpace(phoneRe.FindString(text)),
	}
	if m := linkedInRe.FindString(text); m != "" {
		info.LinkedIn = "https://" + m
	}
	if m := gitHubRe.FindString(text); m != "" {
		info.GitHub = "https://" + m
	}

	lower := strings.ToLower(text)
	var skills []document.Skill
	for _, k := range SkillKeywords {
		if strings.Contains(lower, strings.ToLower(k)) {
			skills = append(skills, document.Skill{Name: k, Category: "technical", Proficiency: "intermediate"})
		}
	}

	return Result{
		PersonalInfo: info,
		Structured:   document.Structured{Skills: skills},
		Fallback:     true,
	}
}
