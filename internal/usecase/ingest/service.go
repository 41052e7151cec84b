// Package ingest produces the (text, structured, embedding) records the retrieval core reads.
package ingest

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/talentrag/internal/domain"
	"github.com/kailas-cloud/talentrag/internal/domain/document"
	"github.com/kailas-cloud/talentrag/internal/domain/job"
	"github.com/kailas-cloud/talentrag/internal/redact"
)

// Input is one résumé to ingest. Zero fields are derived from the extraction.
type Input struct {
	ID                string
	Text              string
	UploadedBy        string
	Location          string
	YearsOfExperience float64
	CreatedAt         time.Time
}

// Result reports what was stored.
type Result struct {
	Document *document.Document
	// Fallback is true when structured fields came from the regex parser.
	Fallback bool
}

// Service ingests résumés and jobs.
type Service struct {
	extractor Extractor
	embedder  domain.Embedder
	resumes   ResumeWriter
	jobs      JobWriter
	now       func() time.Time
	logger    *zap.Logger
}

// New creates an ingestion service.
func New(extractor Extractor, embedder domain.Embedder, resumes ResumeWriter, jobs JobWriter, logger *zap.Logger) *Service {
	return &Service{
		extractor: extractor,
		embedder:  embedder,
		resumes:   resumes,
		jobs:      jobs,
		now:       time.Now,
		logger:    logger,
	}
}

// IngestResume extracts, redacts, embeds and stores one résumé. Without an embedding the
// résumé is stored as failed and never reaches search.
func (s *Service) IngestResume(ctx context.Context, in Input) (Result, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return Result{}, fmt.Errorf("%w: text is required", domain.ErrInvalidDocument)
	}

	ext := s.extractor.Extract(ctx, text)

	emb, err := s.embedder.Embed(ctx, text, 0)
	if err != nil {
		return Result{}, fmt.Errorf("embed resume: %w", err)
	}

	d := &document.Document{
		ID:                in.ID,
		Text:              text,
		RedactedText:      redact.Text(text, ext.PersonalInfo),
		Structured:        ext.Structured,
		PersonalInfo:      ext.PersonalInfo,
		YearsOfExperience: in.YearsOfExperience,
		Location:          in.Location,
		UploadedBy:        in.UploadedBy,
		CreatedAt:         in.CreatedAt,
	}
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = s.now().UTC()
	}
	if d.YearsOfExperience == 0 {
		d.YearsOfExperience = YearsOfExperience(ext.Structured.Experience, s.now())
	}
	if d.Location == "" {
		d.Location = ext.PersonalInfo.Address
	}
	if cur, ok := CurrentRole(ext.Structured.Experience); ok {
		d.CurrentPosition = cur.Position
		d.CurrentCompany = cur.Company
	}

	if emb.Empty() {
		d.Status = document.StatusFailed
		s.logger.Warn("No embedding for resume, storing as failed", zap.String("id", d.ID))
	} else {
		d.Status = document.StatusCompleted
		d.Embedding = emb.Embedding
	}

	if err := s.resumes.Save(ctx, d); err != nil {
		return Result{}, fmt.Errorf("save resume: %w", err)
	}
	s.logger.Info("Resume ingested",
		zap.String("id", d.ID),
		zap.String("status", string(d.Status)),
		zap.Bool("fallback", ext.Fallback),
		zap.Int("skills", len(ext.Structured.Skills)),
	)
	return Result{Document: d, Fallback: ext.Fallback}, nil
}

// IngestJob embeds "title company description requirements" and stores the posting.
// A job without an embedding is still stored; matching it scores zero.
func (s *Service) IngestJob(ctx context.Context, j *job.Job) error {
	if j.ID == "" {
		j.ID = uuid.NewString()
	}
	if j.Status == "" {
		j.Status = job.StatusActive
	}
	if j.CreatedAt.IsZero() {
		j.CreatedAt = s.now().UTC()
	}
	for i := range j.Skills {
		if j.Skills[i].Level == "" {
			j.Skills[i].Level = "intermediate"
		}
	}

	text := strings.Join([]string{j.Title, j.Company, j.Description, strings.Join(j.Requirements, " ")}, " ")
	emb, err := s.embedder.Embed(ctx, text, 0)
	if err != nil {
		return fmt.Errorf("embed job: %w", err)
	}
	j.Embedding = emb.Embedding
	if emb.Empty() {
		s.logger.Warn("No embedding for job", zap.String("id", j.ID))
	}

	if err := s.jobs.Save(ctx, j); err != nil {
		return fmt.Errorf("save job: %w", err)
	}
	return nil
}

// YearsOfExperience is the longest single experience span in years, rounded to one decimal.
// Dates are "YYYY" or "YYYY-MM"; "present"/"current" or an empty end date mean now.
// Unparseable start dates are skipped.
func YearsOfExperience(exps []document.Experience, now time.Time) float64 {
	longest := 0.0
	for _, e := range exps {
		start, ok := parseMonth(e.StartDate)
		if !ok {
			continue
		}
		end := now
		if !isOngoing(e.EndDate) {
			if end, ok = parseMonth(e.EndDate); !ok {
				end = start
			}
		}
		if span := end.Sub(start).Hours() / 24 / 365.25; span > longest {
			longest = span
		}
	}
	return math.Round(longest*10) / 10
}

// CurrentRole returns the first ongoing experience, or the first entry when none is ongoing.
func CurrentRole(exps []document.Experience) (document.Experience, bool) {
	if len(exps) == 0 {
		return document.Experience{}, false
	}
	for _, e := range exps {
		if isOngoing(e.EndDate) {
			return e, true
		}
	}
	return exps[0], true
}

func isOngoing(end string) bool {
	switch strings.ToLower(strings.TrimSpace(end)) {
	case "", "present", "current", "now":
		return true
	}
	return false
}

// parseMonth parses "YYYY" or "YYYY-MM". A bad month falls back to January.
func parseMonth(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	year, month := s, "01"
	if i := strings.IndexAny(s, "-/"); i > 0 {
		year = s[:i]
		month, _, _ = strings.Cut(s[i+1:], "-")
	}
	y, err := strconv.Atoi(year)
	if err != nil || y < 1900 || y > 9999 {
		return time.Time{}, false
	}
	m, err := strconv.Atoi(month)
	if err != nil || m < 1 || m > 12 {
		m = 1
	}
	return time.Date(y, time.Month(m), 1, 0, 0, 0, 0, time.UTC), true
}
