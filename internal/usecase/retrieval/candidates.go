package retrieval

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kailas-cloud/talentrag/internal/domain"
	"github.com/kailas-cloud/talentrag/internal/domain/search/filter"
	"github.com/kailas-cloud/talentrag/internal/domain/search/query"
	"github.com/kailas-cloud/talentrag/internal/usecase/scoring"
	"github.com/kailas-cloud/talentrag/internal/usecase/search"
)

// CandidateRequest searches résumés against free-text job requirements.
type CandidateRequest struct {
	Requirements string
	Skills       []string
	K            int
	Role         domain.Role
}

// Candidate is a hit re-ranked by skill overlap.
type Candidate struct {
	search.Hit
	SkillMatch    float64  `json:"skillMatchScore"`
	MatchedSkills []string `json:"matchedSkills"`
	MissingSkills []string `json:"missingSkills"`
	Combined      float64  `json:"combinedScore"`
}

// CandidatesResponse lists re-ranked candidates.
type CandidatesResponse struct {
	Candidates   []Candidate `json:"candidates"`
	TotalResults int         `json:"totalResults"`
	Degraded     bool        `json:"degraded,omitempty"`
	Message      string      `json:"message,omitempty"`
}

// CandidatesForRequirements embeds "<requirements> Required skills: <skills>", fetches 2k hits
// and re-ranks them by the combined similarity/skill score.
func (s *Service) CandidatesForRequirements(ctx context.Context, req CandidateRequest) (CandidatesResponse, error) {
	start := time.Now()
	text := strings.TrimSpace(req.Requirements)
	if text == "" {
		return CandidatesResponse{}, fmt.Errorf("%w: requirements are required", domain.ErrInvalidQuery)
	}
	k := req.K
	if k < 0 {
		return CandidatesResponse{}, fmt.Errorf("%w: k must be positive, got %d", domain.ErrInvalidQuery, k)
	}
	if k == 0 {
		k = DefaultCandidatesK
	}
	if k > query.MaxK {
		k = query.MaxK
	}
	role := req.Role
	if role == "" {
		role = domain.RoleCandidate
	}

	skills := requestedSkills(req.Skills)
	vec, err := s.embed(ctx, text+" Required skills: "+strings.Join(skills, ", "))
	if err != nil {
		return CandidatesResponse{}, err
	}
	if len(vec) == 0 {
		return CandidatesResponse{Candidates: []Candidate{}, Degraded: true, Message: DegradedMessage}, nil
	}

	hits, err := s.d.Index.Search(ctx, vec, 2*k, filter.Filter{}, role)
	if err != nil {
		return CandidatesResponse{}, fmt.Errorf("search: %w", err)
	}

	out := make([]Candidate, len(hits))
	for i, h := range hits {
		matched, missing := scoring.SkillOverlap(skills, h.Document.Structured.SkillNames())
		skill := scoring.SkillRatio(len(matched), len(skills))
		out[i] = Candidate{
			Hit:           h,
			SkillMatch:    domain.RoundScore(skill),
			MatchedSkills: matched,
			MissingSkills: missing,
			Combined:      scoring.Combined(h.Similarity, skill),
		}
	}
	search.Rank(out, func(c Candidate) (float64, time.Time, string) {
		return c.Combined, c.Document.CreatedAt, c.Document.ID
	})
	if len(out) > k {
		out = out[:k]
	}
	for i := range out {
		out[i].Combined = domain.RoundScore(out[i].Combined)
	}

	resp := CandidatesResponse{Candidates: out, TotalResults: len(out)}
	if len(out) == 0 {
		resp.Message = NoResultsMessage
	} else {
		s.d.Events.ResumesViewed(candidateIDs(out)...)
	}
	s.track(ctx, "candidates", text, len(out), start)
	return resp, nil
}

// requestedSkills trims the wanted skills and drops blank entries.
// The result is both the embedded skill list and the skill-score denominator.
func requestedSkills(in []string) []string {
	out := make([]string, 0, len(in))
	for _, sk := range in {
		if sk = strings.TrimSpace(sk); sk != "" {
			out = append(out, sk)
		}
	}
	return out
}

func candidateIDs(cs []Candidate) []string {
	ids := make([]string, len(cs))
	for i, c := range cs {
		ids[i] = c.Document.ID
	}
	return ids
}
