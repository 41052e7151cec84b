// Package scoring computes job-to-résumé match scores from three signals:
// embedding similarity, skill overlap and experience tier fit.
package scoring

import (
	"strconv"
	"strings"

	"github.com/kailas-cloud/talentrag/internal/domain"
	"github.com/kailas-cloud/talentrag/internal/domain/document"
	"github.com/kailas-cloud/talentrag/internal/domain/job"
	"github.com/kailas-cloud/talentrag/internal/domain/match"
	"github.com/kailas-cloud/talentrag/internal/domain/vector"
)

// Weights controls how the three sub-scores combine into the overall score.
type Weights struct {
	Semantic   float64
	Skill      float64
	Experience float64
}

// DefaultWeights is the 40/40/20 split used for job matching.
var DefaultWeights = Weights{Semantic: 0.4, Skill: 0.4, Experience: 0.2}

// Requirement-text candidate search blends similarity and skill overlap 60/40.
const (
	CombinedSimilarityWeight = 0.6
	CombinedSkillWeight      = 0.4
)

// Step is one rung of a tier's experience ladder: at least Years earns Score.
type Step struct {
	Years float64
	Score float64
}

// Ladder scores years of experience against a tier. Steps are checked in order;
// Floor applies when none matches.
type Ladder struct {
	Steps []Step
	Floor float64
}

// Score returns the score for the given years.
func (l Ladder) Score(years float64) float64 {
	for _, s := range l.Steps {
		if years >= s.Years {
			return s.Score
		}
	}
	return l.Floor
}

// TierThresholds maps each required tier to its experience ladder.
// A tier missing from the table scores 0.
var TierThresholds = map[job.Tier]Ladder{
	job.TierEntry:     {Steps: []Step{{0, 1}}, Floor: 0.5},
	job.TierMid:       {Steps: []Step{{2, 1}, {1, 0.7}}, Floor: 0.4},
	job.TierSenior:    {Steps: []Step{{5, 1}, {3, 0.8}}, Floor: 0.3},
	job.TierLead:      {Steps: []Step{{8, 1}, {5, 0.7}}, Floor: 0.2},
	job.TierExecutive: {Steps: []Step{{12, 1}, {8, 0.6}}, Floor: 0.1},
}

// MaxEvidenceSkills caps the skills listed in the matched-skills evidence line.
const MaxEvidenceSkills = 5

// Scorer is stateless and safe for concurrent use.
type Scorer struct {
	weights Weights
}

// New creates a scorer with the given weights.
func New(w Weights) *Scorer {
	return &Scorer{weights: w}
}

// Weights returns the blend weights of the overall score.
func (s *Scorer) Weights() Weights { return s.weights }

// Score rates how well the résumé fits the job. A missing embedding on either side
// yields an all-zero result with empty skill lists.
func (s *Scorer) Score(j *job.Job, d *document.Document) match.Result {
	res := match.Result{
		JobID:         j.ID,
		ResumeID:      d.ID,
		MatchedSkills: []string{},
		MissingSkills: []string{},
		Evidence:      []string{},
	}
	if len(j.Embedding) == 0 || len(d.Embedding) == 0 {
		return res
	}

	semantic := vector.Cosine(j.Embedding, d.Embedding)
	matched, missing := SkillOverlap(j.SkillNames(), d.Structured.SkillNames())
	skill := SkillRatio(len(matched), len(j.SkillNames()))
	experience := ExperienceScore(j.ExperienceLevel, d.YearsOfExperience)
	overall := s.weights.Semantic*semantic + s.weights.Skill*skill + s.weights.Experience*experience

	res.Semantic = domain.RoundScore(semantic)
	res.Skill = domain.RoundScore(skill)
	res.Experience = domain.RoundScore(experience)
	res.Overall = domain.RoundScore(overall)
	res.MatchedSkills = matched
	res.MissingSkills = missing
	res.Evidence = evidence(matched, d)
	return res
}

// ExperienceScore looks up the tier ladder for the candidate's years.
func ExperienceScore(tier job.Tier, years float64) float64 {
	ladder, ok := TierThresholds[tier]
	if !ok {
		return 0
	}
	return ladder.Score(years)
}

// SkillOverlap splits the wanted skills (lower-cased) into matched and missing.
// A wanted skill matches when it and some candidate skill contain one another,
// case-insensitively. This is deliberately permissive: "java" matches "javascript".
func SkillOverlap(wanted, have []string) (matched, missing []string) {
	lowerHave := make([]string, 0, len(have))
	for _, h := range have {
		if h = strings.ToLower(h); h != "" {
			lowerHave = append(lowerHave, h)
		}
	}
	matched = []string{}
	missing = []string{}
	for _, w := range wanted {
		w = strings.ToLower(w)
		if w == "" {
			continue
		}
		if containsEither(w, lowerHave) {
			matched = append(matched, w)
		} else {
			missing = append(missing, w)
		}
	}
	return matched, missing
}

// SkillRatio is matched/total, 0 when no skills are wanted.
func SkillRatio(matched, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(matched) / float64(total)
}

// Combined blends similarity and skill overlap for requirement-text search.
func Combined(similarity, skill float64) float64 {
	return CombinedSimilarityWeight*similarity + CombinedSkillWeight*skill
}

func containsEither(w string, have []string) bool {
	for _, h := range have {
		if strings.Contains(h, w) || strings.Contains(w, h) {
			return true
		}
	}
	return false
}

func evidence(matched []string, d *document.Document) []string {
	out := []string{}
	if len(matched) > 0 {
		n := min(len(matched), MaxEvidenceSkills)
		out = append(out, "Matched skills: "+strings.Join(matched[:n], ", "))
	}
	if d.YearsOfExperience > 0 {
		out = append(out, strconv.FormatFloat(d.YearsOfExperience, 'f', -1, 64)+" years of experience")
	}
	if d.CurrentPosition != "" {
		out = append(out, "Current position: "+d.CurrentPosition)
	}
	return out
}
