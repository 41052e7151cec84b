package job

import (
	"fmt"
	"strings"
	"time"
)

// Tier is the experience level a job asks for.
type Tier string

// Experience tiers.
const (
	TierEntry     Tier = "entry"
	TierMid       Tier = "mid"
	TierSenior    Tier = "senior"
	TierLead      Tier = "lead"
	TierExecutive Tier = "executive"
)

// ParseTier validates a tier name. Matching is case-insensitive.
func ParseTier(s string) (Tier, error) {
	t := Tier(strings.ToLower(strings.TrimSpace(s)))
	switch t {
	case TierEntry, TierMid, TierSenior, TierLead, TierExecutive:
		return t, nil
	default:
		return "", fmt.Errorf("unknown experience tier %q", s)
	}
}

// Band is a half-open years-of-experience range [Min, Max). Max < 0 means unbounded.
type Band struct {
	Min float64
	Max float64
}

// Contains reports whether years falls inside the band.
func (b Band) Contains(years float64) bool {
	if years < b.Min {
		return false
	}
	return b.Max < 0 || years < b.Max
}

// Band returns the years band used for structural filtering.
// An unknown tier yields an empty band and false.
func (t Tier) Band() (Band, bool) {
	switch t {
	case TierEntry:
		return Band{Min: 0, Max: 2}, true
	case TierMid:
		return Band{Min: 2, Max: 5}, true
	case TierSenior:
		return Band{Min: 5, Max: 8}, true
	case TierLead:
		return Band{Min: 8, Max: 12}, true
	case TierExecutive:
		return Band{Min: 12, Max: -1}, true
	default:
		return Band{}, false
	}
}

// Status is the posting lifecycle.
type Status string

// Job statuses.
const (
	StatusDraft     Status = "draft"
	StatusActive    Status = "active"
	StatusPaused    Status = "paused"
	StatusClosed    Status = "closed"
	StatusCancelled Status = "cancelled"
)

// Skill is a skill the job asks for.
type Skill struct {
	Name     string `json:"name"`
	Level    string `json:"level,omitempty"`
	Required bool   `json:"required"`
}

// Job is a stored job posting.
type Job struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Company         string    `json:"company"`
	Location        string    `json:"location,omitempty"`
	Description     string    `json:"description"`
	Requirements    []string  `json:"requirements,omitempty"`
	Skills          []Skill   `json:"skills,omitempty"`
	ExperienceLevel Tier      `json:"experienceLevel"`
	Status          Status    `json:"status"`
	PostedBy        string    `json:"postedBy,omitempty"`
	Embedding       []float32 `json:"embedding,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	ViewCount       int64     `json:"viewCount"`
	MatchCount      int64     `json:"matchCount"`
}

// SkillNames returns every skill name of the job, required or not.
func (j *Job) SkillNames() []string {
	names := make([]string, 0, len(j.Skills))
	for _, s := range j.Skills {
		if s.Name != "" {
			names = append(names, s.Name)
		}
	}
	return names
}

// Validate checks the required fields of a posting.
func (j *Job) Validate() error {
	if j.ID == "" {
		return fmt.Errorf("job ID is required")
	}
	if strings.TrimSpace(j.Title) == "" {
		return fmt.Errorf("job title is required")
	}
	if _, err := ParseTier(string(j.ExperienceLevel)); err != nil {
		return err
	}
	return nil
}

// View is the outward shape of a job. PostedBy is hidden from non-privileged callers.
type View struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Company         string    `json:"company"`
	Location        string    `json:"location,omitempty"`
	Description     string    `json:"description"`
	Requirements    []string  `json:"requirements,omitempty"`
	Skills          []Skill   `json:"skills,omitempty"`
	ExperienceLevel Tier      `json:"experienceLevel"`
	Status          Status    `json:"status"`
	PostedBy        string    `json:"postedBy,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}
