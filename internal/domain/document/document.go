package document

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var idRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// MaxContentSize is the maximum résumé text size in bytes.
const MaxContentSize = 163840 // 160KB

// Status is the processing lifecycle of a résumé.
type Status string

// Document statuses.
const (
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// PersonalInfo is the identifying part of a résumé. Visible to privileged roles only.
type PersonalInfo struct {
	Name        string `json:"name,omitempty"`
	Email       string `json:"email,omitempty"`
	Phone       string `json:"phone,omitempty"`
	Address     string `json:"address,omitempty"`
	DateOfBirth string `json:"dateOfBirth,omitempty"`
	LinkedIn    string `json:"linkedIn,omitempty"`
	GitHub      string `json:"github,omitempty"`
	Portfolio   string `json:"portfolio,omitempty"`
}

// IsZero reports whether no field is set.
func (p PersonalInfo) IsZero() bool { return p == PersonalInfo{} }

// Skill is one extracted skill.
type Skill struct {
	Name        string `json:"name"`
	Category    string `json:"category,omitempty"`
	Proficiency string `json:"proficiency,omitempty"`
}

// Experience is one employment entry.
type Experience struct {
	Company      string   `json:"company,omitempty"`
	Position     string   `json:"position,omitempty"`
	Location     string   `json:"location,omitempty"`
	StartDate    string   `json:"startDate,omitempty"`
	EndDate      string   `json:"endDate,omitempty"`
	Description  string   `json:"description,omitempty"`
	Achievements []string `json:"achievements,omitempty"`
	Technologies []string `json:"technologies,omitempty"`
}

// Education is one education entry.
type Education struct {
	Institution  string   `json:"institution,omitempty"`
	Degree       string   `json:"degree,omitempty"`
	Field        string   `json:"field,omitempty"`
	GPA          string   `json:"gpa,omitempty"`
	StartDate    string   `json:"startDate,omitempty"`
	EndDate      string   `json:"endDate,omitempty"`
	Achievements []string `json:"achievements,omitempty"`
}

// Certification is one certificate entry.
type Certification struct {
	Name         string `json:"name"`
	Issuer       string `json:"issuer,omitempty"`
	IssueDate    string `json:"issueDate,omitempty"`
	ExpiryDate   string `json:"expiryDate,omitempty"`
	CredentialID string `json:"credentialId,omitempty"`
}

// Project is one project entry.
type Project struct {
	Name         string   `json:"name"`
	Description  string   `json:"description,omitempty"`
	Technologies []string `json:"technologies,omitempty"`
	URL          string   `json:"url,omitempty"`
	StartDate    string   `json:"startDate,omitempty"`
	EndDate      string   `json:"endDate,omitempty"`
}

// Language is one spoken language.
type Language struct {
	Name        string `json:"name"`
	Proficiency string `json:"proficiency,omitempty"`
}

// Structured is the parsed, non-identifying body of a résumé.
type Structured struct {
	Skills         []Skill         `json:"skills,omitempty"`
	Experience     []Experience    `json:"experience,omitempty"`
	Education      []Education     `json:"education,omitempty"`
	Certifications []Certification `json:"certifications,omitempty"`
	Projects       []Project       `json:"projects,omitempty"`
	Languages      []Language      `json:"languages,omitempty"`
}

// SkillNames returns the skill names in extraction order.
func (s Structured) SkillNames() []string {
	names := make([]string, 0, len(s.Skills))
	for _, sk := range s.Skills {
		if sk.Name != "" {
			names = append(names, sk.Name)
		}
	}
	return names
}

// Document is a stored résumé.
// Embedding is non-empty iff Status is completed.
type Document struct {
	ID                string       `json:"id"`
	Text              string       `json:"text"`
	RedactedText      string       `json:"redactedText,omitempty"`
	Structured        Structured   `json:"structured"`
	Embedding         []float32    `json:"embedding,omitempty"`
	PersonalInfo      PersonalInfo `json:"personalInfo"`
	Status            Status       `json:"status"`
	YearsOfExperience float64      `json:"yearsOfExperience"`
	CurrentPosition   string       `json:"currentPosition,omitempty"`
	CurrentCompany    string       `json:"currentCompany,omitempty"`
	Location          string       `json:"location,omitempty"`
	UploadedBy        string       `json:"uploadedBy,omitempty"`
	CreatedAt         time.Time    `json:"createdAt"`
	ViewCount         int64        `json:"viewCount"`
	MatchCount        int64        `json:"matchCount"`
}

// Searchable reports whether the document may appear in any search path.
func (d *Document) Searchable() bool {
	return d.Status == StatusCompleted && len(d.Embedding) > 0
}

// Validate checks identity, size and the status/embedding invariant.
func (d *Document) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("document ID is required")
	}
	if len(d.ID) > 256 {
		return fmt.Errorf("document ID too long (max 256)")
	}
	if !idRegex.MatchString(d.ID) {
		return fmt.Errorf("document ID must be alphanumeric with underscores and hyphens")
	}
	if strings.TrimSpace(d.Text) == "" {
		return fmt.Errorf("text is required")
	}
	if len(d.Text) > MaxContentSize {
		return fmt.Errorf("text too large (max %d bytes)", MaxContentSize)
	}
	switch d.Status {
	case StatusCompleted:
		if len(d.Embedding) == 0 {
			return fmt.Errorf("completed document %q has no embedding", d.ID)
		}
	case StatusProcessing, StatusFailed:
		if len(d.Embedding) > 0 {
			return fmt.Errorf("%s document %q must not carry an embedding", d.Status, d.ID)
		}
	default:
		return fmt.Errorf("unknown status %q", d.Status)
	}
	return nil
}

// View is the outward shape of a document after role-based redaction.
// PersonalInfo is nil for non-privileged callers; Text is the redacted text for them.
type View struct {
	ID                string        `json:"id"`
	Text              string        `json:"text"`
	Structured        Structured    `json:"structured"`
	PersonalInfo      *PersonalInfo `json:"personalInfo,omitempty"`
	YearsOfExperience float64       `json:"yearsOfExperience"`
	CurrentPosition   string        `json:"currentPosition,omitempty"`
	CurrentCompany    string        `json:"currentCompany,omitempty"`
	Location          string        `json:"location,omitempty"`
	CreatedAt         time.Time     `json:"createdAt"`
	ViewCount         int64         `json:"viewCount"`
	MatchCount        int64         `json:"matchCount"`
}
