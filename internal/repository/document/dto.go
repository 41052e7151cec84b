package document

import (
	"fmt"
	"time"

	domdoc "github.com/kailas-cloud/talentrag/internal/domain/document"
	"github.com/kailas-cloud/talentrag/internal/domain/job"
	"github.com/kailas-cloud/talentrag/internal/domain/vector"
)

// record is the stored résumé shape. The vector is kept as packed float32 bytes
// (base64 in JSON) instead of a decimal array.
type record struct {
	ID                string              `json:"id"`
	Text              string              `json:"text"`
	RedactedText      string              `json:"redactedText,omitempty"`
	Structured        domdoc.Structured   `json:"structured"`
	Vector            []byte              `json:"vector,omitempty"`
	PersonalInfo      domdoc.PersonalInfo `json:"personalInfo"`
	Status            domdoc.Status       `json:"status"`
	YearsOfExperience float64             `json:"yearsOfExperience"`
	CurrentPosition   string              `json:"currentPosition,omitempty"`
	CurrentCompany    string              `json:"currentCompany,omitempty"`
	Location          string              `json:"location,omitempty"`
	UploadedBy        string              `json:"uploadedBy,omitempty"`
	CreatedAt         time.Time           `json:"createdAt"`
}

func toRecord(d *domdoc.Document) record {
	return record{
		ID:                d.ID,
		Text:              d.Text,
		RedactedText:      d.RedactedText,
		Structured:        d.Structured,
		Vector:            vector.ToBytes(d.Embedding),
		PersonalInfo:      d.PersonalInfo,
		Status:            d.Status,
		YearsOfExperience: d.YearsOfExperience,
		CurrentPosition:   d.CurrentPosition,
		CurrentCompany:    d.CurrentCompany,
		Location:          d.Location,
		UploadedBy:        d.UploadedBy,
		CreatedAt:         d.CreatedAt,
	}
}

func (r record) toDocument() (*domdoc.Document, error) {
	vec, err := vector.FromBytes(r.Vector)
	if err != nil {
		return nil, fmt.Errorf("resume %s: %w", r.ID, err)
	}
	return &domdoc.Document{
		ID:                r.ID,
		Text:              r.Text,
		RedactedText:      r.RedactedText,
		Structured:        r.Structured,
		Embedding:         vec,
		PersonalInfo:      r.PersonalInfo,
		Status:            r.Status,
		YearsOfExperience: r.YearsOfExperience,
		CurrentPosition:   r.CurrentPosition,
		CurrentCompany:    r.CurrentCompany,
		Location:          r.Location,
		UploadedBy:        r.UploadedBy,
		CreatedAt:         r.CreatedAt,
	}, nil
}

// jobRecord is the stored job shape.
type jobRecord struct {
	ID              string      `json:"id"`
	Title           string      `json:"title"`
	Company         string      `json:"company"`
	Location        string      `json:"location,omitempty"`
	Description     string      `json:"description"`
	Requirements    []string    `json:"requirements,omitempty"`
	Skills          []job.Skill `json:"skills,omitempty"`
	ExperienceLevel job.Tier    `json:"experienceLevel"`
	Status          job.Status  `json:"status"`
	PostedBy        string      `json:"postedBy,omitempty"`
	Vector          []byte      `json:"vector,omitempty"`
	CreatedAt       time.Time   `json:"createdAt"`
}

func toJobRecord(j *job.Job) jobRecord {
	return jobRecord{
		ID:              j.ID,
		Title:           j.Title,
		Company:         j.Company,
		Location:        j.Location,
		Description:     j.Description,
		Requirements:    j.Requirements,
		Skills:          j.Skills,
		ExperienceLevel: j.ExperienceLevel,
		Status:          j.Status,
		PostedBy:        j.PostedBy,
		Vector:          vector.ToBytes(j.Embedding),
		CreatedAt:       j.CreatedAt,
	}
}

func (r jobRecord) toJob() (*job.Job, error) {
	vec, err := vector.FromBytes(r.Vector)
	if err != nil {
		return nil, fmt.Errorf("job %s: %w", r.ID, err)
	}
	return &job.Job{
		ID:              r.ID,
		Title:           r.Title,
		Company:         r.Company,
		Location:        r.Location,
		Description:     r.Description,
		Requirements:    r.Requirements,
		Skills:          r.Skills,
		ExperienceLevel: r.ExperienceLevel,
		Status:          r.Status,
		PostedBy:        r.PostedBy,
		Embedding:       vec,
		CreatedAt:       r.CreatedAt,
	}, nil
}
