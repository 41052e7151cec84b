package redact

import (
	"github.com/kailas-cloud/talentrag/internal/domain"
	"github.com/kailas-cloud/talentrag/internal/domain/document"
	"github.com/kailas-cloud/talentrag/internal/domain/job"
)

// Strip is the single exit point of a résumé from the core.
// Privileged roles see the raw text and personal info; everyone else gets the
// redacted text and no personal info. The embedding never leaves.
func Strip(d *document.Document, role domain.Role) document.View {
	v := document.View{
		ID:                d.ID,
		Structured:        d.Structured,
		YearsOfExperience: d.YearsOfExperience,
		CurrentPosition:   d.CurrentPosition,
		CurrentCompany:    d.CurrentCompany,
		Location:          d.Location,
		CreatedAt:         d.CreatedAt,
		ViewCount:         d.ViewCount,
		MatchCount:        d.MatchCount,
	}
	if role.Privileged() {
		info := d.PersonalInfo
		v.Text = d.Text
		v.PersonalInfo = &info
		return v
	}
	v.Text = d.RedactedText
	if v.Text == "" {
		v.Text = Text(d.Text, d.PersonalInfo)
	}
	return v
}

// StripJob hides the poster identity from non-privileged roles.
func StripJob(j *job.Job, role domain.Role) job.View {
	v := job.View{
		ID:              j.ID,
		Title:           j.Title,
		Company:         j.Company,
		Location:        j.Location,
		Description:     j.Description,
		Requirements:    j.Requirements,
		Skills:          j.Skills,
		ExperienceLevel: j.ExperienceLevel,
		Status:          j.Status,
		CreatedAt:       j.CreatedAt,
	}
	if role.Privileged() {
		v.PostedBy = j.PostedBy
	}
	return v
}
