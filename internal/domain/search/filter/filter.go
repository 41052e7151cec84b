package filter

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/talentrag/internal/domain"
	"github.com/kailas-cloud/talentrag/internal/domain/document"
	"github.com/kailas-cloud/talentrag/internal/domain/job"
)

// MaxValuesPerSet is the maximum number of values in a skill or company set.
const MaxValuesPerSet = 32

// Filter is the structural pre-filter applied before any similarity scoring.
// Every set criterion must hold; within a set, one matching value is enough.
// All text comparisons are case-insensitive substring matches.
type Filter struct {
	tier      job.Tier
	band      job.Band
	hasBand   bool
	location  string
	skills    []string
	companies []string
	education string
}

// New validates and creates a Filter. Empty arguments leave the criterion unset.
// Errors wrap domain.ErrInvalidFilter.
func New(tier, location string, skills, companies []string, education string) (Filter, error) {
	f := Filter{
		location:  strings.ToLower(strings.TrimSpace(location)),
		education: strings.ToLower(strings.TrimSpace(education)),
	}
	if tier != "" {
		t, err := job.ParseTier(tier)
		if err != nil {
			return Filter{}, fmt.Errorf("%w: %w", domain.ErrInvalidFilter, err)
		}
		f.tier = t
		f.band, f.hasBand = t.Band()
	}
	if len(skills) > MaxValuesPerSet {
		return Filter{}, fmt.Errorf("%w: too many skills (max %d)", domain.ErrInvalidFilter, MaxValuesPerSet)
	}
	if len(companies) > MaxValuesPerSet {
		return Filter{}, fmt.Errorf("%w: too many companies (max %d)", domain.ErrInvalidFilter, MaxValuesPerSet)
	}
	f.skills = normalize(skills)
	f.companies = normalize(companies)
	return f, nil
}

// Tier returns the experience tier criterion, empty if unset.
func (f Filter) Tier() job.Tier { return f.tier }

// Band returns the years band of the tier criterion.
func (f Filter) Band() (job.Band, bool) { return f.band, f.hasBand }

// Location returns the lower-cased location substring.
func (f Filter) Location() string { return f.location }

// Skills returns the lower-cased skill set.
func (f Filter) Skills() []string { return f.skills }

// Companies returns the lower-cased company set.
func (f Filter) Companies() []string { return f.companies }

// Education returns the lower-cased degree substring.
func (f Filter) Education() string { return f.education }

// IsEmpty reports whether no criterion is set.
func (f Filter) IsEmpty() bool {
	return !f.hasBand && f.location == "" && len(f.skills) == 0 &&
		len(f.companies) == 0 && f.education == ""
}

// Matches reports whether the document is searchable and passes every criterion.
func (f Filter) Matches(d *document.Document) bool {
	if !d.Searchable() {
		return false
	}
	if f.hasBand && !f.band.Contains(d.YearsOfExperience) {
		return false
	}
	if f.location != "" && !strings.Contains(strings.ToLower(d.Location), f.location) {
		return false
	}
	if len(f.skills) > 0 && !anyContains(d.Structured.SkillNames(), f.skills) {
		return false
	}
	if len(f.companies) > 0 {
		companies := make([]string, 0, len(d.Structured.Experience))
		for _, e := range d.Structured.Experience {
			companies = append(companies, e.Company)
		}
		if !anyContains(companies, f.companies) {
			return false
		}
	}
	if f.education != "" {
		degrees := make([]string, 0, len(d.Structured.Education))
		for _, e := range d.Structured.Education {
			degrees = append(degrees, e.Degree)
		}
		if !anyContains(degrees, []string{f.education}) {
			return false
		}
	}
	return true
}

// anyContains reports whether some value contains some needle. Needles are lower-case.
func anyContains(values, needles []string) bool {
	for _, v := range values {
		lv := strings.ToLower(v)
		for _, n := range needles {
			if strings.Contains(lv, n) {
				return true
			}
		}
	}
	return false
}

func normalize(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
