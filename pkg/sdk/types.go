package talentrag

import "time"

// Filters narrows a search before ranking. Empty fields do not filter.
type Filters struct {
	ExperienceLevel string   `json:"experienceLevel,omitempty"` // entry, mid, senior, lead, executive
	Location        string   `json:"location,omitempty"`
	Skills          []string `json:"skills,omitempty"`
	Companies       []string `json:"companies,omitempty"`
	Education       string   `json:"education,omitempty"`
}

// SearchRequest is the body of a semantic search. K = 0 means the server default.
type SearchRequest struct {
	Query   string   `json:"query"`
	K       int      `json:"k,omitempty"`
	Filters *Filters `json:"filters,omitempty"`
}

// AskRequest is the body of a question answered from résumé evidence.
type AskRequest struct {
	Query             string   `json:"query"`
	K                 int      `json:"k,omitempty"`
	IncludeJobContext bool     `json:"includeJobContext,omitempty"`
	Filters           *Filters `json:"filters,omitempty"`
}

// CandidatesRequest is the body of a requirement-text candidate search.
type CandidatesRequest struct {
	Requirements string   `json:"requirements"`
	Skills       []string `json:"skills,omitempty"`
	K            int      `json:"k,omitempty"`
}

// PersonalInfo is present only for recruiter and admin callers.
type PersonalInfo struct {
	Name      string `json:"name,omitempty"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Address   string `json:"address,omitempty"`
	Birth     string `json:"dateOfBirth,omitempty"`
	LinkedIn  string `json:"linkedIn,omitempty"`
	GitHub    string `json:"github,omitempty"`
	Portfolio string `json:"portfolio,omitempty"`
}

// Skill is one extracted skill.
type Skill struct {
	Name        string `json:"name"`
	Category    string `json:"category,omitempty"`
	Proficiency string `json:"proficiency,omitempty"`
}

// Structured is the parsed body of a résumé. Only skills are decoded.
type Structured struct {
	Skills []Skill `json:"skills,omitempty"`
}

// Document is a résumé as shown to the caller.
type Document struct {
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

// Hit is one ranked résumé.
type Hit struct {
	Document   Document `json:"document"`
	Similarity float64  `json:"similarity"`
}

// SearchResponse is the result of Search.
type SearchResponse struct {
	Documents    []Hit  `json:"documents"`
	TotalResults int    `json:"totalResults"`
	Message      string `json:"message,omitempty"`
	Degraded     bool   `json:"degraded,omitempty"`
	QueryID      string `json:"queryId,omitempty"`
}

// Evidence is one résumé an answer draws on.
type Evidence struct {
	ResumeID          string   `json:"resumeId"`
	Similarity        float64  `json:"similarity"`
	RelevantText      string   `json:"relevantText"`
	CandidateName     string   `json:"candidateName"`
	CurrentPosition   string   `json:"currentPosition,omitempty"`
	YearsOfExperience float64  `json:"yearsOfExperience"`
	KeySkills         []string `json:"keySkills,omitempty"`
}

// Models names the models that served a request.
type Models struct {
	Embedding  string `json:"embedding"`
	Generation string `json:"generation"`
}

// AskMetadata describes how an answer was produced.
type AskMetadata struct {
	ProcessingTime int64  `json:"processingTime"` // milliseconds
	Models         Models `json:"models"`
}

// AskResponse is the result of Ask.
type AskResponse struct {
	Query        string       `json:"query"`
	Answer       string       `json:"answer"`
	Sources      []Evidence   `json:"sources"`
	TotalResults int          `json:"totalResults"`
	Filters      Filters      `json:"filters"`
	Message      string       `json:"message,omitempty"`
	Degraded     bool         `json:"degraded,omitempty"`
	QueryID      string       `json:"queryId,omitempty"`
	Metadata     *AskMetadata `json:"metadata,omitempty"`
}

// Candidate is a hit re-ranked by skill overlap.
type Candidate struct {
	Hit
	SkillMatch    float64  `json:"skillMatchScore"`
	MatchedSkills []string `json:"matchedSkills"`
	MissingSkills []string `json:"missingSkills"`
	Combined      float64  `json:"combinedScore"`
}

// CandidatesResponse is the result of Candidates.
type CandidatesResponse struct {
	Candidates   []Candidate `json:"candidates"`
	TotalResults int         `json:"totalResults"`
	Degraded     bool        `json:"degraded,omitempty"`
	Message      string      `json:"message,omitempty"`
}

// CandidateMatch is one résumé scored against a job.
type CandidateMatch struct {
	ResumeID          string    `json:"resumeId"`
	Semantic          float64   `json:"semanticScore"`
	Skill             float64   `json:"skillScore"`
	Experience        float64   `json:"experienceScore"`
	Overall           float64   `json:"overallScore"`
	MatchedSkills     []string  `json:"matchedSkills"`
	MissingSkills     []string  `json:"missingSkills"`
	Evidence          []string  `json:"evidence"`
	CandidateName     string    `json:"candidateName"`
	YearsOfExperience float64   `json:"yearsOfExperience"`
	CurrentPosition   string    `json:"currentPosition,omitempty"`
	UploadedAt        time.Time `json:"uploadedAt"`
}

// MatchResponse is the result of MatchJob.
type MatchResponse struct {
	JobID           string           `json:"jobId"`
	JobTitle        string           `json:"jobTitle"`
	Company         string           `json:"company,omitempty"`
	Matches         []CandidateMatch `json:"matches"`
	TotalCandidates int              `json:"totalCandidates"`
	Message         string           `json:"message,omitempty"`
}

// SkillCount is one row of the skill distribution.
type SkillCount struct {
	Skill string `json:"skill"`
	Count int    `json:"count"`
}

// TierCount is one row of the experience distribution.
type TierCount struct {
	Tier  string `json:"tier"`
	Count int    `json:"count"`
}

// Insights summarises the searchable corpus.
type Insights struct {
	TotalResumes           int          `json:"totalResumes"`
	RecentResumes          int          `json:"recentResumes"`
	SkillDistribution      []SkillCount `json:"skillDistribution"`
	ExperienceDistribution []TierCount  `json:"experienceDistribution"`
	Timeframe              string       `json:"timeframe"`
}

// Usage period names.
const (
	PeriodDay   = "day"
	PeriodMonth = "month"
)

// UsageReport is the embedding token usage of one period.
type UsageReport struct {
	Period    string    `json:"period"`
	Start     time.Time `json:"periodStart"`
	End       time.Time `json:"periodEnd"`
	Limit     int64     `json:"tokensLimit"`
	Used      int64     `json:"tokensUsed"`
	Remaining int64     `json:"tokensRemaining"`
	Exhausted bool      `json:"exhausted"`
}

// HealthStatus represents the aggregated system health.
type HealthStatus struct {
	Status string            `json:"status"` // "ok", "degraded", "error"
	Checks map[string]string `json:"checks"` // component -> "ok"/"degraded"/"error"
}
