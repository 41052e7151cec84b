package chi

import (
	"github.com/kailas-cloud/talentrag/internal/domain/search/filter"
)

// ErrorCode is the machine-readable error code of an ErrorResponse.
type ErrorCode string

// Error codes.
const (
	codeBadRequest       ErrorCode = "bad_request"
	codeValidationFailed ErrorCode = "validation_failed"
	codeInvalidFilter    ErrorCode = "invalid_filter"
	codeUnauthorized     ErrorCode = "unauthorized"
	codeForbidden        ErrorCode = "forbidden"
	codeJobNotFound      ErrorCode = "job_not_found"
	codeDocumentNotFound ErrorCode = "document_not_found"
	codeNotFound         ErrorCode = "not_found"
	codeInternalError    ErrorCode = "internal_error"
)

// ErrorResponse is the JSON body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// FiltersRequest is the structural filter of search and ask requests.
type FiltersRequest struct {
	ExperienceLevel string   `json:"experienceLevel,omitempty"`
	Location        string   `json:"location,omitempty"`
	Skills          []string `json:"skills,omitempty"`
	Companies       []string `json:"companies,omitempty"`
	Education       string   `json:"education,omitempty"`
}

func (f *FiltersRequest) toDomain() (filter.Filter, error) {
	if f == nil {
		return filter.Filter{}, nil
	}
	return filter.New(f.ExperienceLevel, f.Location, f.Skills, f.Companies, f.Education)
}

// SearchRequest is the body of POST /api/search.
type SearchRequest struct {
	Query   string          `json:"query"`
	K       int             `json:"k,omitempty"`
	Filters *FiltersRequest `json:"filters,omitempty"`
}

// AskRequest is the body of POST /api/ask.
type AskRequest struct {
	Query             string          `json:"query"`
	K                 int             `json:"k,omitempty"`
	IncludeJobContext bool            `json:"includeJobContext,omitempty"`
	Filters           *FiltersRequest `json:"filters,omitempty"`
}

// CandidatesRequest is the body of POST /api/candidates.
type CandidatesRequest struct {
	Requirements string   `json:"requirements"`
	Skills       []string `json:"skills,omitempty"`
	K            int      `json:"k,omitempty"`
}

// MatchRequest is the body of POST /api/jobs/{id}/match. The body is optional.
type MatchRequest struct {
	TopN int `json:"top_n,omitempty"`
}

// maxTopN bounds top_n on the match endpoint.
const maxTopN = 50
