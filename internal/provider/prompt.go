package provider

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/kailas-cloud/talentrag/internal/domain"
	"github.com/kailas-cloud/talentrag/internal/domain/document"
)

// Input limits for extraction prompts.
const (
	HostedExtractionChars = 4000
	LocalExtractionChars  = 3000
)

const extractionSystem = "You are an expert resume parser. Extract structured information from resumes " +
	"and return valid JSON only. Be accurate and only include information that is explicitly stated."

const extractionSchema = `{
  "personalInfo": {
    "name": "Full name",
    "email": "Email address",
    "phone": "Phone number",
    "linkedIn": "LinkedIn URL",
    "github": "GitHub URL",
    "portfolio": "Portfolio URL"
  },
  "skills": [
    {"name": "Skill name", "category": "technical|soft|language|other", "proficiency": "beginner|intermediate|advanced|expert"}
  ],
  "experience": [
    {"company": "Company name", "position": "Job title", "location": "Location",
     "startDate": "YYYY-MM or YYYY", "endDate": "YYYY-MM or YYYY or present",
     "description": "Job description", "achievements": ["Achievement"], "technologies": ["Tech"]}
  ],
  "education": [
    {"institution": "School/University name", "degree": "Degree type", "field": "Field of study",
     "gpa": "GPA if mentioned", "startDate": "YYYY", "endDate": "YYYY", "achievements": ["Achievement"]}
  ],
  "certifications": [
    {"name": "Certification name", "issuer": "Issuing organization", "issueDate": "YYYY-MM",
     "expiryDate": "YYYY-MM", "credentialId": "ID if provided"}
  ],
  "projects": [
    {"name": "Project name", "description": "Project description", "technologies": ["Tech"],
     "url": "Project URL if available", "startDate": "YYYY-MM", "endDate": "YYYY-MM"}
  ],
  "languages": [
    {"name": "Language name", "proficiency": "native|fluent|intermediate|basic"}
  ]
}`

// ExtractionPrompt builds the structured extraction request for a résumé.
// Text beyond limit runes is dropped.
func ExtractionPrompt(text string, limit int) Prompt {
	user := "Extract structured information from this resume text and return a JSON object with the following structure:\n" +
		extractionSchema +
		"\n\nOnly include information that is explicitly mentioned in the resume. " +
		"If a field is not found, use null or empty array as appropriate.\n\nResume text:\n" +
		domain.Truncate(text, limit)
	return Prompt{
		System:      extractionSystem,
		User:        user,
		Temperature: 0,
		MaxTokens:   2000,
		JSON:        true,
	}
}

var jsonBlockRe = regexp.MustCompile(`\{[\s\S]*\}`)

// extractionPayload mirrors the flat JSON shape models are asked to return.
type extractionPayload struct {
	PersonalInfo   document.PersonalInfo    `json:"personalInfo"`
	Skills         []document.Skill         `json:"skills"`
	Experience     []document.Experience    `json:"experience"`
	Education      []document.Education     `json:"education"`
	Certifications []document.Certification `json:"certifications"`
	Projects       []document.Project       `json:"projects"`
	Languages      []document.Language      `json:"languages"`
}

// ParseExtraction decodes the first {...} block of raw model output.
func ParseExtraction(raw string) (Extraction, error) {
	block := jsonBlockRe.FindString(stripFences(raw))
	if block == "" {
		return Extraction{}, fmt.Errorf("%w: no JSON object in output", domain.ErrMalformedOutput)
	}
	var p extractionPayload
	if err := json.Unmarshal([]byte(block), &p); err != nil {
		return Extraction{}, fmt.Errorf("%w: %v", domain.ErrMalformedOutput, err)
	}
	return Extraction{
		PersonalInfo: p.PersonalInfo,
		Structured: document.Structured{
			Skills:         p.Skills,
			Experience:     p.Experience,
			Education:      p.Education,
			Certifications: p.Certifications,
			Projects:       p.Projects,
			Languages:      p.Languages,
		},
	}, nil
}

func stripFences(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	return strings.TrimSpace(raw)
}

// Per-résumé context limits for answer prompts.
const (
	HostedContextChars = 1000
	LocalContextChars  = 800
)

// ContextChars returns how much of each résumé the named provider gets in an answer prompt.
// Local models have small context windows.
func ContextChars(providerName string) int {
	if providerName == NameOllama {
		return LocalContextChars
	}
	return HostedContextChars
}
