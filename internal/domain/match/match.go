package match

// Result scores one résumé against one job. Overall is derived from the sub-scores.
type Result struct {
	JobID         string   `json:"jobId"`
	ResumeID      string   `json:"resumeId"`
	Semantic      float64  `json:"semanticScore"`
	Skill         float64  `json:"skillScore"`
	Experience    float64  `json:"experienceScore"`
	Overall       float64  `json:"overallScore"`
	MatchedSkills []string `json:"matchedSkills"`
	MissingSkills []string `json:"missingSkills"`
	Evidence      []string `json:"evidence"`
}
