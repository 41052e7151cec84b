package answer

// Evidence is one retrieved résumé backing an answer.
// CandidateName is the real name only for privileged callers.
type Evidence struct {
	DocumentID        string   `json:"resumeId"`
	Similarity        float64  `json:"similarity"`
	Excerpt           string   `json:"relevantText"`
	CandidateName     string   `json:"candidateName"`
	CurrentPosition   string   `json:"currentPosition,omitempty"`
	YearsOfExperience float64  `json:"yearsOfExperience"`
	KeySkills         []string `json:"keySkills,omitempty"`
}

// Answer is a synthesized natural-language reply with its evidence.
type Answer struct {
	Text     string     `json:"answer"`
	Evidence []Evidence `json:"evidence"`
	Sources  int        `json:"sources"`
}
