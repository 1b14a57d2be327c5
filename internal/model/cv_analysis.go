package model

// CvAnalysis is the structured skills/experience summary extracted from an
// uploaded CV. The gateway guarantees the slice lengths match the requested
// technical and behavioral question counts, or returns the fixed fallback.
type CvAnalysis struct {
	TechnicalSkills []string `json:"technical_skills"`
	Experiences     []string `json:"experiences"`
}

// FallbackCvAnalysis returns the fixed placeholder analysis used when the
// model response is missing, malformed, or has the wrong array lengths.
// A bad analysis never blocks interview start.
func FallbackCvAnalysis() CvAnalysis {
	return CvAnalysis{
		TechnicalSkills: []string{"SQL", "Python", "Power BI", "Excel", "Teamwork", "R"},
		Experiences:     []string{"a past project", "a leadership role", "an internship experience"},
	}
}
