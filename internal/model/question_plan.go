package model

// QuestionPlan is the fixed split of an interview's total question count into
// the three question categories. The remainder after the HR and technical
// shares lands in the behavioral count.
type QuestionPlan struct {
	Total           int `json:"total"`
	HrCount         int `json:"hr_count"`
	TechnicalCount  int `json:"technical_count"`
	BehavioralCount int `json:"behavioral_count"`
}

// NewQuestionPlan partitions total into hr/technical/behavioral counts.
// hr = ceil(total/3), technical = floor(total/3), behavioral = the rest.
// Defined for every non-negative total; total=0 yields an all-zero plan.
func NewQuestionPlan(total int) QuestionPlan {
	if total < 0 {
		total = 0
	}
	hr := (total + 2) / 3
	tech := total / 3
	return QuestionPlan{
		Total:           total,
		HrCount:         hr,
		TechnicalCount:  tech,
		BehavioralCount: total - hr - tech,
	}
}
