package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewQuestionPlan_Split(t *testing.T) {
	tests := []struct {
		name       string
		total      int
		hr         int
		technical  int
		behavioral int
	}{
		{"five questions", 5, 2, 1, 2},
		{"ten questions", 10, 4, 3, 3},
		{"fifteen questions", 15, 5, 5, 5},
		{"divisible by three", 9, 3, 3, 3},
		{"single question", 1, 1, 0, 0},
		{"zero questions", 0, 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := NewQuestionPlan(tt.total)
			assert.Equal(t, tt.total, plan.Total)
			assert.Equal(t, tt.hr, plan.HrCount)
			assert.Equal(t, tt.technical, plan.TechnicalCount)
			assert.Equal(t, tt.behavioral, plan.BehavioralCount)
		})
	}
}

func TestNewQuestionPlan_CountsAlwaysSumToTotal(t *testing.T) {
	for total := 0; total <= 50; total++ {
		plan := NewQuestionPlan(total)
		assert.Equal(t, total, plan.HrCount+plan.TechnicalCount+plan.BehavioralCount,
			"counts must sum to total for total=%d", total)
		assert.GreaterOrEqual(t, plan.HrCount, 0)
		assert.GreaterOrEqual(t, plan.TechnicalCount, 0)
		assert.GreaterOrEqual(t, plan.BehavioralCount, 0)
	}
}

func TestNewQuestionPlan_NegativeTotalClampsToZero(t *testing.T) {
	plan := NewQuestionPlan(-3)
	assert.Equal(t, QuestionPlan{}, plan)
}
