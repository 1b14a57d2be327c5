package service

import (
	"testing"

	"github.com/Aryan-111/Orca-Edge/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestParseCvAnalysis_ValidPayload(t *testing.T) {
	payload := `{"technical_skills": ["Go", "SQL", "Docker"], "experiences": ["a capstone project", "a research internship"]}`

	analysis := parseCvAnalysis(payload, 3, 2)

	assert.Equal(t, []string{"Go", "SQL", "Docker"}, analysis.TechnicalSkills)
	assert.Equal(t, []string{"a capstone project", "a research internship"}, analysis.Experiences)
}

func TestParseCvAnalysis_StripsMarkdownFences(t *testing.T) {
	payload := "```json\n{\"technical_skills\": [\"Go\"], \"experiences\": [\"a past project\"]}\n```"

	analysis := parseCvAnalysis(payload, 1, 1)

	assert.Equal(t, []string{"Go"}, analysis.TechnicalSkills)
}

func TestParseCvAnalysis_FallsBackOnBadPayload(t *testing.T) {
	fallback := model.FallbackCvAnalysis()

	tests := []struct {
		name    string
		payload string
	}{
		{"empty response", ""},
		{"not JSON", "I could not analyze this document."},
		{"truncated JSON", `{"technical_skills": ["Go",`},
		{"wrong skill count", `{"technical_skills": ["Go"], "experiences": ["a past project", "a past role"]}`},
		{"wrong experience count", `{"technical_skills": ["Go", "SQL"], "experiences": []}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			analysis := parseCvAnalysis(tt.payload, 2, 2)
			assert.Equal(t, fallback, analysis)
		})
	}
}

func TestBuildSystemInstruction_FirstInterview(t *testing.T) {
	instruction := buildSystemInstruction(InterviewChatParams{
		TargetRole: "Data Analyst",
		Plan:       model.NewQuestionPlan(10),
	})

	assert.Contains(t, instruction, "Part 1: HR Questions (4 Questions)")
	assert.Contains(t, instruction, "Part 2: Technical Questions (3 Questions)")
	assert.Contains(t, instruction, "Part 3: Behavioral Questions (3 Questions)")
	assert.Contains(t, instruction, "Data Analyst")
	assert.Contains(t, instruction, `This is the user's first interview`)
	assert.NotContains(t, instruction, "// ROLE CONTEXT")
}

func TestBuildSystemInstruction_WithPreviousReport(t *testing.T) {
	prev := &model.InterviewReport{
		OverallScore: 6.5,
		Sections: []model.ReportSection{
			{Category: model.CategoryHR, Score: 7},
		},
	}

	instruction := buildSystemInstruction(InterviewChatParams{
		TargetRole:     "Backend Engineer",
		Plan:           model.NewQuestionPlan(5),
		PreviousReport: prev,
	})

	assert.Contains(t, instruction, "Previous Overall Score: 6.5/10")
	assert.Contains(t, instruction, "Previous HR & Introduction Score: 7/10")
	assert.NotContains(t, instruction, "first interview")
}

func TestBuildSystemInstruction_WithRoleContext(t *testing.T) {
	instruction := buildSystemInstruction(InterviewChatParams{
		TargetRole:  "Frontend Engineer",
		Plan:        model.NewQuestionPlan(5),
		RoleContext: "Frontend Engineer: component frameworks and accessibility.",
	})

	assert.Contains(t, instruction, "// ROLE CONTEXT")
	assert.Contains(t, instruction, "component frameworks and accessibility")
}
