package dto

import (
	"github.com/Aryan-111/Orca-Edge/internal/model"
	"github.com/google/uuid"
)

type InterviewSessionDTO struct {
	ID             uuid.UUID          `json:"id"`
	Stage          string             `json:"stage"`
	TargetRole     string             `json:"target_role,omitempty"`
	Plan           model.QuestionPlan `json:"plan"`
	Transcript     []model.ChatTurn   `json:"transcript"`
	AnswerCount    int                `json:"answer_count"`
	Loading        bool               `json:"loading"`
	ElapsedSeconds int                `json:"elapsed_seconds"`
}

// LatestReportDTO is the newest report plus score deltas against the report
// that preceded it. Deltas are zero when there is no prior data.
type LatestReportDTO struct {
	Report        *model.InterviewReport `json:"report"`
	OverallDelta  float64                `json:"overall_delta"`
	SectionDeltas map[string]float64     `json:"section_deltas"`
}
