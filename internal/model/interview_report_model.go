package model

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// The three section categories every report must carry, in interview order.
const (
	CategoryHR         = "HR & Introduction"
	CategoryTechnical  = "Technical Skills"
	CategoryBehavioral = "Behavioral & Situational"
)

// ExpectedCategories returns the section categories a valid report contains.
func ExpectedCategories() []string {
	return []string{CategoryHR, CategoryTechnical, CategoryBehavioral}
}

type ReportSection struct {
	Category string  `json:"category"`
	Score    float64 `json:"score"`
	Feedback string  `json:"feedback"`
}

type ReportResource struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description"`
}

type ProgressComparison struct {
	ImprovementSummary string `json:"improvement_summary"`
}

// InterviewReport is the structured end-of-session performance evaluation.
// It is created exactly once per completed session, stamped with the
// completion time, and immutable thereafter. Field names follow the report
// wire format emitted inside the model's fenced JSON block.
type InterviewReport struct {
	Sections           []ReportSection     `json:"sections"`
	OverallScore       float64             `json:"overallScore"`
	FinalTip           string              `json:"finalTip"`
	SuggestedResources []ReportResource    `json:"suggestedResources"`
	ProgressComparison *ProgressComparison `json:"progress_comparison"`
	Date               time.Time           `json:"date"`
}

// ReportRecord is the persisted row for one InterviewReport. The full report
// travels as a JSON payload; Date and OverallScore are lifted into columns so
// history can be ordered and paginated in SQL.
type ReportRecord struct {
	ID           uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	OverallScore float64   `gorm:"type:float" json:"overall_score"`
	Payload      string    `gorm:"type:jsonb" json:"payload"`
	Date         time.Time `gorm:"index" json:"date"`
	CreatedAt    time.Time `json:"created_at"`
}

func (r *ReportRecord) TableName() string {
	return "interview_reports"
}

// SortReportsByDate orders reports by date descending, newest first. The sort
// is stable so same-timestamp reports keep their load order.
func SortReportsByDate(reports []InterviewReport) {
	sort.SliceStable(reports, func(i, j int) bool {
		return reports[i].Date.After(reports[j].Date)
	})
}

// MostRecent returns the newest report of an already descending-sorted
// history, or nil when there is none.
func MostRecent(history []InterviewReport) *InterviewReport {
	if len(history) == 0 {
		return nil
	}
	return &history[0]
}

// SectionDelta is newScore - previousScore for the section with the given
// category. A category with no prior data contributes a zero delta.
func SectionDelta(newReport, previous *InterviewReport, category string) float64 {
	if newReport == nil || previous == nil {
		return 0
	}
	newScore, ok := sectionScore(newReport, category)
	if !ok {
		return 0
	}
	prevScore, ok := sectionScore(previous, category)
	if !ok {
		return 0
	}
	return newScore - prevScore
}

// OverallDelta is the overall-score change against the previous report, or
// zero when there is no previous report.
func OverallDelta(newReport, previous *InterviewReport) float64 {
	if newReport == nil || previous == nil {
		return 0
	}
	return newReport.OverallScore - previous.OverallScore
}

func sectionScore(r *InterviewReport, category string) (float64, bool) {
	for _, s := range r.Sections {
		if s.Category == category {
			return s.Score, true
		}
	}
	return 0, false
}
