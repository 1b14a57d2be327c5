package util

import (
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"github.com/Aryan-111/Orca-Edge/internal/model"
	"github.com/tidwall/gjson"
)

// ReportFormatError means the final model response did not contain a usable
// report payload. The raw response is kept so it can be surfaced to the user.
type ReportFormatError struct {
	Message string
	Cause   error
}

func (e *ReportFormatError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("report format error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("report format error: %s", e.Message)
}

func (e *ReportFormatError) Unwrap() error {
	return e.Cause
}

var reportBlockRe = regexp.MustCompile("```json\\s*([\\s\\S]*?)```")

// ExtractReport locates the fenced ```json block in the model's final
// response, parses it, validates its shape, and stamps it with the current
// time. It is a total function: any input yields either a report or a
// *ReportFormatError, never a panic.
//
// Validation is strict: exactly three sections with the expected categories
// and all scores within [0,10]. The report source is untrusted free text, so
// shape is checked here at the boundary rather than trusted downstream.
func ExtractReport(rawText string) (*model.InterviewReport, error) {
	match := reportBlockRe.FindStringSubmatch(rawText)
	if match == nil {
		return nil, &ReportFormatError{Message: "no fenced JSON block found in response"}
	}

	payload := match[1]
	if !gjson.Valid(payload) {
		return nil, &ReportFormatError{Message: "fenced block is not valid JSON"}
	}

	var report model.InterviewReport
	if err := json.Unmarshal([]byte(payload), &report); err != nil {
		return nil, &ReportFormatError{Message: "failed to parse report payload", Cause: err}
	}

	if err := validateReport(&report); err != nil {
		return nil, err
	}

	report.Date = time.Now()
	return &report, nil
}

func validateReport(r *model.InterviewReport) error {
	expected := model.ExpectedCategories()
	if len(r.Sections) != len(expected) {
		return &ReportFormatError{
			Message: fmt.Sprintf("expected %d sections, got %d", len(expected), len(r.Sections)),
		}
	}
	for i, category := range expected {
		section := r.Sections[i]
		if section.Category != category {
			return &ReportFormatError{
				Message: fmt.Sprintf("section %d: expected category %q, got %q", i, category, section.Category),
			}
		}
		if section.Score < 0 || section.Score > 10 {
			return &ReportFormatError{
				Message: fmt.Sprintf("section %q: score %.2f out of range [0,10]", section.Category, section.Score),
			}
		}
	}
	if r.OverallScore < 0 || r.OverallScore > 10 {
		return &ReportFormatError{
			Message: fmt.Sprintf("overall score %.2f out of range [0,10]", r.OverallScore),
		}
	}
	return nil
}
