package repository

import (
	"encoding/json"
	"log"

	"github.com/Aryan-111/Orca-Edge/internal/model"
	"github.com/Aryan-111/Orca-Edge/internal/response"
	"gorm.io/gorm"
)

type ReportRepository struct {
	db *gorm.DB
}

func NewReportRepository(db *gorm.DB) *ReportRepository {
	return &ReportRepository{db}
}

// Save appends one completed report to the history. Persistence is
// best-effort; the caller logs failures instead of failing the session.
func (r *ReportRepository) Save(report *model.InterviewReport) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return err
	}
	record := model.ReportRecord{
		OverallScore: report.OverallScore,
		Payload:      string(payload),
		Date:         report.Date,
	}
	return r.db.Create(&record).Error
}

// Load reads the full history, newest first. Read or parse failures return
// an empty history: a corrupt store is treated the same as no history.
func (r *ReportRepository) Load() []model.InterviewReport {
	var records []model.ReportRecord
	if err := r.db.Order("date DESC").Find(&records).Error; err != nil {
		log.Printf("failed to load interview history: %v", err)
		return []model.InterviewReport{}
	}

	reports := make([]model.InterviewReport, 0, len(records))
	for _, record := range records {
		var report model.InterviewReport
		if err := json.Unmarshal([]byte(record.Payload), &report); err != nil {
			log.Printf("failed to parse interview history record %s: %v", record.ID, err)
			return []model.InterviewReport{}
		}
		reports = append(reports, report)
	}

	model.SortReportsByDate(reports)
	return reports
}

// MostRecent returns the newest persisted report, or nil when history is
// empty or unreadable.
func (r *ReportRepository) MostRecent() *model.InterviewReport {
	return model.MostRecent(r.Load())
}

// ListPage returns one page of history, newest first, with pagination
// metadata for the HTTP layer.
func (r *ReportRepository) ListPage(page, pageSize int) ([]model.InterviewReport, *response.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	var total int64
	if err := r.db.Model(&model.ReportRecord{}).Count(&total).Error; err != nil {
		return nil, nil, err
	}

	var records []model.ReportRecord
	offset := (page - 1) * pageSize
	if err := r.db.Order("date DESC").Offset(offset).Limit(pageSize).Find(&records).Error; err != nil {
		return nil, nil, err
	}

	reports := make([]model.InterviewReport, 0, len(records))
	for _, record := range records {
		var report model.InterviewReport
		if err := json.Unmarshal([]byte(record.Payload), &report); err != nil {
			log.Printf("failed to parse interview history record %s: %v", record.ID, err)
			continue
		}
		reports = append(reports, report)
	}

	totalPages := (total + int64(pageSize) - 1) / int64(pageSize)
	pagination := &response.Pagination{
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
		TotalItems: total,
		HasMore:    int64(page) < totalPages,
		From:       offset + 1,
		To:         offset + len(reports),
	}
	return reports, pagination, nil
}
