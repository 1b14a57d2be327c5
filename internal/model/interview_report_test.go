package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reportOn(date string, overall float64, sections ...ReportSection) InterviewReport {
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		panic(err)
	}
	return InterviewReport{Sections: sections, OverallScore: overall, Date: d}
}

func TestSortReportsByDate_NewestFirst(t *testing.T) {
	history := []InterviewReport{
		reportOn("2024-01-01", 5.0),
		reportOn("2024-03-01", 7.0),
		reportOn("2024-02-01", 6.0),
	}

	SortReportsByDate(history)

	assert.Equal(t, 7.0, history[0].OverallScore)
	assert.Equal(t, 6.0, history[1].OverallScore)
	assert.Equal(t, 5.0, history[2].OverallScore)
}

func TestSortReportsByDate_StableForEqualDates(t *testing.T) {
	first := reportOn("2024-02-01", 1.0)
	second := reportOn("2024-02-01", 2.0)
	history := []InterviewReport{first, second}

	SortReportsByDate(history)

	assert.Equal(t, 1.0, history[0].OverallScore, "equal dates keep their original order")
	assert.Equal(t, 2.0, history[1].OverallScore)
}

func TestMostRecent(t *testing.T) {
	t.Run("empty history", func(t *testing.T) {
		assert.Nil(t, MostRecent(nil))
		assert.Nil(t, MostRecent([]InterviewReport{}))
	})

	t.Run("returns head of sorted history", func(t *testing.T) {
		history := []InterviewReport{
			reportOn("2024-03-01", 8.0),
			reportOn("2024-01-01", 4.0),
		}
		latest := MostRecent(history)
		require.NotNil(t, latest)
		assert.Equal(t, 8.0, latest.OverallScore)
	})
}

func TestSectionDelta(t *testing.T) {
	previous := reportOn("2024-01-01", 5.0,
		ReportSection{Category: CategoryHR, Score: 5.0},
		ReportSection{Category: CategoryTechnical, Score: 4.0},
	)
	latest := reportOn("2024-02-01", 7.0,
		ReportSection{Category: CategoryHR, Score: 6.5},
		ReportSection{Category: CategoryTechnical, Score: 7.0},
		ReportSection{Category: CategoryBehavioral, Score: 8.0},
	)

	assert.InDelta(t, 1.5, SectionDelta(&latest, &previous, CategoryHR), 1e-9)
	assert.InDelta(t, 3.0, SectionDelta(&latest, &previous, CategoryTechnical), 1e-9)

	t.Run("category missing from previous report", func(t *testing.T) {
		assert.Zero(t, SectionDelta(&latest, &previous, CategoryBehavioral))
	})

	t.Run("nil reports", func(t *testing.T) {
		assert.Zero(t, SectionDelta(nil, &previous, CategoryHR))
		assert.Zero(t, SectionDelta(&latest, nil, CategoryHR))
	})
}

func TestOverallDelta(t *testing.T) {
	previous := reportOn("2024-01-01", 5.5)
	latest := reportOn("2024-02-01", 7.0)

	assert.InDelta(t, 1.5, OverallDelta(&latest, &previous), 1e-9)
	assert.Zero(t, OverallDelta(&latest, nil))
	assert.Zero(t, OverallDelta(nil, &previous))
}

func TestExpectedCategories_Order(t *testing.T) {
	assert.Equal(t, []string{CategoryHR, CategoryTechnical, CategoryBehavioral}, ExpectedCategories())
}
