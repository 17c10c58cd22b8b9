package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/presenza/attendance-api/internal/models"
)

func record(classID, date string, statuses map[string]models.AttendanceStatus) models.AttendanceRecord {
	return models.AttendanceRecord{ClassID: classID, Date: date, Records: statuses}
}

func TestAggregateClassBasic(t *testing.T) {
	records := []models.AttendanceRecord{
		record("c1", "2025-01-06", map[string]models.AttendanceStatus{
			"s1": models.StatusPresent,
			"s2": models.StatusAbsent,
		}),
		record("c1", "2025-01-07", map[string]models.AttendanceStatus{
			"s1": models.StatusLate,
			"s2": models.StatusPresent,
		}),
	}

	agg := AggregateClass(records, 75)

	// s1 attended 2/2, s2 attended 1/2, overall 3/4
	assert.Equal(t, 75, agg.OverallPercentage)
	require.Len(t, agg.PerStudentStats, 2)
	assert.Equal(t, 100, agg.PerStudentStats[0].Percentage)
	assert.Equal(t, 50, agg.PerStudentStats[1].Percentage)

	require.Len(t, agg.LowAttendanceStudents, 1)
	assert.Equal(t, "s2", agg.LowAttendanceStudents[0].StudentID)
	assert.Equal(t, 50, agg.LowAttendanceStudents[0].Percentage)
}

func TestAggregateClassEmpty(t *testing.T) {
	agg := AggregateClass(nil, 75)

	assert.Equal(t, 0, agg.OverallPercentage)
	assert.Empty(t, agg.LowAttendanceStudents)
	assert.Empty(t, agg.PerStudentStats)
	assert.NotNil(t, agg.LowAttendanceStudents)
}

func TestAggregateClassRoundsHalfUp(t *testing.T) {
	// 1 of 3 attended: 33.33 -> 33; 2 of 3: 66.67 -> 67
	records := []models.AttendanceRecord{
		record("c1", "2025-01-06", map[string]models.AttendanceStatus{
			"s1": models.StatusPresent, "s2": models.StatusAbsent,
		}),
		record("c1", "2025-01-07", map[string]models.AttendanceStatus{
			"s1": models.StatusAbsent, "s2": models.StatusPresent,
		}),
		record("c1", "2025-01-08", map[string]models.AttendanceStatus{
			"s1": models.StatusAbsent, "s2": models.StatusLate,
		}),
	}

	agg := AggregateClass(records, 75)

	assert.Equal(t, 50, agg.OverallPercentage)
	assert.Equal(t, 33, agg.PerStudentStats[0].Percentage)
	assert.Equal(t, 67, agg.PerStudentStats[1].Percentage)
}

func TestAggregateClassLowAttendanceSortedAscending(t *testing.T) {
	records := []models.AttendanceRecord{
		record("c1", "2025-01-06", map[string]models.AttendanceStatus{
			"s1": models.StatusAbsent,
			"s2": models.StatusPresent,
			"s3": models.StatusAbsent,
		}),
		record("c1", "2025-01-07", map[string]models.AttendanceStatus{
			"s1": models.StatusPresent,
			"s2": models.StatusAbsent,
			"s3": models.StatusAbsent,
		}),
	}

	agg := AggregateClass(records, 75)

	require.Len(t, agg.LowAttendanceStudents, 3)
	assert.Equal(t, "s3", agg.LowAttendanceStudents[0].StudentID) // 0%
	// s1 and s2 tie at 50%; first-seen order breaks the tie
	assert.Equal(t, "s1", agg.LowAttendanceStudents[1].StudentID)
	assert.Equal(t, "s2", agg.LowAttendanceStudents[2].StudentID)
}

func TestAggregateClassIdempotent(t *testing.T) {
	records := []models.AttendanceRecord{
		record("c1", "2025-01-06", map[string]models.AttendanceStatus{
			"s1": models.StatusPresent,
			"s2": models.StatusLate,
			"s3": models.StatusAbsent,
		}),
	}

	first := AggregateClass(records, 75)
	second := AggregateClass(records, 75)
	assert.Equal(t, first, second)
}

func TestAggregateStudentCrossClass(t *testing.T) {
	classes := []models.Class{
		{ID: "c1", Name: "Math"},
		{ID: "c2", Name: "Physics"},
	}
	records := []models.AttendanceRecord{
		record("c1", "2025-01-06", map[string]models.AttendanceStatus{"s1": models.StatusPresent}),
		record("c1", "2025-01-13", map[string]models.AttendanceStatus{"s1": models.StatusAbsent}),
		record("c2", "2025-01-07", map[string]models.AttendanceStatus{"s1": models.StatusLate}),
	}

	summaries := AggregateStudent(classes, records, "s1")

	require.Len(t, summaries, 2)
	assert.Equal(t, "Math", summaries[0].ClassInfo.Name)
	assert.Equal(t, 50, summaries[0].Summary.Percentage)
	// most recent first
	assert.Equal(t, "2025-01-13", summaries[0].Records[0].Date)
	assert.Equal(t, "2025-01-06", summaries[0].Records[1].Date)

	assert.Equal(t, 100, summaries[1].Summary.Percentage)
	assert.Equal(t, 1, summaries[1].Summary.Late)
}

func TestAggregateStudentMissingKeyExcluded(t *testing.T) {
	classes := []models.Class{{ID: "c1"}}
	records := []models.AttendanceRecord{
		record("c1", "2025-01-06", map[string]models.AttendanceStatus{"other": models.StatusPresent}),
	}

	summaries := AggregateStudent(classes, records, "s1")

	require.Len(t, summaries, 1)
	assert.Empty(t, summaries[0].Records)
	assert.Equal(t, 0, summaries[0].Summary.Total)
	// student-facing default with no history
	assert.Equal(t, 100, summaries[0].Summary.Percentage)
}

func TestAggregateStudentNoClasses(t *testing.T) {
	summaries := AggregateStudent(nil, nil, "s1")
	assert.Empty(t, summaries)
	assert.NotNil(t, summaries)
}
