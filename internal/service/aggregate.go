package service

import (
	"math"
	"sort"

	"github.com/presenza/attendance-api/internal/models"
)

// DefaultLowAttendanceThreshold is the percentage below which a student is
// flagged in class reports.
const DefaultLowAttendanceThreshold = 75

// percent computes round-half-up integer percentage of part over total.
func percent(part, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(100 * float64(part) / float64(total)))
}

// AggregateClass tallies every (student, status) entry across a class's
// attendance records and derives the class-wide aggregate. A student's
// percentage counts present and late as attended; students with no entries
// default to 0% in this class-wide variant (the student-facing view in
// AggregateStudent defaults to 100% instead — the divergence is intentional).
// Flagged students are sorted ascending by percentage, ties keeping
// first-seen order.
func AggregateClass(records []models.AttendanceRecord, lowThreshold int) models.ClassAggregate {
	if lowThreshold <= 0 {
		lowThreshold = DefaultLowAttendanceThreshold
	}

	type counters struct {
		present, absent, late, total int
	}
	stats := make(map[string]*counters)
	var order []string
	totalEntries := 0
	totalAttended := 0

	for _, record := range records {
		// Map key order is not deterministic; walk the session roster
		// sorted so first-seen order is stable across runs.
		studentIDs := make([]string, 0, len(record.Records))
		for studentID := range record.Records {
			studentIDs = append(studentIDs, studentID)
		}
		sort.Strings(studentIDs)

		for _, studentID := range studentIDs {
			status := record.Records[studentID]
			c, ok := stats[studentID]
			if !ok {
				c = &counters{}
				stats[studentID] = c
				order = append(order, studentID)
			}
			switch status {
			case models.StatusPresent:
				c.present++
			case models.StatusAbsent:
				c.absent++
			case models.StatusLate:
				c.late++
			}
			c.total++
			totalEntries++
			if status.Attended() {
				totalAttended++
			}
		}
	}

	aggregate := models.ClassAggregate{
		OverallPercentage:     percent(totalAttended, totalEntries),
		LowAttendanceStudents: []models.LowAttendanceStudent{},
		PerStudentStats:       make([]models.PerStudentSummary, 0, len(order)),
	}

	for _, studentID := range order {
		c := stats[studentID]
		summary := models.PerStudentSummary{
			StudentID:  studentID,
			Present:    c.present,
			Absent:     c.absent,
			Late:       c.late,
			Total:      c.total,
			Percentage: percent(c.present+c.late, c.total),
		}
		aggregate.PerStudentStats = append(aggregate.PerStudentStats, summary)
		if summary.Percentage < lowThreshold {
			aggregate.LowAttendanceStudents = append(aggregate.LowAttendanceStudents, models.LowAttendanceStudent{
				StudentID:  studentID,
				Percentage: summary.Percentage,
			})
		}
	}

	sort.SliceStable(aggregate.LowAttendanceStudents, func(i, j int) bool {
		return aggregate.LowAttendanceStudents[i].Percentage < aggregate.LowAttendanceStudents[j].Percentage
	})

	return aggregate
}

// AggregateStudent summarises one student's attendance across their enrolled
// classes. A record contributes to a class only when the student's ID is a
// key in its status map — a missing key means the student was not part of
// that session and it is excluded, not counted as absent. Per-class records
// are sorted most recent first. A class with no entries for the student
// reports 100%, the student-facing default.
func AggregateStudent(classes []models.Class, records []models.AttendanceRecord, studentID string) []models.StudentClassSummary {
	summaries := make([]models.StudentClassSummary, 0, len(classes))
	for _, class := range classes {
		entry := models.StudentClassSummary{
			ClassInfo: class,
			Records:   []models.DatedStatus{},
		}
		for _, record := range records {
			if record.ClassID != class.ID {
				continue
			}
			status, ok := record.Records[studentID]
			if !ok {
				continue
			}
			entry.Records = append(entry.Records, models.DatedStatus{Date: record.Date, Status: status})
			switch status {
			case models.StatusPresent:
				entry.Summary.Present++
			case models.StatusAbsent:
				entry.Summary.Absent++
			case models.StatusLate:
				entry.Summary.Late++
			}
			entry.Summary.Total++
		}

		sort.SliceStable(entry.Records, func(i, j int) bool {
			return entry.Records[i].Date > entry.Records[j].Date
		})

		entry.Summary.StudentID = studentID
		if entry.Summary.Total > 0 {
			entry.Summary.Percentage = percent(entry.Summary.Present+entry.Summary.Late, entry.Summary.Total)
		} else {
			entry.Summary.Percentage = 100
		}
		summaries = append(summaries, entry)
	}
	return summaries
}
