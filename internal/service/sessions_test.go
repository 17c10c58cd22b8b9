package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/presenza/attendance-api/internal/models"
)

func recurring(classID string, day models.DayOfWeek, start, end string) models.Timetable {
	return models.Timetable{ClassID: classID, DayOfWeek: day, StartTime: start, EndTime: end}
}

func oneOff(classID string, day models.DayOfWeek, date, start, end string) models.Timetable {
	return models.Timetable{ClassID: classID, DayOfWeek: day, Date: &date, StartTime: start, EndTime: end}
}

// 2025-01-06 is a Monday.
var monday = time.Date(2025, 1, 6, 8, 0, 0, 0, time.UTC)

func TestResolveAvailableDatesRecurring(t *testing.T) {
	templates := []models.Timetable{
		recurring("c1", models.Monday, "08:00", "09:00"),
	}

	dates := ResolveAvailableDates(templates, "c1", 7, monday)
	assert.Equal(t, []string{"2025-01-06"}, dates)

	dates = ResolveAvailableDates(templates, "c1", 14, monday)
	assert.Equal(t, []string{"2025-01-06", "2025-01-13"}, dates)
}

func TestResolveAvailableDatesNeverBeforeToday(t *testing.T) {
	templates := []models.Timetable{
		oneOff("c1", models.Sunday, "2025-01-05", "08:00", "09:00"),
		oneOff("c1", models.Monday, "2025-01-06", "08:00", "09:00"),
	}

	dates := ResolveAvailableDates(templates, "c1", 7, monday)
	assert.Equal(t, []string{"2025-01-06"}, dates)
}

func TestResolveAvailableDatesOneOffBeyondHorizon(t *testing.T) {
	templates := []models.Timetable{
		oneOff("c1", models.Sunday, "2025-06-01", "08:00", "09:00"),
	}

	dates := ResolveAvailableDates(templates, "c1", 7, monday)
	assert.Equal(t, []string{"2025-06-01"}, dates)
}

func TestResolveAvailableDatesDedupe(t *testing.T) {
	templates := []models.Timetable{
		recurring("c1", models.Monday, "08:00", "09:00"),
		oneOff("c1", models.Monday, "2025-01-06", "10:00", "11:00"),
		recurring("c1", models.Monday, "13:00", "14:00"),
	}

	dates := ResolveAvailableDates(templates, "c1", 7, monday)
	assert.Equal(t, []string{"2025-01-06"}, dates)
}

func TestResolveAvailableDatesFiltersClass(t *testing.T) {
	templates := []models.Timetable{
		recurring("other", models.Monday, "08:00", "09:00"),
	}

	dates := ResolveAvailableDates(templates, "c1", 7, monday)
	assert.Empty(t, dates)
}

func TestResolveAvailableDatesSortedAscending(t *testing.T) {
	templates := []models.Timetable{
		oneOff("c1", models.Friday, "2025-02-28", "08:00", "09:00"),
		recurring("c1", models.Wednesday, "08:00", "09:00"),
		recurring("c1", models.Monday, "08:00", "09:00"),
	}

	dates := ResolveAvailableDates(templates, "c1", 10, monday)
	assert.Equal(t, []string{"2025-01-06", "2025-01-08", "2025-01-13", "2025-01-15", "2025-02-28"}, dates)
}

func TestResolveAvailableDatesDefaultHorizon(t *testing.T) {
	templates := []models.Timetable{
		recurring("c1", models.Monday, "08:00", "09:00"),
	}

	dates := ResolveAvailableDates(templates, "c1", 0, monday)
	assert.Len(t, dates, 5) // five Mondays in 30 days starting on one
}

func TestResolveTimeSlotsTwoTemplatesSameWeekday(t *testing.T) {
	templates := []models.Timetable{
		recurring("c1", models.Monday, "08:00", "09:00"),
		recurring("c1", models.Monday, "10:00", "11:00"),
	}

	slots := ResolveTimeSlotsForDate(templates, "c1", "2025-01-06")
	assert.Equal(t, []string{"08:00 - 09:00", "10:00 - 11:00"}, slots)
}

func TestResolveTimeSlotsCollapseDuplicates(t *testing.T) {
	templates := []models.Timetable{
		recurring("c1", models.Monday, "08:00", "09:00"),
		oneOff("c1", models.Monday, "2025-01-06", "08:00", "09:00"),
	}

	slots := ResolveTimeSlotsForDate(templates, "c1", "2025-01-06")
	assert.Equal(t, []string{"08:00 - 09:00"}, slots)
}

func TestResolveTimeSlotsOneOffOverridesWeekday(t *testing.T) {
	// the template's weekday field disagrees with the date; the explicit
	// date wins
	templates := []models.Timetable{
		oneOff("c1", models.Friday, "2025-01-06", "10:00", "11:00"),
	}

	slots := ResolveTimeSlotsForDate(templates, "c1", "2025-01-06")
	assert.Equal(t, []string{"10:00 - 11:00"}, slots)
}

func TestResolveTimeSlotsUnparsableDate(t *testing.T) {
	templates := []models.Timetable{
		recurring("c1", models.Monday, "08:00", "09:00"),
		oneOff("c1", models.Monday, "not-a-date", "10:00", "11:00"),
	}

	slots := ResolveTimeSlotsForDate(templates, "c1", "not-a-date")
	assert.Equal(t, []string{"10:00 - 11:00"}, slots)
}

func TestResolveTimeSlotsEmpty(t *testing.T) {
	slots := ResolveTimeSlotsForDate(nil, "c1", "2025-01-06")
	assert.Empty(t, slots)
}
