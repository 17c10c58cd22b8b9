package service

import (
	"sort"
	"time"

	"github.com/presenza/attendance-api/internal/models"
)

const dateLayout = "2006-01-02"

// DefaultHorizonDays bounds how far ahead recurring templates produce session
// dates.
const DefaultHorizonDays = 30

// ResolveAvailableDates produces the concrete session dates a class can take
// attendance for, as ISO date strings, deduplicated and ascending. Templates
// carrying an explicit date are included whenever that date is today or later,
// even beyond the horizon; recurring templates contribute every matching
// weekday within horizonDays starting from today. Dates before today are
// never returned.
func ResolveAvailableDates(templates []models.Timetable, classID string, horizonDays int, today time.Time) []string {
	if horizonDays <= 0 {
		horizonDays = DefaultHorizonDays
	}
	todayStr := today.Format(dateLayout)

	seen := make(map[string]struct{})
	for _, tpl := range templates {
		if tpl.ClassID != classID {
			continue
		}
		if tpl.Date != nil {
			if *tpl.Date >= todayStr {
				seen[*tpl.Date] = struct{}{}
			}
			continue
		}
		for offset := 0; offset < horizonDays; offset++ {
			day := today.AddDate(0, 0, offset)
			if models.WeekdayName(day) == tpl.DayOfWeek {
				seen[day.Format(dateLayout)] = struct{}{}
			}
		}
	}

	dates := make([]string, 0, len(seen))
	for date := range seen {
		dates = append(dates, date)
	}
	// ISO dates sort lexicographically in chronological order.
	sort.Strings(dates)
	return dates
}

// ResolveTimeSlotsForDate returns the distinct "HH:MM - HH:MM" slot labels
// applicable for a class on the given date. A template matches when its
// explicit date equals the requested date, or when it has no date and recurs
// on that date's weekday. Labels keep template order; identical labels
// collapse.
func ResolveTimeSlotsForDate(templates []models.Timetable, classID, date string) []string {
	var weekday models.DayOfWeek
	if parsed, err := time.Parse(dateLayout, date); err == nil {
		weekday = models.WeekdayName(parsed)
	}

	slots := make([]string, 0, len(templates))
	seen := make(map[string]struct{})
	for _, tpl := range templates {
		if tpl.ClassID != classID {
			continue
		}
		matches := false
		if tpl.Date != nil {
			matches = *tpl.Date == date
		} else {
			matches = weekday != "" && tpl.DayOfWeek == weekday
		}
		if !matches {
			continue
		}
		label := tpl.SlotLabel()
		if _, ok := seen[label]; ok {
			continue
		}
		seen[label] = struct{}{}
		slots = append(slots, label)
	}
	return slots
}
