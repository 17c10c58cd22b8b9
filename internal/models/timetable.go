package models

import "time"

// DayOfWeek is the closed weekday enumeration used by schedule templates.
type DayOfWeek string

const (
	Monday    DayOfWeek = "Monday"
	Tuesday   DayOfWeek = "Tuesday"
	Wednesday DayOfWeek = "Wednesday"
	Thursday  DayOfWeek = "Thursday"
	Friday    DayOfWeek = "Friday"
	Saturday  DayOfWeek = "Saturday"
	Sunday    DayOfWeek = "Sunday"
)

// Valid reports whether the value is one of the seven weekday names.
func (d DayOfWeek) Valid() bool {
	switch d {
	case Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday:
		return true
	default:
		return false
	}
}

// WeekdayName returns the DayOfWeek for a calendar date.
func WeekdayName(t time.Time) DayOfWeek {
	return DayOfWeek(t.Weekday().String())
}

// Timetable is a schedule template for a class. A template with a Date set
// represents a single one-off session; without one it recurs weekly on
// DayOfWeek. StartTime and EndTime are HH:MM strings and are carried through
// verbatim into the "HH:MM - HH:MM" slot label.
type Timetable struct {
	ID        string    `db:"id" json:"id"`
	ClassID   string    `db:"class_id" json:"classId"`
	TeacherID string    `db:"teacher_id" json:"teacherId"`
	DayOfWeek DayOfWeek `db:"day_of_week" json:"dayOfWeek"`
	StartTime string    `db:"start_time" json:"startTime"`
	EndTime   string    `db:"end_time" json:"endTime"`
	Date      *string   `db:"date" json:"date,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// SlotLabel renders the template's time range in display form.
func (t *Timetable) SlotLabel() string {
	return t.StartTime + " - " + t.EndTime
}

// TimetableFilter captures filtering criteria for listing schedule templates.
type TimetableFilter struct {
	ClassID   string
	TeacherID string
	DayOfWeek string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
