package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// AttendanceStatus represents a single student's status within a session.
type AttendanceStatus string

const (
	StatusPresent AttendanceStatus = "present"
	StatusAbsent  AttendanceStatus = "absent"
	StatusLate    AttendanceStatus = "late"
)

// Valid reports whether the status is a supported value.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case StatusPresent, StatusAbsent, StatusLate:
		return true
	default:
		return false
	}
}

// Attended reports whether the status counts towards attendance. Late arrivals
// still count as attended.
func (s AttendanceStatus) Attended() bool {
	return s == StatusPresent || s == StatusLate
}

// StatusMap maps student IDs to their status for one session. It is stored as
// a jsonb column; the keys are the authoritative roster for that session.
type StatusMap map[string]AttendanceStatus

// Value implements driver.Valuer for jsonb storage.
func (m StatusMap) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner for jsonb retrieval.
func (m *StatusMap) Scan(src interface{}) error {
	if src == nil {
		*m = StatusMap{}
		return nil
	}
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported status map source type %T", src)
	}
	return json.Unmarshal(raw, m)
}

// AttendanceRecord is one submitted attendance sheet: a class session on a
// given date and time slot with per-student statuses. It is append-only and
// keyed uniquely by (class_id, teacher_id, date, time_slot).
type AttendanceRecord struct {
	ID        string    `db:"id" json:"id"`
	ClassID   string    `db:"class_id" json:"classId"`
	TeacherID string    `db:"teacher_id" json:"teacherId"`
	Date      string    `db:"date" json:"date"`
	TimeSlot  *string   `db:"time_slot" json:"timeSlot,omitempty"`
	Records   StatusMap `db:"records" json:"records"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
