package models

import (
	"time"

	"github.com/lib/pq"
)

// Class represents a class and its enrolled student roster.
type Class struct {
	ID         string         `db:"id" json:"id"`
	Name       string         `db:"name" json:"name"`
	Code       string         `db:"code" json:"code"`
	StudentIDs pq.StringArray `db:"student_ids" json:"studentIds"`
	CreatedAt  time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time      `db:"updated_at" json:"updated_at"`
}

// HasStudent reports whether the student is on the roster.
func (c *Class) HasStudent(studentID string) bool {
	for _, id := range c.StudentIDs {
		if id == studentID {
			return true
		}
	}
	return false
}

// ClassFilter captures filtering criteria for listing classes.
type ClassFilter struct {
	Search    string
	StudentID string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
