package models

// PerStudentSummary tallies one student's sessions within a class. Percentage
// is an integer in [0,100], rounded half up from (present+late)/total.
type PerStudentSummary struct {
	StudentID  string `json:"studentId"`
	Present    int    `json:"present"`
	Absent     int    `json:"absent"`
	Late       int    `json:"late"`
	Total      int    `json:"total"`
	Percentage int    `json:"percentage"`
}

// LowAttendanceStudent flags a student whose percentage fell below the
// configured threshold.
type LowAttendanceStudent struct {
	StudentID  string `json:"studentId"`
	Percentage int    `json:"percentage"`
}

// ClassAggregate is the raw outcome of aggregating a class's records.
type ClassAggregate struct {
	OverallPercentage     int                    `json:"overallPercentage"`
	LowAttendanceStudents []LowAttendanceStudent `json:"lowAttendanceStudents"`
	PerStudentStats       []PerStudentSummary    `json:"perStudentStats"`
}

// ClassReport is the user-facing report: the aggregate plus narrative insight
// lines.
type ClassReport struct {
	OverallPercentage     int                    `json:"overallPercentage"`
	LowAttendanceStudents []LowAttendanceStudent `json:"lowAttendanceStudents"`
	Insights              []string               `json:"insights"`
}

// DatedStatus is one session entry in a student's per-class history.
type DatedStatus struct {
	Date   string           `json:"date"`
	Status AttendanceStatus `json:"status"`
}

// StudentClassSummary reports a student's attendance within one class. Entries
// where the student's ID is absent from a record's status map are excluded
// rather than counted as absent.
type StudentClassSummary struct {
	ClassInfo Class             `json:"classInfo"`
	Records   []DatedStatus     `json:"records"`
	Summary   PerStudentSummary `json:"summary"`
}
