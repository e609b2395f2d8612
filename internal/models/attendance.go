package models

import "time"

// AttendanceStatus is the per-class mark for one student on one date.
type AttendanceStatus string

const (
	AttendanceStatusPresent AttendanceStatus = "present"
	AttendanceStatusAbsent  AttendanceStatus = "absent"
	AttendanceStatusLate    AttendanceStatus = "late"
)

// Valid returns true when the status is a supported value.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendanceStatusPresent, AttendanceStatusAbsent, AttendanceStatusLate:
		return true
	default:
		return false
	}
}

// AttendanceRecord holds one mark. At most one record exists per
// (student, subject, date); re-marking overwrites.
type AttendanceRecord struct {
	ID        string           `db:"id" json:"id"`
	StudentID string           `db:"student_id" json:"student_id"`
	SubjectID string           `db:"subject_id" json:"subject_id"`
	Date      time.Time        `db:"date" json:"date"`
	Status    AttendanceStatus `db:"status" json:"status"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt time.Time        `db:"updated_at" json:"updated_at"`
}

// AttendanceRecordDetail adds the subject name for display.
type AttendanceRecordDetail struct {
	AttendanceRecord
	SubjectName string `db:"subject_name" json:"subject_name"`
}

// AttendanceFilter narrows attendance queries for one student.
type AttendanceFilter struct {
	StudentID string
	SubjectID string
	DateFrom  *time.Time
	DateTo    *time.Time
}

// SubjectAttendance is the derived per-subject tally. Percentage counts
// only "present" in the numerator; "late" stays in the denominator.
type SubjectAttendance struct {
	SubjectID    string  `db:"subject_id" json:"subject_id"`
	SubjectName  string  `db:"subject_name" json:"subject_name"`
	TotalClasses int     `db:"total_classes" json:"total_classes"`
	Present      int     `db:"present" json:"present"`
	Absent       int     `db:"absent" json:"absent"`
	Late         int     `db:"late" json:"late"`
	Percentage   float64 `db:"-" json:"percentage"`
}

// StudentAttendanceTotals is one roster row of a subject's register:
// raw per-student counts plus the derived percentage.
type StudentAttendanceTotals struct {
	StudentID    string  `db:"student_id" json:"student_id"`
	RollNo       string  `db:"roll_no" json:"roll_no"`
	Name         string  `db:"name" json:"name"`
	TotalClasses int     `db:"total_classes" json:"total_classes"`
	Present      int     `db:"present" json:"present"`
	Absent       int     `db:"absent" json:"absent"`
	Late         int     `db:"late" json:"late"`
	Percentage   float64 `db:"-" json:"percentage"`
}

// AttendanceSummary is the aggregate view returned to dashboards and the
// student attendance page. Percentages are always derived, never stored.
type AttendanceSummary struct {
	OverallPercentage float64                  `json:"overall_percentage"`
	TotalClasses      int                      `json:"total_classes"`
	Present           int                      `json:"present"`
	Absent            int                      `json:"absent"`
	Late              int                      `json:"late"`
	BySubject         []SubjectAttendance      `json:"by_subject"`
	RecentRecords     []AttendanceRecordDetail `json:"recent_records"`
}
