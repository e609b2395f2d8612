package models

import "time"

// EnrollmentStatus captures the lifecycle of a student-subject link.
// Rows are never deleted; dropping sets the status so attendance history
// keeps its referential integrity.
type EnrollmentStatus string

const (
	EnrollmentStatusActive  EnrollmentStatus = "active"
	EnrollmentStatusDropped EnrollmentStatus = "dropped"
)

// EnrollmentOutcome tells the caller what an enroll/unenroll call did.
type EnrollmentOutcome string

const (
	EnrollmentCreated       EnrollmentOutcome = "created"
	EnrollmentReactivated   EnrollmentOutcome = "reactivated"
	EnrollmentAlreadyActive EnrollmentOutcome = "already_active"
	EnrollmentDropped       EnrollmentOutcome = "dropped"
	EnrollmentNotFound      EnrollmentOutcome = "not_found"
)

// Enrollment links one student to one subject. At most one row exists per
// (student, subject) pair regardless of history.
type Enrollment struct {
	ID           string           `db:"id" json:"id"`
	StudentID    string           `db:"student_id" json:"student_id"`
	SubjectID    string           `db:"subject_id" json:"subject_id"`
	AcademicYear string           `db:"academic_year" json:"academic_year"`
	Status       EnrollmentStatus `db:"status" json:"status"`
	EnrolledAt   time.Time        `db:"enrolled_at" json:"enrolled_at"`
}

// EnrollmentDetail extends the row with student and subject context.
type EnrollmentDetail struct {
	Enrollment
	StudentName   string  `db:"student_name" json:"student_name"`
	StudentRollNo string  `db:"student_roll_no" json:"student_roll_no"`
	SubjectName   *string `db:"subject_name" json:"subject_name,omitempty"`
}
