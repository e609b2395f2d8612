package models

// Subject is a taught course, scoped to a department and semester.
type Subject struct {
	ID         string  `db:"id" json:"id"`
	Name       string  `db:"name" json:"name"`
	Department *string `db:"department" json:"department,omitempty"`
	Semester   *int    `db:"semester" json:"semester,omitempty"`
	FacultyID  string  `db:"faculty_id" json:"faculty_id"`
}

// SubjectDetail adds the owning faculty name and enrollment count.
type SubjectDetail struct {
	Subject
	FacultyName   *string `db:"faculty_name" json:"faculty_name,omitempty"`
	EnrolledCount int     `db:"enrolled_count" json:"enrolled_count"`
}
