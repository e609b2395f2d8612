package models

// TimetableSlot is one recurring teaching slot. DayOfWeek follows
// time.Weekday numbering, Sunday = 0.
type TimetableSlot struct {
	ID         string `db:"id" json:"id"`
	Department string `db:"department" json:"department"`
	Semester   int    `db:"semester" json:"semester"`
	DayOfWeek  int    `db:"day_of_week" json:"day_of_week"`
	SubjectID  string `db:"subject_id" json:"subject_id"`
	FacultyID  string `db:"faculty_id" json:"faculty_id"`
	TimeSlot   string `db:"time_slot" json:"time_slot"`
}

// TimetableSlotDetail joins in display names for dashboard rendering.
type TimetableSlotDetail struct {
	TimetableSlot
	SubjectName string `db:"subject_name" json:"subject_name"`
	FacultyName string `db:"faculty_name" json:"faculty_name"`
}
