package models

// StudentDashboard aggregates everything the student landing page shows.
type StudentDashboard struct {
	Student          Student               `json:"student"`
	Attendance       AttendanceSummary     `json:"attendance"`
	PendingWork      []PendingAssignment   `json:"pending_assignments"`
	RecentGrades     []GradedSubmission    `json:"recent_grades"`
	TodaysTimetable  []TimetableSlotDetail `json:"todays_timetable"`
	UnreadCount      int                   `json:"unread_notifications"`
	UpcomingEvents   []Event               `json:"upcoming_events"`
	EnrolledSubjects []SubjectAttendance   `json:"enrolled_subjects"`
}

// FacultySubjectSummary is one owned subject with its headcount.
type FacultySubjectSummary struct {
	SubjectID     string `db:"subject_id" json:"subject_id"`
	SubjectName   string `db:"subject_name" json:"subject_name"`
	EnrolledCount int    `db:"enrolled_count" json:"enrolled_count"`
}

// FacultyDashboard aggregates the faculty landing page.
type FacultyDashboard struct {
	Faculty         Faculty                 `json:"faculty"`
	Subjects        []FacultySubjectSummary `json:"subjects"`
	TotalStudents   int                     `json:"total_students"`
	UngradedWork    []UngradedCount         `json:"ungraded_submissions"`
	TodaysTimetable []TimetableSlotDetail   `json:"todays_timetable"`
	UnreadCount     int                     `json:"unread_notifications"`
}
