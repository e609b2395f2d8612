package models

import "time"

// Assignment is coursework posted by faculty for a subject.
type Assignment struct {
	ID          string     `db:"id" json:"id"`
	SubjectID   string     `db:"subject_id" json:"subject_id"`
	Title       string     `db:"title" json:"title"`
	Description *string    `db:"description" json:"description,omitempty"`
	DueDate     *time.Time `db:"due_date" json:"due_date,omitempty"`
	MaxMarks    *int       `db:"max_marks" json:"max_marks,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
}

// Submission is one student's answer to an assignment.
type Submission struct {
	ID           string     `db:"id" json:"id"`
	AssignmentID string     `db:"assignment_id" json:"assignment_id"`
	StudentID    string     `db:"student_id" json:"student_id"`
	Content      *string    `db:"content" json:"content,omitempty"`
	FileURL      *string    `db:"file_url" json:"file_url,omitempty"`
	SubmittedAt  time.Time  `db:"submitted_at" json:"submitted_at"`
	Marks        *int       `db:"marks" json:"marks,omitempty"`
	Feedback     *string    `db:"feedback" json:"feedback,omitempty"`
	GradedAt     *time.Time `db:"graded_at" json:"graded_at,omitempty"`
}

// PendingAssignment is an assignment with a future due date that the
// student has not submitted yet.
type PendingAssignment struct {
	ID          string     `db:"id" json:"id"`
	SubjectID   string     `db:"subject_id" json:"subject_id"`
	SubjectName string     `db:"subject_name" json:"subject_name"`
	Title       string     `db:"title" json:"title"`
	DueDate     *time.Time `db:"due_date" json:"due_date,omitempty"`
	MaxMarks    *int       `db:"max_marks" json:"max_marks,omitempty"`
}

// GradedSubmission is a recently graded submission for the student view.
type GradedSubmission struct {
	SubmissionID    string     `db:"submission_id" json:"submission_id"`
	AssignmentTitle string     `db:"assignment_title" json:"assignment_title"`
	SubjectName     string     `db:"subject_name" json:"subject_name"`
	Marks           *int       `db:"marks" json:"marks,omitempty"`
	MaxMarks        *int       `db:"max_marks" json:"max_marks,omitempty"`
	Feedback        *string    `db:"feedback" json:"feedback,omitempty"`
	GradedAt        *time.Time `db:"graded_at" json:"graded_at,omitempty"`
}

// UngradedCount reports how many submissions still need grading per
// assignment for the faculty view.
type UngradedCount struct {
	AssignmentID    string `db:"assignment_id" json:"assignment_id"`
	AssignmentTitle string `db:"assignment_title" json:"assignment_title"`
	SubjectName     string `db:"subject_name" json:"subject_name"`
	Ungraded        int    `db:"ungraded" json:"ungraded"`
}
