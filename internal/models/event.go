package models

import "time"

// Event is a scheduled campus event authored by faculty.
type Event struct {
	ID          string     `db:"id" json:"id"`
	Title       string     `db:"title" json:"title"`
	Description string     `db:"description" json:"description"`
	StartTime   time.Time  `db:"start_time" json:"start_time"`
	EndTime     *time.Time `db:"end_time" json:"end_time,omitempty"`
	Location    *string    `db:"location" json:"location,omitempty"`
	CreatedBy   string     `db:"created_by" json:"created_by"`
}

// EventDetail carries the RSVP count alongside the event.
type EventDetail struct {
	Event
	RegistrationCount int `db:"registration_count" json:"registration_count"`
}

// EventRegistration records one student's RSVP; unique per (event, student).
type EventRegistration struct {
	ID           string    `db:"id" json:"id"`
	EventID      string    `db:"event_id" json:"event_id"`
	StudentID    string    `db:"student_id" json:"student_id"`
	RegisteredAt time.Time `db:"registered_at" json:"registered_at"`
}

// EventRegistrationDetail adds student context for faculty views.
type EventRegistrationDetail struct {
	EventRegistration
	StudentName   string `db:"student_name" json:"student_name"`
	StudentRollNo string `db:"student_roll_no" json:"student_roll_no"`
}
