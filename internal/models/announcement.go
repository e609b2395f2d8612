package models

import "time"

// Announcement is a faculty-authored notice broadcast to students.
type Announcement struct {
	ID        string     `db:"id" json:"id"`
	Title     string     `db:"title" json:"title"`
	Message   string     `db:"message" json:"message"`
	AuthorID  string     `db:"author_id" json:"author_id"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	ExpiresAt *time.Time `db:"expires_at" json:"expires_at,omitempty"`
}
