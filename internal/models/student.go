package models

import "time"

// Student is a portal account owned by an enrolled student.
type Student struct {
	ID                 string    `db:"id" json:"id"`
	RollNo             string    `db:"roll_no" json:"roll_no"`
	Name               string    `db:"name" json:"name"`
	Email              string    `db:"email" json:"email"`
	PasswordHash       string    `db:"password_hash" json:"-"`
	Department         *string   `db:"department" json:"department,omitempty"`
	Semester           *int      `db:"semester" json:"semester,omitempty"`
	Phone              *string   `db:"phone" json:"phone,omitempty"`
	Active             bool      `db:"active" json:"active"`
	EmailNotifications bool      `db:"email_notifications" json:"email_notifications"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
}

// StudentFilter narrows student listings.
type StudentFilter struct {
	Department string
	Semester   *int
	Active     *bool
	Page       int
	PageSize   int
}
