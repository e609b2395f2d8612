package models

import "time"

// Faculty is a teaching staff account. Each subject is owned by exactly
// one faculty member.
type Faculty struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Department   *string   `db:"department" json:"department,omitempty"`
	Designation  *string   `db:"designation" json:"designation,omitempty"`
	Phone        *string   `db:"phone" json:"phone,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
