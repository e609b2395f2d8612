package models

import "time"

// NotificationCategory classifies what produced a notification.
type NotificationCategory string

const (
	CategoryAnnouncement NotificationCategory = "announcement"
	CategoryEvent        NotificationCategory = "event"
	CategoryAttendance   NotificationCategory = "attendance"
	CategoryAssignment   NotificationCategory = "assignment"
	CategorySystem       NotificationCategory = "system"
)

func (c NotificationCategory) Valid() bool {
	switch c {
	case CategoryAnnouncement, CategoryEvent, CategoryAttendance, CategoryAssignment, CategorySystem:
		return true
	}
	return false
}

// Notification is one in-app message addressed to a single recipient.
type Notification struct {
	ID            string               `db:"id" json:"id"`
	RecipientID   string               `db:"recipient_id" json:"recipient_id"`
	RecipientRole UserRole             `db:"recipient_role" json:"recipient_role"`
	Title         string               `db:"title" json:"title"`
	Message       string               `db:"message" json:"message"`
	Category      NotificationCategory `db:"category" json:"category"`
	Link          *string              `db:"link" json:"link,omitempty"`
	Read          bool                 `db:"read" json:"read"`
	CreatedAt     time.Time            `db:"created_at" json:"created_at"`
}

// EmailResult reports the best-effort email leg of a fan-out.
type EmailResult struct {
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
}

// FanOutResult summarizes one broadcast: how many in-app rows were
// written and how the optional email delivery went.
type FanOutResult struct {
	InAppNotified int         `json:"in_app_notified"`
	Email         EmailResult `json:"email"`
}
