package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/gecr-dev/campus-api/internal/models"
)

// NotificationRepository handles persistence of in-app notifications.
type NotificationRepository struct {
	db *sqlx.DB
}

// NewNotificationRepository constructs the repository.
func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create persists a single notification.
func (r *NotificationRepository) Create(ctx context.Context, notification *models.Notification) error {
	if notification.ID == "" {
		notification.ID = uuid.NewString()
	}
	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO notifications (id, recipient_id, recipient_role, title, message, category, link, read, created_at)
        VALUES (:id, :recipient_id, :recipient_role, :title, :message, :category, :link, :read, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, notification); err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

// BulkInsert writes a batch of notifications atomically. Either every
// recipient gets a row or none do; a fan-out never half-lands.
func (r *NotificationRepository) BulkInsert(ctx context.Context, notifications []models.Notification) (int, error) {
	if len(notifications) == 0 {
		return 0, nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin notification tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	const chunkSize = 500
	for start := 0; start < len(notifications); start += chunkSize {
		end := start + chunkSize
		if end > len(notifications) {
			end = len(notifications)
		}
		chunk := notifications[start:end]

		placeholders := make([]string, 0, len(chunk))
		args := make([]interface{}, 0, len(chunk)*9)
		for i := range chunk {
			n := &chunk[i]
			if n.ID == "" {
				n.ID = uuid.NewString()
			}
			if n.CreatedAt.IsZero() {
				n.CreatedAt = now
			}
			base := len(args)
			placeholders = append(placeholders, fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
				base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8, base+9))
			args = append(args, n.ID, n.RecipientID, n.RecipientRole, n.Title, n.Message, n.Category, n.Link, n.Read, n.CreatedAt)
		}

		query := `INSERT INTO notifications (id, recipient_id, recipient_role, title, message, category, link, read, created_at) VALUES ` +
			strings.Join(placeholders, ", ")
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return 0, fmt.Errorf("bulk insert notifications: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit notification batch: %w", err)
	}
	committed = true
	return len(notifications), nil
}

// List returns a recipient's notifications newest first, optionally
// restricted to unread ones.
func (r *NotificationRepository) List(ctx context.Context, recipientID string, role models.UserRole, unreadOnly bool, page, pageSize int) ([]models.Notification, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	where := "WHERE recipient_id = $1 AND recipient_role = $2"
	if unreadOnly {
		where += " AND read = FALSE"
	}
	query := fmt.Sprintf(`SELECT id, recipient_id, recipient_role, title, message, category, link, read, created_at
        FROM notifications
        %s
        ORDER BY created_at DESC
        LIMIT %d OFFSET %d`, where, pageSize, offset)
	var notifications []models.Notification
	if err := r.db.SelectContext(ctx, &notifications, query, recipientID, role); err != nil {
		return nil, 0, fmt.Errorf("list notifications: %w", err)
	}

	countQuery := "SELECT COUNT(*) FROM notifications " + where
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, recipientID, role); err != nil {
		return nil, 0, fmt.Errorf("count notifications: %w", err)
	}
	return notifications, total, nil
}

// UnreadCount returns how many unread notifications a recipient has.
func (r *NotificationRepository) UnreadCount(ctx context.Context, recipientID string, role models.UserRole) (int, error) {
	const query = `SELECT COUNT(*) FROM notifications WHERE recipient_id = $1 AND recipient_role = $2 AND read = FALSE`
	var count int
	if err := r.db.GetContext(ctx, &count, query, recipientID, role); err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return count, nil
}

// MarkRead flags one notification read, scoped to its owner so one
// recipient cannot touch another's rows. Returns whether a row changed.
func (r *NotificationRepository) MarkRead(ctx context.Context, id, recipientID string) (bool, error) {
	const query = `UPDATE notifications SET read = TRUE WHERE id = $1 AND recipient_id = $2`
	res, err := r.db.ExecContext(ctx, query, id, recipientID)
	if err != nil {
		return false, fmt.Errorf("mark notification read: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark notification read: %w", err)
	}
	return affected > 0, nil
}

// MarkAllRead flags every unread notification of the recipient read and
// returns how many rows changed.
func (r *NotificationRepository) MarkAllRead(ctx context.Context, recipientID string, role models.UserRole) (int, error) {
	const query = `UPDATE notifications SET read = TRUE WHERE recipient_id = $1 AND recipient_role = $2 AND read = FALSE`
	res, err := r.db.ExecContext(ctx, query, recipientID, role)
	if err != nil {
		return 0, fmt.Errorf("mark all notifications read: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("mark all notifications read: %w", err)
	}
	return int(affected), nil
}
