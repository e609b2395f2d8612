package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/gecr-dev/campus-api/internal/models"
	appErrors "github.com/gecr-dev/campus-api/pkg/errors"
	"github.com/gecr-dev/campus-api/pkg/mailer"
)

type notificationRepository interface {
	Create(ctx context.Context, notification *models.Notification) error
	BulkInsert(ctx context.Context, notifications []models.Notification) (int, error)
	List(ctx context.Context, recipientID string, role models.UserRole, unreadOnly bool, page, pageSize int) ([]models.Notification, int, error)
	UnreadCount(ctx context.Context, recipientID string, role models.UserRole) (int, error)
	MarkRead(ctx context.Context, id, recipientID string) (bool, error)
	MarkAllRead(ctx context.Context, recipientID string, role models.UserRole) (int, error)
}

type activeStudentLister interface {
	ListActive(ctx context.Context) ([]models.Student, error)
}

type fanOutObserver interface {
	ObserveFanOut(category string, recipients, emailSent, emailFailed int)
}

const (
	announcementTitlePrefix = "📢 New Announcement: "
	eventTitlePrefix        = "📅 New Event: "
	dashboardLink           = "/student/dashboard"
	eventsLink              = "/student/events"
	messageRuneLimit        = 200
)

// NotificationService owns in-app notifications and broadcast fan-out.
// A fan-out addresses every active student in one atomic batch; the
// email leg runs after the batch commits and never affects it. A
// broadcast triggered twice produces two full sets of notifications,
// there is no dedupe.
type NotificationService struct {
	repo     notificationRepository
	students activeStudentLister
	mail     mailer.Mailer
	metrics  fanOutObserver
	logger   *zap.Logger
}

// NewNotificationService constructs NotificationService. mail and
// metrics may be nil.
func NewNotificationService(repo notificationRepository, students activeStudentLister, mail mailer.Mailer, metrics fanOutObserver, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{repo: repo, students: students, mail: mail, metrics: metrics, logger: logger}
}

// FanOutAnnouncement notifies every active student about a new
// announcement.
func (s *NotificationService) FanOutAnnouncement(ctx context.Context, announcement *models.Announcement) (*models.FanOutResult, error) {
	title := announcementTitlePrefix + announcement.Title
	message := truncateRunes(announcement.Message, messageRuneLimit)
	return s.fanOut(ctx, models.CategoryAnnouncement, title, message, dashboardLink)
}

// FanOutEvent notifies every active student about a new event. The
// message carries the start time and, when set, the location.
func (s *NotificationService) FanOutEvent(ctx context.Context, event *models.Event) (*models.FanOutResult, error) {
	title := eventTitlePrefix + event.Title
	message := fmt.Sprintf("%s - %s", event.Description, event.StartTime.Format("January 2, 2006 at 3:04 PM"))
	if event.Location != nil && *event.Location != "" {
		message += " at " + *event.Location
	}
	message = truncateRunes(message, messageRuneLimit)
	return s.fanOut(ctx, models.CategoryEvent, title, message, eventsLink)
}

func (s *NotificationService) fanOut(ctx context.Context, category models.NotificationCategory, title, message, link string) (*models.FanOutResult, error) {
	students, err := s.students.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load recipients")
	}

	notifications := make([]models.Notification, 0, len(students))
	var emails []string
	for _, st := range students {
		notifications = append(notifications, models.Notification{
			RecipientID:   st.ID,
			RecipientRole: models.RoleStudent,
			Title:         title,
			Message:       message,
			Category:      category,
			Link:          &link,
		})
		if st.EmailNotifications {
			emails = append(emails, st.Email)
		}
	}

	count, err := s.repo.BulkInsert(ctx, notifications)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deliver notifications")
	}

	result := &models.FanOutResult{InAppNotified: count}
	if s.mail != nil && len(emails) > 0 {
		bulk := s.mail.SendBulk(ctx, emails, title, message)
		result.Email = models.EmailResult{Sent: bulk.Sent, Failed: bulk.Failed}
	}
	if s.metrics != nil {
		s.metrics.ObserveFanOut(string(category), count, result.Email.Sent, result.Email.Failed)
	}
	s.logger.Info("broadcast fanned out",
		zap.String("category", string(category)),
		zap.Int("recipients", count),
		zap.Int("emails_sent", result.Email.Sent),
		zap.Int("emails_failed", result.Email.Failed))
	return result, nil
}

// Notify writes one targeted notification.
func (s *NotificationService) Notify(ctx context.Context, notification models.Notification) error {
	if !notification.Category.Valid() {
		return appErrors.Clone(appErrors.ErrValidation, "unknown notification category")
	}
	if err := s.repo.Create(ctx, &notification); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create notification")
	}
	return nil
}

// List returns the recipient's notifications with pagination metadata,
// optionally restricted to unread ones.
func (s *NotificationService) List(ctx context.Context, recipientID string, role models.UserRole, unreadOnly bool, page, pageSize int) ([]models.Notification, *models.Pagination, error) {
	notifications, total, err := s.repo.List(ctx, recipientID, role, unreadOnly, page, pageSize)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notifications")
	}
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}
	return notifications, pagination, nil
}

// UnreadCount returns how many unread notifications the recipient has.
func (s *NotificationService) UnreadCount(ctx context.Context, recipientID string, role models.UserRole) (int, error) {
	count, err := s.repo.UnreadCount(ctx, recipientID, role)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count notifications")
	}
	return count, nil
}

// MarkRead flags one of the recipient's notifications read. Marking a
// notification that does not exist or belongs to someone else is a not
// found error.
func (s *NotificationService) MarkRead(ctx context.Context, id, recipientID string) error {
	changed, err := s.repo.MarkRead(ctx, id, recipientID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark notification read")
	}
	if !changed {
		return appErrors.Clone(appErrors.ErrNotFound, "notification not found")
	}
	return nil
}

// MarkAllRead flags every unread notification of the recipient read.
func (s *NotificationService) MarkAllRead(ctx context.Context, recipientID string, role models.UserRole) (int, error) {
	count, err := s.repo.MarkAllRead(ctx, recipientID, role)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark notifications read")
	}
	return count, nil
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
