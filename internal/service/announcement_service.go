package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/gecr-dev/campus-api/internal/models"
	appErrors "github.com/gecr-dev/campus-api/pkg/errors"
)

type announcementRepository interface {
	Create(ctx context.Context, announcement *models.Announcement) error
	FindByID(ctx context.Context, id string) (*models.Announcement, error)
	List(ctx context.Context, limit int) ([]models.Announcement, error)
}

type broadcaster interface {
	FanOutAnnouncement(ctx context.Context, announcement *models.Announcement) (*models.FanOutResult, error)
	FanOutEvent(ctx context.Context, event *models.Event) (*models.FanOutResult, error)
}

// CreateAnnouncementRequest is the faculty payload for a new
// announcement.
type CreateAnnouncementRequest struct {
	Title     string     `json:"title" validate:"required,max=200"`
	Message   string     `json:"message" validate:"required"`
	ExpiresAt *time.Time `json:"expires_at"`
}

// AnnouncementWithFanOut pairs the stored announcement with its
// delivery report.
type AnnouncementWithFanOut struct {
	Announcement *models.Announcement `json:"announcement"`
	FanOut       *models.FanOutResult `json:"fan_out"`
}

// AnnouncementService creates announcements and triggers their
// broadcast.
type AnnouncementService struct {
	repo      announcementRepository
	notifier  broadcaster
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAnnouncementService constructs AnnouncementService.
func NewAnnouncementService(repo announcementRepository, notifier broadcaster, validate *validator.Validate, logger *zap.Logger) *AnnouncementService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnnouncementService{repo: repo, notifier: notifier, validator: validate, logger: logger}
}

// Create stores the announcement and fans it out to every active
// student. The fan-out runs after the announcement is saved; a fan-out
// failure is reported but does not roll the announcement back.
func (s *AnnouncementService) Create(ctx context.Context, authorID string, req CreateAnnouncementRequest) (*AnnouncementWithFanOut, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid announcement payload")
	}

	announcement := &models.Announcement{
		Title:     req.Title,
		Message:   req.Message,
		AuthorID:  authorID,
		ExpiresAt: req.ExpiresAt,
	}
	if err := s.repo.Create(ctx, announcement); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create announcement")
	}

	fanOut, err := s.notifier.FanOutAnnouncement(ctx, announcement)
	if err != nil {
		s.logger.Error("announcement fan-out failed",
			zap.String("announcement_id", announcement.ID),
			zap.Error(err))
		fanOut = &models.FanOutResult{}
	}
	return &AnnouncementWithFanOut{Announcement: announcement, FanOut: fanOut}, nil
}

// Get returns one announcement by ID.
func (s *AnnouncementService) Get(ctx context.Context, id string) (*models.Announcement, error) {
	announcement, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "announcement not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load announcement")
	}
	return announcement, nil
}

// List returns current announcements, newest first.
func (s *AnnouncementService) List(ctx context.Context, limit int) ([]models.Announcement, error) {
	announcements, err := s.repo.List(ctx, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list announcements")
	}
	return announcements, nil
}
