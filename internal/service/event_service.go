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

type eventRepository interface {
	Create(ctx context.Context, event *models.Event) error
	FindByID(ctx context.Context, id string) (*models.Event, error)
	ListUpcoming(ctx context.Context, limit int) ([]models.EventDetail, error)
	Register(ctx context.Context, eventID, studentID string) (bool, error)
	ListRegistrations(ctx context.Context, eventID string) ([]models.EventRegistrationDetail, error)
}

// CreateEventRequest is the faculty payload for a new event.
type CreateEventRequest struct {
	Title       string     `json:"title" validate:"required,max=200"`
	Description string     `json:"description" validate:"required"`
	StartTime   time.Time  `json:"start_time" validate:"required"`
	EndTime     *time.Time `json:"end_time"`
	Location    *string    `json:"location"`
}

// EventWithFanOut pairs the stored event with its delivery report.
type EventWithFanOut struct {
	Event  *models.Event        `json:"event"`
	FanOut *models.FanOutResult `json:"fan_out"`
}

// RegistrationResult reports an RSVP attempt.
type RegistrationResult struct {
	Registered bool `json:"registered"`
}

// EventService creates events, broadcasts them and handles RSVPs.
type EventService struct {
	repo      eventRepository
	notifier  broadcaster
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEventService constructs EventService.
func NewEventService(repo eventRepository, notifier broadcaster, validate *validator.Validate, logger *zap.Logger) *EventService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventService{repo: repo, notifier: notifier, validator: validate, logger: logger}
}

// Create stores the event and fans it out to every active student. A
// fan-out failure is reported but does not roll the event back.
func (s *EventService) Create(ctx context.Context, createdBy string, req CreateEventRequest) (*EventWithFanOut, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid event payload")
	}
	if req.EndTime != nil && req.EndTime.Before(req.StartTime) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "event ends before it starts")
	}

	event := &models.Event{
		Title:       req.Title,
		Description: req.Description,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Location:    req.Location,
		CreatedBy:   createdBy,
	}
	if err := s.repo.Create(ctx, event); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create event")
	}

	fanOut, err := s.notifier.FanOutEvent(ctx, event)
	if err != nil {
		s.logger.Error("event fan-out failed",
			zap.String("event_id", event.ID),
			zap.Error(err))
		fanOut = &models.FanOutResult{}
	}
	return &EventWithFanOut{Event: event, FanOut: fanOut}, nil
}

// Get returns one event by ID.
func (s *EventService) Get(ctx context.Context, id string) (*models.Event, error) {
	event, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
	}
	return event, nil
}

// ListUpcoming returns events that have not started yet.
func (s *EventService) ListUpcoming(ctx context.Context, limit int) ([]models.EventDetail, error) {
	events, err := s.repo.ListUpcoming(ctx, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list events")
	}
	return events, nil
}

// Register records the student's RSVP. Registering twice is harmless;
// the result reports whether this call created the registration.
func (s *EventService) Register(ctx context.Context, eventID, studentID string) (*RegistrationResult, error) {
	if _, err := s.repo.FindByID(ctx, eventID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
	}
	registered, err := s.repo.Register(ctx, eventID, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to register for event")
	}
	return &RegistrationResult{Registered: registered}, nil
}

// Registrations returns an event's RSVPs for the faculty member who
// created it.
func (s *EventService) Registrations(ctx context.Context, facultyID, eventID string) ([]models.EventRegistrationDetail, error) {
	event, err := s.repo.FindByID(ctx, eventID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
	}
	if event.CreatedBy != facultyID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "event belongs to another faculty member")
	}
	registrations, err := s.repo.ListRegistrations(ctx, eventID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list registrations")
	}
	return registrations, nil
}
