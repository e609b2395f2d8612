package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/gecr-dev/campus-api/internal/models"
)

// EventRepository handles persistence of events and student RSVPs.
type EventRepository struct {
	db *sqlx.DB
}

// NewEventRepository constructs the repository.
func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db}
}

// Create persists a new event.
func (r *EventRepository) Create(ctx context.Context, event *models.Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	const query = `INSERT INTO events (id, title, description, start_time, end_time, location, created_by)
        VALUES (:id, :title, :description, :start_time, :end_time, :location, :created_by)`
	if _, err := r.db.NamedExecContext(ctx, query, event); err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	return nil
}

// FindByID returns an event by its ID.
func (r *EventRepository) FindByID(ctx context.Context, id string) (*models.Event, error) {
	const query = `SELECT id, title, description, start_time, end_time, location, created_by FROM events WHERE id = $1`
	var event models.Event
	if err := r.db.GetContext(ctx, &event, query, id); err != nil {
		return nil, err
	}
	return &event, nil
}

// ListUpcoming returns events starting at or after now with their RSVP
// counts, soonest first.
func (r *EventRepository) ListUpcoming(ctx context.Context, limit int) ([]models.EventDetail, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	query := fmt.Sprintf(`SELECT e.id, e.title, e.description, e.start_time, e.end_time, e.location, e.created_by,
        COUNT(er.id) AS registration_count
        FROM events e
        LEFT JOIN event_registrations er ON er.event_id = e.id
        WHERE e.start_time >= NOW()
        GROUP BY e.id
        ORDER BY e.start_time ASC
        LIMIT %d`, limit)
	var events []models.EventDetail
	if err := r.db.SelectContext(ctx, &events, query); err != nil {
		return nil, fmt.Errorf("list upcoming events: %w", err)
	}
	return events, nil
}

// Register records a student's RSVP. The (event, student) pair is
// unique; a repeat RSVP reports false without error.
func (r *EventRepository) Register(ctx context.Context, eventID, studentID string) (bool, error) {
	const query = `INSERT INTO event_registrations (id, event_id, student_id, registered_at)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (event_id, student_id) DO NOTHING`
	res, err := r.db.ExecContext(ctx, query, uuid.NewString(), eventID, studentID, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("register for event: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("register for event: %w", err)
	}
	return affected > 0, nil
}

// ListRegistrations returns an event's RSVPs with student context,
// earliest first.
func (r *EventRepository) ListRegistrations(ctx context.Context, eventID string) ([]models.EventRegistrationDetail, error) {
	const query = `SELECT er.id, er.event_id, er.student_id, er.registered_at,
        st.name AS student_name, st.roll_no AS student_roll_no
        FROM event_registrations er
        JOIN students st ON st.id = er.student_id
        WHERE er.event_id = $1
        ORDER BY er.registered_at ASC`
	var registrations []models.EventRegistrationDetail
	if err := r.db.SelectContext(ctx, &registrations, query, eventID); err != nil {
		return nil, fmt.Errorf("list event registrations: %w", err)
	}
	return registrations, nil
}
