package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/gecr-dev/campus-api/internal/models"
)

// TimetableRepository reads recurring timetable slots.
type TimetableRepository struct {
	db *sqlx.DB
}

// NewTimetableRepository constructs the repository.
func NewTimetableRepository(db *sqlx.DB) *TimetableRepository {
	return &TimetableRepository{db: db}
}

// ListForDay returns the slots for one department, semester and
// weekday, ordered by time slot.
func (r *TimetableRepository) ListForDay(ctx context.Context, department string, semester, dayOfWeek int) ([]models.TimetableSlotDetail, error) {
	const query = `SELECT t.id, t.department, t.semester, t.day_of_week, t.subject_id, t.faculty_id, t.time_slot,
        su.name AS subject_name, f.name AS faculty_name
        FROM timetable_slots t
        LEFT JOIN subjects su ON su.id = t.subject_id
        LEFT JOIN faculty f ON f.id = t.faculty_id
        WHERE t.department = $1 AND t.semester = $2 AND t.day_of_week = $3
        ORDER BY t.time_slot ASC`
	var slots []models.TimetableSlotDetail
	if err := r.db.SelectContext(ctx, &slots, query, department, semester, dayOfWeek); err != nil {
		return nil, fmt.Errorf("list timetable slots: %w", err)
	}
	return slots, nil
}

// ListForFacultyDay returns one faculty member's teaching slots on a
// weekday, ordered by time slot.
func (r *TimetableRepository) ListForFacultyDay(ctx context.Context, facultyID string, dayOfWeek int) ([]models.TimetableSlotDetail, error) {
	const query = `SELECT t.id, t.department, t.semester, t.day_of_week, t.subject_id, t.faculty_id, t.time_slot,
        su.name AS subject_name, f.name AS faculty_name
        FROM timetable_slots t
        LEFT JOIN subjects su ON su.id = t.subject_id
        LEFT JOIN faculty f ON f.id = t.faculty_id
        WHERE t.faculty_id = $1 AND t.day_of_week = $2
        ORDER BY t.time_slot ASC`
	var slots []models.TimetableSlotDetail
	if err := r.db.SelectContext(ctx, &slots, query, facultyID, dayOfWeek); err != nil {
		return nil, fmt.Errorf("list faculty timetable slots: %w", err)
	}
	return slots, nil
}
