package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/gecr-dev/campus-api/internal/models"
)

// SubjectRepository handles persistence of subjects.
type SubjectRepository struct {
	db *sqlx.DB
}

// NewSubjectRepository constructs the repository.
func NewSubjectRepository(db *sqlx.DB) *SubjectRepository {
	return &SubjectRepository{db: db}
}

// FindByID returns a subject by its ID.
func (r *SubjectRepository) FindByID(ctx context.Context, id string) (*models.Subject, error) {
	const query = `SELECT id, name, department, semester, faculty_id FROM subjects WHERE id = $1`
	var subject models.Subject
	if err := r.db.GetContext(ctx, &subject, query, id); err != nil {
		return nil, err
	}
	return &subject, nil
}

// Create persists a new subject.
func (r *SubjectRepository) Create(ctx context.Context, subject *models.Subject) error {
	if subject.ID == "" {
		subject.ID = uuid.NewString()
	}
	const query = `INSERT INTO subjects (id, name, department, semester, faculty_id)
        VALUES (:id, :name, :department, :semester, :faculty_id)`
	if _, err := r.db.NamedExecContext(ctx, query, subject); err != nil {
		return fmt.Errorf("create subject: %w", err)
	}
	return nil
}

// ListByFaculty returns the subjects a faculty member owns with their
// active enrollment headcounts.
func (r *SubjectRepository) ListByFaculty(ctx context.Context, facultyID string) ([]models.FacultySubjectSummary, error) {
	const query = `SELECT s.id AS subject_id, s.name AS subject_name,
        COUNT(e.id) FILTER (WHERE e.status = 'active') AS enrolled_count
        FROM subjects s
        LEFT JOIN enrollments e ON e.subject_id = s.id
        WHERE s.faculty_id = $1
        GROUP BY s.id, s.name
        ORDER BY s.name ASC`
	var subjects []models.FacultySubjectSummary
	if err := r.db.SelectContext(ctx, &subjects, query, facultyID); err != nil {
		return nil, fmt.Errorf("list faculty subjects: %w", err)
	}
	return subjects, nil
}

// List returns all subjects with owner names, optionally filtered by
// department and semester.
func (r *SubjectRepository) List(ctx context.Context, department string, semester *int) ([]models.SubjectDetail, error) {
	query := `SELECT s.id, s.name, s.department, s.semester, s.faculty_id,
        f.name AS faculty_name,
        COUNT(e.id) FILTER (WHERE e.status = 'active') AS enrolled_count
        FROM subjects s
        LEFT JOIN faculty f ON f.id = s.faculty_id
        LEFT JOIN enrollments e ON e.subject_id = s.id`
	var conditions []string
	var args []interface{}
	if department != "" {
		conditions = append(conditions, fmt.Sprintf("s.department = $%d", len(args)+1))
		args = append(args, department)
	}
	if semester != nil {
		conditions = append(conditions, fmt.Sprintf("s.semester = $%d", len(args)+1))
		args = append(args, *semester)
	}
	for i, c := range conditions {
		if i == 0 {
			query += " WHERE " + c
		} else {
			query += " AND " + c
		}
	}
	query += " GROUP BY s.id, s.name, s.department, s.semester, s.faculty_id, f.name ORDER BY s.name ASC"

	var subjects []models.SubjectDetail
	if err := r.db.SelectContext(ctx, &subjects, query, args...); err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	return subjects, nil
}

// CountDistinctStudents returns how many distinct students hold an
// active enrollment in any of the faculty member's subjects.
func (r *SubjectRepository) CountDistinctStudents(ctx context.Context, facultyID string) (int, error) {
	const query = `SELECT COUNT(DISTINCT e.student_id)
        FROM enrollments e
        JOIN subjects s ON s.id = e.subject_id
        WHERE s.faculty_id = $1 AND e.status = 'active'`
	var total int
	if err := r.db.GetContext(ctx, &total, query, facultyID); err != nil {
		return 0, fmt.Errorf("count faculty students: %w", err)
	}
	return total, nil
}
