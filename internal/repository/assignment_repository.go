package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/gecr-dev/campus-api/internal/models"
)

// AssignmentRepository reads assignment and submission projections for
// the dashboards.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository constructs the repository.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// ListPendingForStudent returns assignments in the student's actively
// enrolled subjects whose due date is in the future and that the
// student has not submitted, soonest due first.
func (r *AssignmentRepository) ListPendingForStudent(ctx context.Context, studentID string) ([]models.PendingAssignment, error) {
	const query = `SELECT a.id, a.subject_id, su.name AS subject_name, a.title, a.due_date, a.max_marks
        FROM assignments a
        JOIN subjects su ON su.id = a.subject_id
        JOIN enrollments e ON e.subject_id = a.subject_id AND e.student_id = $1 AND e.status = 'active'
        LEFT JOIN submissions sub ON sub.assignment_id = a.id AND sub.student_id = $1
        WHERE a.due_date > NOW() AND sub.id IS NULL
        ORDER BY a.due_date ASC`
	var pending []models.PendingAssignment
	if err := r.db.SelectContext(ctx, &pending, query, studentID); err != nil {
		return nil, fmt.Errorf("list pending assignments: %w", err)
	}
	return pending, nil
}

// ListRecentGraded returns the student's most recently graded
// submissions, capped at limit.
func (r *AssignmentRepository) ListRecentGraded(ctx context.Context, studentID string, limit int) ([]models.GradedSubmission, error) {
	if limit <= 0 {
		limit = 5
	}
	query := fmt.Sprintf(`SELECT sub.id AS submission_id, a.title AS assignment_title, su.name AS subject_name,
        sub.marks, a.max_marks, sub.feedback, sub.graded_at
        FROM submissions sub
        JOIN assignments a ON a.id = sub.assignment_id
        JOIN subjects su ON su.id = a.subject_id
        WHERE sub.student_id = $1 AND sub.graded_at IS NOT NULL
        ORDER BY sub.graded_at DESC
        LIMIT %d`, limit)
	var graded []models.GradedSubmission
	if err := r.db.SelectContext(ctx, &graded, query, studentID); err != nil {
		return nil, fmt.Errorf("list graded submissions: %w", err)
	}
	return graded, nil
}

// ListUngradedByFaculty returns, per assignment owned by the faculty
// member, how many submissions still lack a grade. Assignments with
// nothing waiting are omitted.
func (r *AssignmentRepository) ListUngradedByFaculty(ctx context.Context, facultyID string) ([]models.UngradedCount, error) {
	const query = `SELECT a.id AS assignment_id, a.title AS assignment_title, su.name AS subject_name,
        COUNT(sub.id) AS ungraded
        FROM assignments a
        JOIN subjects su ON su.id = a.subject_id
        JOIN submissions sub ON sub.assignment_id = a.id AND sub.graded_at IS NULL
        WHERE su.faculty_id = $1
        GROUP BY a.id, a.title, su.name
        ORDER BY ungraded DESC`
	var counts []models.UngradedCount
	if err := r.db.SelectContext(ctx, &counts, query, facultyID); err != nil {
		return nil, fmt.Errorf("list ungraded submissions: %w", err)
	}
	return counts, nil
}
