package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/gecr-dev/campus-api/internal/models"
)

// EnrollmentRepository handles persistence of student-subject
// enrollments. Enroll and Unenroll run their check-then-act inside a
// transaction with the pair row locked so concurrent calls for the same
// pair serialize.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// Enroll creates or reactivates the enrollment for the pair. The
// outcome reports which of the three cases applied. Reactivation also
// refreshes enrolled_at and the academic year.
func (r *EnrollmentRepository) Enroll(ctx context.Context, studentID, subjectID, academicYear string) (models.EnrollmentOutcome, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin enroll tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	const lockQuery = `SELECT id, student_id, subject_id, academic_year, status, enrolled_at
        FROM enrollments WHERE student_id = $1 AND subject_id = $2 FOR UPDATE`
	var existing models.Enrollment
	err = tx.GetContext(ctx, &existing, lockQuery, studentID, subjectID)
	switch {
	case err == sql.ErrNoRows:
		enrollment := models.Enrollment{
			ID:           uuid.NewString(),
			StudentID:    studentID,
			SubjectID:    subjectID,
			AcademicYear: academicYear,
			Status:       models.EnrollmentStatusActive,
			EnrolledAt:   time.Now().UTC(),
		}
		const insertQuery = `INSERT INTO enrollments (id, student_id, subject_id, academic_year, status, enrolled_at)
            VALUES (:id, :student_id, :subject_id, :academic_year, :status, :enrolled_at)`
		if _, err := tx.NamedExecContext(ctx, insertQuery, enrollment); err != nil {
			return "", fmt.Errorf("insert enrollment: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return "", fmt.Errorf("commit enroll: %w", err)
		}
		committed = true
		return models.EnrollmentCreated, nil
	case err != nil:
		return "", fmt.Errorf("lock enrollment: %w", err)
	}

	if existing.Status == models.EnrollmentStatusActive {
		if err := tx.Commit(); err != nil {
			return "", fmt.Errorf("commit enroll: %w", err)
		}
		committed = true
		return models.EnrollmentAlreadyActive, nil
	}

	const reactivateQuery = `UPDATE enrollments SET status = $2, enrolled_at = $3, academic_year = $4 WHERE id = $1`
	if _, err := tx.ExecContext(ctx, reactivateQuery, existing.ID, models.EnrollmentStatusActive, time.Now().UTC(), academicYear); err != nil {
		return "", fmt.Errorf("reactivate enrollment: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit enroll: %w", err)
	}
	committed = true
	return models.EnrollmentReactivated, nil
}

// Unenroll marks the pair's enrollment dropped. Rows are never deleted.
func (r *EnrollmentRepository) Unenroll(ctx context.Context, studentID, subjectID string) (models.EnrollmentOutcome, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin unenroll tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	const lockQuery = `SELECT id, status FROM enrollments WHERE student_id = $1 AND subject_id = $2 FOR UPDATE`
	var existing struct {
		ID     string                  `db:"id"`
		Status models.EnrollmentStatus `db:"status"`
	}
	err = tx.GetContext(ctx, &existing, lockQuery, studentID, subjectID)
	switch {
	case err == sql.ErrNoRows:
		if err := tx.Commit(); err != nil {
			return "", fmt.Errorf("commit unenroll: %w", err)
		}
		committed = true
		return models.EnrollmentNotFound, nil
	case err != nil:
		return "", fmt.Errorf("lock enrollment: %w", err)
	}

	if existing.Status != models.EnrollmentStatusActive {
		if err := tx.Commit(); err != nil {
			return "", fmt.Errorf("commit unenroll: %w", err)
		}
		committed = true
		return models.EnrollmentNotFound, nil
	}

	const dropQuery = `UPDATE enrollments SET status = $2 WHERE id = $1`
	if _, err := tx.ExecContext(ctx, dropQuery, existing.ID, models.EnrollmentStatusDropped); err != nil {
		return "", fmt.Errorf("drop enrollment: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit unenroll: %w", err)
	}
	committed = true
	return models.EnrollmentDropped, nil
}

// ListActiveByStudent returns the student's active enrollments with
// subject names.
func (r *EnrollmentRepository) ListActiveByStudent(ctx context.Context, studentID string) ([]models.EnrollmentDetail, error) {
	const query = `SELECT e.id, e.student_id, e.subject_id, e.academic_year, e.status, e.enrolled_at,
        st.name AS student_name, st.roll_no AS student_roll_no, su.name AS subject_name
        FROM enrollments e
        JOIN students st ON st.id = e.student_id
        LEFT JOIN subjects su ON su.id = e.subject_id
        WHERE e.student_id = $1 AND e.status = $2
        ORDER BY su.name ASC`
	var enrollments []models.EnrollmentDetail
	if err := r.db.SelectContext(ctx, &enrollments, query, studentID, models.EnrollmentStatusActive); err != nil {
		return nil, fmt.Errorf("list student enrollments: %w", err)
	}
	return enrollments, nil
}

// ListActiveBySubject returns the roster of a subject's active
// enrollments.
func (r *EnrollmentRepository) ListActiveBySubject(ctx context.Context, subjectID string) ([]models.EnrollmentDetail, error) {
	const query = `SELECT e.id, e.student_id, e.subject_id, e.academic_year, e.status, e.enrolled_at,
        st.name AS student_name, st.roll_no AS student_roll_no, su.name AS subject_name
        FROM enrollments e
        JOIN students st ON st.id = e.student_id
        LEFT JOIN subjects su ON su.id = e.subject_id
        WHERE e.subject_id = $1 AND e.status = $2
        ORDER BY st.roll_no ASC`
	var enrollments []models.EnrollmentDetail
	if err := r.db.SelectContext(ctx, &enrollments, query, subjectID, models.EnrollmentStatusActive); err != nil {
		return nil, fmt.Errorf("list subject enrollments: %w", err)
	}
	return enrollments, nil
}

// ActiveStudentIDs returns the set of student IDs actively enrolled in
// a subject, used to filter grid imports.
func (r *EnrollmentRepository) ActiveStudentIDs(ctx context.Context, subjectID string) (map[string]bool, error) {
	const query = `SELECT student_id FROM enrollments WHERE subject_id = $1 AND status = $2`
	rows, err := r.db.QueryxContext(ctx, query, subjectID, models.EnrollmentStatusActive)
	if err != nil {
		return nil, fmt.Errorf("list enrolled student ids: %w", err)
	}
	defer rows.Close()

	ids := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan student id: %w", err)
		}
		ids[id] = true
	}
	return ids, nil
}

// IsActive reports whether the pair currently holds an active
// enrollment.
func (r *EnrollmentRepository) IsActive(ctx context.Context, studentID, subjectID string) (bool, error) {
	const query = `SELECT 1 FROM enrollments WHERE student_id = $1 AND subject_id = $2 AND status = $3 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, studentID, subjectID, models.EnrollmentStatusActive); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check enrollment: %w", err)
	}
	return true, nil
}
