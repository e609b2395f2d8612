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

// StudentRepository handles persistence of student accounts.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs the repository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

const studentColumns = `id, roll_no, name, email, password_hash, department, semester, phone, active, email_notifications, created_at`

// FindByID returns a student by its ID.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	query := fmt.Sprintf(`SELECT %s FROM students WHERE id = $1`, studentColumns)
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// FindByEmail returns a student by email, used for login and import
// duplicate checks.
func (r *StudentRepository) FindByEmail(ctx context.Context, email string) (*models.Student, error) {
	query := fmt.Sprintf(`SELECT %s FROM students WHERE email = $1`, studentColumns)
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, strings.ToLower(email)); err != nil {
		return nil, err
	}
	return &student, nil
}

// FindByRollNo returns a student by roll number.
func (r *StudentRepository) FindByRollNo(ctx context.Context, rollNo string) (*models.Student, error) {
	query := fmt.Sprintf(`SELECT %s FROM students WHERE roll_no = $1`, studentColumns)
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, rollNo); err != nil {
		return nil, err
	}
	return &student, nil
}

// Create persists a new student record.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	if student.CreatedAt.IsZero() {
		student.CreatedAt = time.Now().UTC()
	}
	student.Email = strings.ToLower(student.Email)
	const query = `INSERT INTO students (id, roll_no, name, email, password_hash, department, semester, phone, active, email_notifications, created_at)
        VALUES (:id, :roll_no, :name, :email, :password_hash, :department, :semester, :phone, :active, :email_notifications, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// List returns students filtered by the provided criteria.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	var conditions []string
	var args []interface{}

	if filter.Department != "" {
		conditions = append(conditions, fmt.Sprintf("department = $%d", len(args)+1))
		args = append(args, filter.Department)
	}
	if filter.Semester != nil {
		conditions = append(conditions, fmt.Sprintf("semester = $%d", len(args)+1))
		args = append(args, *filter.Semester)
	}
	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT %s FROM students%s ORDER BY roll_no ASC LIMIT %d OFFSET %d`, studentColumns, clause, size, offset)
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	countQuery := "SELECT COUNT(*) FROM students" + clause
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return students, total, nil
}

// ListActive returns every active student, used by broadcast fan-out.
func (r *StudentRepository) ListActive(ctx context.Context) ([]models.Student, error) {
	query := fmt.Sprintf(`SELECT %s FROM students WHERE active = TRUE ORDER BY roll_no ASC`, studentColumns)
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query); err != nil {
		return nil, fmt.Errorf("list active students: %w", err)
	}
	return students, nil
}

// MapRollNos resolves roll numbers to student IDs in chunks, returning
// only the rolls that exist.
func (r *StudentRepository) MapRollNos(ctx context.Context, rollNos []string) (map[string]string, error) {
	if len(rollNos) == 0 {
		return map[string]string{}, nil
	}
	const chunkSize = 100
	resolved := make(map[string]string, len(rollNos))
	for start := 0; start < len(rollNos); start += chunkSize {
		end := start + chunkSize
		if end > len(rollNos) {
			end = len(rollNos)
		}
		chunk := rollNos[start:end]
		placeholders := make([]string, len(chunk))
		args := make([]interface{}, len(chunk))
		for i, roll := range chunk {
			placeholders[i] = fmt.Sprintf("$%d", i+1)
			args[i] = roll
		}
		query := fmt.Sprintf("SELECT id, roll_no FROM students WHERE roll_no IN (%s)", strings.Join(placeholders, ","))
		rows, err := r.db.QueryxContext(ctx, query, args...)
		if err != nil {
			return nil, fmt.Errorf("map roll numbers: %w", err)
		}
		for rows.Next() {
			var id, roll string
			if err := rows.Scan(&id, &roll); err != nil {
				rows.Close()
				return nil, fmt.Errorf("scan student roll: %w", err)
			}
			resolved[roll] = id
		}
		rows.Close()
	}
	return resolved, nil
}

// UpdateEmailNotifications toggles the email opt-in flag.
func (r *StudentRepository) UpdateEmailNotifications(ctx context.Context, id string, enabled bool) error {
	const query = `UPDATE students SET email_notifications = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, enabled); err != nil {
		return fmt.Errorf("update email notifications: %w", err)
	}
	return nil
}
