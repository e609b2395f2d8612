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

// FacultyRepository handles persistence of faculty accounts.
type FacultyRepository struct {
	db *sqlx.DB
}

// NewFacultyRepository constructs the repository.
func NewFacultyRepository(db *sqlx.DB) *FacultyRepository {
	return &FacultyRepository{db: db}
}

const facultyColumns = `id, name, email, password_hash, department, designation, phone, created_at`

// FindByID returns a faculty member by ID.
func (r *FacultyRepository) FindByID(ctx context.Context, id string) (*models.Faculty, error) {
	query := fmt.Sprintf(`SELECT %s FROM faculty WHERE id = $1`, facultyColumns)
	var faculty models.Faculty
	if err := r.db.GetContext(ctx, &faculty, query, id); err != nil {
		return nil, err
	}
	return &faculty, nil
}

// FindByEmail returns a faculty member by email for login.
func (r *FacultyRepository) FindByEmail(ctx context.Context, email string) (*models.Faculty, error) {
	query := fmt.Sprintf(`SELECT %s FROM faculty WHERE email = $1`, facultyColumns)
	var faculty models.Faculty
	if err := r.db.GetContext(ctx, &faculty, query, strings.ToLower(email)); err != nil {
		return nil, err
	}
	return &faculty, nil
}

// Create persists a new faculty record.
func (r *FacultyRepository) Create(ctx context.Context, faculty *models.Faculty) error {
	if faculty.ID == "" {
		faculty.ID = uuid.NewString()
	}
	if faculty.CreatedAt.IsZero() {
		faculty.CreatedAt = time.Now().UTC()
	}
	faculty.Email = strings.ToLower(faculty.Email)
	const query = `INSERT INTO faculty (id, name, email, password_hash, department, designation, phone, created_at)
        VALUES (:id, :name, :email, :password_hash, :department, :designation, :phone, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, faculty); err != nil {
		return fmt.Errorf("create faculty: %w", err)
	}
	return nil
}
