package service

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/gecr-dev/campus-api/internal/importer"
	"github.com/gecr-dev/campus-api/internal/models"
	appErrors "github.com/gecr-dev/campus-api/pkg/errors"
)

type studentRepository interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
	FindByEmail(ctx context.Context, email string) (*models.Student, error)
	FindByRollNo(ctx context.Context, rollNo string) (*models.Student, error)
	Create(ctx context.Context, student *models.Student) error
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
	UpdateEmailNotifications(ctx context.Context, id string, enabled bool) error
}

type studentNotifier interface {
	Notify(ctx context.Context, notification models.Notification) error
}

const profileLink = "/student/profile"

// RosterImportReport summarizes a roster upload: how many accounts were
// created, how many rows matched an existing roll or email, and the
// per-row parse or persistence failures.
type RosterImportReport struct {
	Created     int                 `json:"created"`
	Skipped     int                 `json:"skipped"`
	Errored     int                 `json:"errored"`
	TotalRows   int                 `json:"total_rows"`
	Errors      []importer.RowError `json:"errors,omitempty"`
	CreatedIDs  []string            `json:"created_ids,omitempty"`
	SkippedRoll []string            `json:"skipped_rolls,omitempty"`
}

// StudentService manages student accounts and the bulk roster import.
type StudentService struct {
	repo      studentRepository
	notifier  studentNotifier
	metrics   importObserver
	appName   string
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs StudentService. notifier may be nil, in
// which case no welcome notifications are written; metrics may be nil.
func NewStudentService(repo studentRepository, notifier studentNotifier, metrics importObserver, appName string, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, notifier: notifier, metrics: metrics, appName: appName, validator: validate, logger: logger}
}

// CreateStudentRequest is a single manually created account.
type CreateStudentRequest struct {
	RollNo     string  `json:"roll_no" validate:"required,max=50"`
	Name       string  `json:"name" validate:"required,max=200"`
	Email      string  `json:"email" validate:"required,email"`
	Password   string  `json:"password" validate:"required,min=6"`
	Department *string `json:"department"`
	Semester   *int    `json:"semester"`
	Phone      *string `json:"phone"`
}

// Create adds one student account. Roll number and email must both be
// unused. The new account gets a welcome notification.
func (s *StudentService) Create(ctx context.Context, req CreateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	if _, err := s.repo.FindByRollNo(ctx, req.RollNo); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "roll number already registered")
	} else if err != sql.ErrNoRows {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check roll number")
	}
	if _, err := s.repo.FindByEmail(ctx, req.Email); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "email already registered")
	} else if err != sql.ErrNoRows {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}
	student := models.Student{
		RollNo:             req.RollNo,
		Name:               req.Name,
		Email:              req.Email,
		PasswordHash:       string(hash),
		Department:         req.Department,
		Semester:           req.Semester,
		Phone:              req.Phone,
		Active:             true,
		EmailNotifications: true,
	}
	if err := s.repo.Create(ctx, &student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}
	s.welcome(ctx, &student)
	s.logger.Info("student created", zap.String("roll_no", student.RollNo))
	return &student, nil
}

// Get returns one student by ID.
func (s *StudentService) Get(ctx context.Context, id string) (*models.Student, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

// List returns students with pagination metadata.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, *models.Pagination, error) {
	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return students, pagination, nil
}

// SetEmailNotifications toggles the student's email opt-in.
func (s *StudentService) SetEmailNotifications(ctx context.Context, studentID string, enabled bool) error {
	if err := s.repo.UpdateEmailNotifications(ctx, studentID, enabled); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update preferences")
	}
	return nil
}

// ImportRoster creates accounts from parsed roster rows. Rows whose
// roll number or email already exist are skipped, not overwritten.
// Each created student gets a welcome notification.
func (s *StudentService) ImportRoster(ctx context.Context, parsed importer.RosterResult) (*RosterImportReport, error) {
	report := &RosterImportReport{
		TotalRows: parsed.TotalRows,
		Errors:    parsed.Errors,
		Errored:   len(parsed.Errors),
	}

	for _, row := range parsed.Students {
		if _, err := s.repo.FindByRollNo(ctx, row.RollNo); err == nil {
			report.Skipped++
			report.SkippedRoll = append(report.SkippedRoll, row.RollNo)
			continue
		} else if err != sql.ErrNoRows {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check roll number")
		}
		if _, err := s.repo.FindByEmail(ctx, row.Email); err == nil {
			report.Skipped++
			report.SkippedRoll = append(report.SkippedRoll, row.RollNo)
			continue
		} else if err != sql.ErrNoRows {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email")
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(row.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
		}

		student := models.Student{
			RollNo:             row.RollNo,
			Name:               row.Name,
			Email:              row.Email,
			PasswordHash:       string(hash),
			Department:         row.Department,
			Semester:           row.Semester,
			Phone:              row.Phone,
			Active:             true,
			EmailNotifications: true,
		}
		if err := s.repo.Create(ctx, &student); err != nil {
			report.Errored++
			report.Errors = append(report.Errors, importer.RowError{
				Row:     row.Row,
				Message: fmt.Sprintf("could not create account for roll %s", row.RollNo),
			})
			s.logger.Error("roster row insert failed",
				zap.String("roll_no", row.RollNo),
				zap.Error(err))
			continue
		}
		report.Created++
		report.CreatedIDs = append(report.CreatedIDs, student.ID)
		s.welcome(ctx, &student)
	}

	if s.metrics != nil {
		s.metrics.ObserveImport("roster", "created", report.Created)
		s.metrics.ObserveImport("roster", "skipped", report.Skipped)
		s.metrics.ObserveImport("roster", "errored", report.Errored)
	}
	s.logger.Info("roster imported",
		zap.Int("created", report.Created),
		zap.Int("skipped", report.Skipped),
		zap.Int("errored", report.Errored))
	return report, nil
}

// welcome writes the new account's first notification. Best effort; a
// failure is logged and the import continues.
func (s *StudentService) welcome(ctx context.Context, student *models.Student) {
	if s.notifier == nil {
		return
	}
	link := profileLink
	notification := models.Notification{
		RecipientID:   student.ID,
		RecipientRole: models.RoleStudent,
		Title:         "Welcome to " + s.appName,
		Message:       fmt.Sprintf("Hi %s, your account is ready. Update your profile and check your subjects.", student.Name),
		Category:      models.CategorySystem,
		Link:          &link,
	}
	if err := s.notifier.Notify(ctx, notification); err != nil {
		s.logger.Warn("welcome notification failed",
			zap.String("student_id", student.ID),
			zap.Error(err))
	}
}
