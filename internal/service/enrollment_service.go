package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/gecr-dev/campus-api/internal/models"
	appErrors "github.com/gecr-dev/campus-api/pkg/errors"
)

type enrollmentRepository interface {
	Enroll(ctx context.Context, studentID, subjectID, academicYear string) (models.EnrollmentOutcome, error)
	Unenroll(ctx context.Context, studentID, subjectID string) (models.EnrollmentOutcome, error)
	ListActiveByStudent(ctx context.Context, studentID string) ([]models.EnrollmentDetail, error)
	ListActiveBySubject(ctx context.Context, subjectID string) ([]models.EnrollmentDetail, error)
	IsActive(ctx context.Context, studentID, subjectID string) (bool, error)
}

type studentReader interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type subjectReader interface {
	FindByID(ctx context.Context, id string) (*models.Subject, error)
}

// EnrollRequest describes an enroll or unenroll payload.
type EnrollRequest struct {
	StudentID    string `json:"student_id" validate:"required"`
	SubjectID    string `json:"subject_id" validate:"required"`
	AcademicYear string `json:"academic_year"`
}

// EnrollmentResult reports what an enroll or unenroll call did.
type EnrollmentResult struct {
	Outcome models.EnrollmentOutcome `json:"outcome"`
}

// EnrollmentService orchestrates student-subject enrollment. A subject
// roster can only be changed by the faculty member who owns the
// subject.
type EnrollmentService struct {
	repo      enrollmentRepository
	students  studentReader
	subjects  subjectReader
	cache     cachePurger
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEnrollmentService constructs EnrollmentService. cache may be nil.
func NewEnrollmentService(repo enrollmentRepository, students studentReader, subjects subjectReader, cache cachePurger, validate *validator.Validate, logger *zap.Logger) *EnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{repo: repo, students: students, subjects: subjects, cache: cache, validator: validate, logger: logger}
}

// Enroll adds the student to the subject, reviving a dropped
// enrollment when one exists. The call is idempotent: enrolling an
// already active pair reports already_active and changes nothing.
func (s *EnrollmentService) Enroll(ctx context.Context, facultyID string, req EnrollRequest) (*EnrollmentResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}
	subject, err := s.loadOwnedSubject(ctx, facultyID, req.SubjectID)
	if err != nil {
		return nil, err
	}
	student, err := s.students.FindByID(ctx, req.StudentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if !student.Active {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "student account is inactive")
	}

	outcome, err := s.repo.Enroll(ctx, student.ID, subject.ID, req.AcademicYear)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enroll student")
	}
	if outcome != models.EnrollmentAlreadyActive {
		purgeStudentDashboard(ctx, s.cache, s.logger, student.ID)
	}
	s.logger.Info("enrollment changed",
		zap.String("student_id", student.ID),
		zap.String("subject_id", subject.ID),
		zap.String("outcome", string(outcome)))
	return &EnrollmentResult{Outcome: outcome}, nil
}

// Unenroll marks the pair dropped. History stays behind; the row is
// never deleted, so attendance keeps pointing at a real enrollment.
func (s *EnrollmentService) Unenroll(ctx context.Context, facultyID string, req EnrollRequest) (*EnrollmentResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}
	subject, err := s.loadOwnedSubject(ctx, facultyID, req.SubjectID)
	if err != nil {
		return nil, err
	}

	outcome, err := s.repo.Unenroll(ctx, req.StudentID, subject.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to unenroll student")
	}
	if outcome == models.EnrollmentNotFound {
		return nil, appErrors.Clone(appErrors.ErrNotEnrolled, "no active enrollment for student and subject")
	}
	purgeStudentDashboard(ctx, s.cache, s.logger, req.StudentID)
	s.logger.Info("enrollment dropped",
		zap.String("student_id", req.StudentID),
		zap.String("subject_id", subject.ID))
	return &EnrollmentResult{Outcome: outcome}, nil
}

// Roster returns the subject's active enrollments for its owner.
func (s *EnrollmentService) Roster(ctx context.Context, facultyID, subjectID string) ([]models.EnrollmentDetail, error) {
	subject, err := s.loadOwnedSubject(ctx, facultyID, subjectID)
	if err != nil {
		return nil, err
	}
	roster, err := s.repo.ListActiveBySubject(ctx, subject.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load roster")
	}
	return roster, nil
}

// IsEnrolled reports whether the student currently holds an active
// enrollment in the subject.
func (s *EnrollmentService) IsEnrolled(ctx context.Context, studentID, subjectID string) (bool, error) {
	active, err := s.repo.IsActive(ctx, studentID, subjectID)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check enrollment")
	}
	return active, nil
}

// StudentSubjects returns the student's active enrollments.
func (s *EnrollmentService) StudentSubjects(ctx context.Context, studentID string) ([]models.EnrollmentDetail, error) {
	enrollments, err := s.repo.ListActiveByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollments")
	}
	return enrollments, nil
}

func (s *EnrollmentService) loadOwnedSubject(ctx context.Context, facultyID, subjectID string) (*models.Subject, error) {
	subject, err := s.subjects.FindByID(ctx, subjectID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}
	if subject.FacultyID != facultyID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "subject belongs to another faculty member")
	}
	return subject, nil
}
