package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gecr-dev/campus-api/internal/models"
	appErrors "github.com/gecr-dev/campus-api/pkg/errors"
)

type stubEnrollmentRepo struct {
	enrollOutcome   models.EnrollmentOutcome
	unenrollOutcome models.EnrollmentOutcome
	enrollCalls     int
}

func (s *stubEnrollmentRepo) Enroll(context.Context, string, string, string) (models.EnrollmentOutcome, error) {
	s.enrollCalls++
	return s.enrollOutcome, nil
}

func (s *stubEnrollmentRepo) Unenroll(context.Context, string, string) (models.EnrollmentOutcome, error) {
	return s.unenrollOutcome, nil
}

func (s *stubEnrollmentRepo) ListActiveByStudent(context.Context, string) ([]models.EnrollmentDetail, error) {
	return nil, nil
}

func (s *stubEnrollmentRepo) IsActive(context.Context, string, string) (bool, error) {
	return false, nil
}

func (s *stubEnrollmentRepo) ListActiveBySubject(context.Context, string) ([]models.EnrollmentDetail, error) {
	return nil, nil
}

type stubStudentReader struct {
	student *models.Student
}

func (s *stubStudentReader) FindByID(context.Context, string) (*models.Student, error) {
	return s.student, nil
}

func TestEnrollReportsOutcome(t *testing.T) {
	tests := []struct {
		name    string
		outcome models.EnrollmentOutcome
	}{
		{"created", models.EnrollmentCreated},
		{"reactivated", models.EnrollmentReactivated},
		{"already active", models.EnrollmentAlreadyActive},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &stubEnrollmentRepo{enrollOutcome: tt.outcome}
			students := &stubStudentReader{student: &models.Student{ID: "stu-1", Active: true}}
			subjects := &stubSubjectReader{subject: &models.Subject{ID: "sub-1", FacultyID: "fac-1"}}
			svc := NewEnrollmentService(repo, students, subjects, nil, nil, nil)

			result, err := svc.Enroll(context.Background(), "fac-1", EnrollRequest{StudentID: "stu-1", SubjectID: "sub-1"})
			require.NoError(t, err)
			assert.Equal(t, tt.outcome, result.Outcome)
		})
	}
}

func TestEnrollRejectsInactiveStudent(t *testing.T) {
	repo := &stubEnrollmentRepo{enrollOutcome: models.EnrollmentCreated}
	students := &stubStudentReader{student: &models.Student{ID: "stu-1", Active: false}}
	subjects := &stubSubjectReader{subject: &models.Subject{ID: "sub-1", FacultyID: "fac-1"}}
	svc := NewEnrollmentService(repo, students, subjects, nil, nil, nil)

	_, err := svc.Enroll(context.Background(), "fac-1", EnrollRequest{StudentID: "stu-1", SubjectID: "sub-1"})
	require.Error(t, err)
	assert.Zero(t, repo.enrollCalls)
}

func TestEnrollRejectsForeignSubject(t *testing.T) {
	repo := &stubEnrollmentRepo{enrollOutcome: models.EnrollmentCreated}
	students := &stubStudentReader{student: &models.Student{ID: "stu-1", Active: true}}
	subjects := &stubSubjectReader{subject: &models.Subject{ID: "sub-1", FacultyID: "fac-other"}}
	svc := NewEnrollmentService(repo, students, subjects, nil, nil, nil)

	_, err := svc.Enroll(context.Background(), "fac-1", EnrollRequest{StudentID: "stu-1", SubjectID: "sub-1"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
}

func TestUnenrollMissingEnrollmentIsNotEnrolled(t *testing.T) {
	repo := &stubEnrollmentRepo{unenrollOutcome: models.EnrollmentNotFound}
	students := &stubStudentReader{student: &models.Student{ID: "stu-1", Active: true}}
	subjects := &stubSubjectReader{subject: &models.Subject{ID: "sub-1", FacultyID: "fac-1"}}
	svc := NewEnrollmentService(repo, students, subjects, nil, nil, nil)

	_, err := svc.Unenroll(context.Background(), "fac-1", EnrollRequest{StudentID: "stu-1", SubjectID: "sub-1"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotEnrolled.Code, appErr.Code)
}

func TestUnenrollReportsDropped(t *testing.T) {
	repo := &stubEnrollmentRepo{unenrollOutcome: models.EnrollmentDropped}
	students := &stubStudentReader{student: &models.Student{ID: "stu-1", Active: true}}
	subjects := &stubSubjectReader{subject: &models.Subject{ID: "sub-1", FacultyID: "fac-1"}}
	svc := NewEnrollmentService(repo, students, subjects, nil, nil, nil)

	result, err := svc.Unenroll(context.Background(), "fac-1", EnrollRequest{StudentID: "stu-1", SubjectID: "sub-1"})
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentDropped, result.Outcome)
}

func TestEnrollmentWritesDropCachedDashboard(t *testing.T) {
	students := &stubStudentReader{student: &models.Student{ID: "stu-1", Active: true}}
	subjects := &stubSubjectReader{subject: &models.Subject{ID: "sub-1", FacultyID: "fac-1"}}

	t.Run("created purges", func(t *testing.T) {
		repo := &stubEnrollmentRepo{enrollOutcome: models.EnrollmentCreated}
		purger := &stubPurger{}
		svc := NewEnrollmentService(repo, students, subjects, purger, nil, nil)

		_, err := svc.Enroll(context.Background(), "fac-1", EnrollRequest{StudentID: "stu-1", SubjectID: "sub-1"})
		require.NoError(t, err)
		assert.Equal(t, []string{"dashboard:student:stu-1"}, purger.patterns)
	})

	t.Run("already active leaves cache alone", func(t *testing.T) {
		repo := &stubEnrollmentRepo{enrollOutcome: models.EnrollmentAlreadyActive}
		purger := &stubPurger{}
		svc := NewEnrollmentService(repo, students, subjects, purger, nil, nil)

		_, err := svc.Enroll(context.Background(), "fac-1", EnrollRequest{StudentID: "stu-1", SubjectID: "sub-1"})
		require.NoError(t, err)
		assert.Empty(t, purger.patterns)
	})

	t.Run("unenroll purges", func(t *testing.T) {
		repo := &stubEnrollmentRepo{unenrollOutcome: models.EnrollmentDropped}
		purger := &stubPurger{}
		svc := NewEnrollmentService(repo, students, subjects, purger, nil, nil)

		_, err := svc.Unenroll(context.Background(), "fac-1", EnrollRequest{StudentID: "stu-1", SubjectID: "sub-1"})
		require.NoError(t, err)
		assert.Equal(t, []string{"dashboard:student:stu-1"}, purger.patterns)
	})
}
