package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/gecr-dev/campus-api/internal/models"
)

func newEnrollmentRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestEnrollmentRepositoryEnrollCreatesWhenPairIsNew(t *testing.T) {
	db, mock, cleanup := newEnrollmentRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").
		WithArgs("stu-1", "sub-1").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO enrollments")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	outcome, err := repo.Enroll(context.Background(), "stu-1", "sub-1", "2026-27")
	require.NoError(t, err)
	require.Equal(t, models.EnrollmentCreated, outcome)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryEnrollReactivatesDroppedPair(t *testing.T) {
	db, mock, cleanup := newEnrollmentRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	rows := sqlmock.NewRows([]string{"id", "student_id", "subject_id", "academic_year", "status", "enrolled_at"}).
		AddRow("enr-1", "stu-1", "sub-1", "2025-26", models.EnrollmentStatusDropped, time.Now())
	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").
		WithArgs("stu-1", "sub-1").
		WillReturnRows(rows)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE enrollments SET status = $2, enrolled_at = $3, academic_year = $4 WHERE id = $1")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	outcome, err := repo.Enroll(context.Background(), "stu-1", "sub-1", "2026-27")
	require.NoError(t, err)
	require.Equal(t, models.EnrollmentReactivated, outcome)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryEnrollIsIdempotentOnActivePair(t *testing.T) {
	db, mock, cleanup := newEnrollmentRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	rows := sqlmock.NewRows([]string{"id", "student_id", "subject_id", "academic_year", "status", "enrolled_at"}).
		AddRow("enr-1", "stu-1", "sub-1", "2026-27", models.EnrollmentStatusActive, time.Now())
	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").
		WithArgs("stu-1", "sub-1").
		WillReturnRows(rows)
	mock.ExpectCommit()

	outcome, err := repo.Enroll(context.Background(), "stu-1", "sub-1", "2026-27")
	require.NoError(t, err)
	require.Equal(t, models.EnrollmentAlreadyActive, outcome)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryUnenrollDropsActivePair(t *testing.T) {
	db, mock, cleanup := newEnrollmentRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	rows := sqlmock.NewRows([]string{"id", "status"}).
		AddRow("enr-1", models.EnrollmentStatusActive)
	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").
		WithArgs("stu-1", "sub-1").
		WillReturnRows(rows)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE enrollments SET status = $2 WHERE id = $1")).
		WithArgs("enr-1", models.EnrollmentStatusDropped).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	outcome, err := repo.Unenroll(context.Background(), "stu-1", "sub-1")
	require.NoError(t, err)
	require.Equal(t, models.EnrollmentDropped, outcome)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryUnenrollMissingPairReportsNotFound(t *testing.T) {
	db, mock, cleanup := newEnrollmentRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").
		WithArgs("stu-1", "sub-404").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectCommit()

	outcome, err := repo.Unenroll(context.Background(), "stu-1", "sub-404")
	require.NoError(t, err)
	require.Equal(t, models.EnrollmentNotFound, outcome)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryActiveStudentIDs(t *testing.T) {
	db, mock, cleanup := newEnrollmentRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	rows := sqlmock.NewRows([]string{"student_id"}).AddRow("stu-1").AddRow("stu-2")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT student_id FROM enrollments WHERE subject_id = $1 AND status = $2")).
		WithArgs("sub-1", models.EnrollmentStatusActive).
		WillReturnRows(rows)

	ids, err := repo.ActiveStudentIDs(context.Background(), "sub-1")
	require.NoError(t, err)
	require.Len(t, ids, 2)
	require.True(t, ids["stu-1"])
	require.True(t, ids["stu-2"])
	require.NoError(t, mock.ExpectationsWereMet())
}
