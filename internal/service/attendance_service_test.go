package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gecr-dev/campus-api/internal/importer"
	"github.com/gecr-dev/campus-api/internal/models"
)

type stubAttendanceRepo struct {
	aggregates []models.SubjectAttendance
	recent     []models.AttendanceRecordDetail
	bulk       []models.AttendanceRecord
	inserted   int
	updated    int
}

func (s *stubAttendanceRepo) BulkUpsert(_ context.Context, records []models.AttendanceRecord) (int, int, error) {
	s.bulk = append(s.bulk, records...)
	return s.inserted, s.updated, nil
}

func (s *stubAttendanceRepo) List(context.Context, models.AttendanceFilter) ([]models.AttendanceRecordDetail, error) {
	return nil, nil
}

func (s *stubAttendanceRepo) AggregateByStudent(context.Context, string, models.AttendanceFilter) ([]models.SubjectAttendance, error) {
	return s.aggregates, nil
}

func (s *stubAttendanceRepo) AggregateBySubject(context.Context, string) ([]models.StudentAttendanceTotals, error) {
	return nil, nil
}

func (s *stubAttendanceRepo) Recent(context.Context, string, models.AttendanceFilter, int) ([]models.AttendanceRecordDetail, error) {
	return s.recent, nil
}

type stubRollResolver struct {
	rolls map[string]string
}

func (s *stubRollResolver) MapRollNos(context.Context, []string) (map[string]string, error) {
	return s.rolls, nil
}

type stubEnrollmentChecker struct {
	enrolled map[string]bool
}

func (s *stubEnrollmentChecker) ActiveStudentIDs(context.Context, string) (map[string]bool, error) {
	return s.enrolled, nil
}

type stubSubjectReader struct {
	subject *models.Subject
}

func (s *stubSubjectReader) FindByID(context.Context, string) (*models.Subject, error) {
	return s.subject, nil
}

type stubPurger struct {
	patterns []string
}

func (s *stubPurger) DeleteByPattern(_ context.Context, pattern string) error {
	s.patterns = append(s.patterns, pattern)
	return nil
}

type stubImportObserver struct {
	rows map[string]int
}

func (s *stubImportObserver) ObserveImport(kind, disposition string, rows int) {
	if s.rows == nil {
		s.rows = map[string]int{}
	}
	s.rows[kind+"/"+disposition] += rows
}

func TestPercentage(t *testing.T) {
	tests := []struct {
		name    string
		present int
		total   int
		want    float64
	}{
		{"no classes yields zero", 0, 0, 0},
		{"all present", 10, 10, 100},
		{"half present", 5, 10, 50},
		{"rounds to two decimals", 1, 3, 33.33},
		{"two thirds", 2, 3, 66.67},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Percentage(tt.present, tt.total))
		})
	}
}

func TestAttendanceSummaryLateStaysInDenominator(t *testing.T) {
	repo := &stubAttendanceRepo{
		aggregates: []models.SubjectAttendance{
			{SubjectID: "sub-1", SubjectName: "Data Structures", TotalClasses: 10, Present: 6, Absent: 2, Late: 2},
		},
	}
	svc := NewAttendanceService(repo, nil, nil, nil, nil, nil, 10, nil, nil)

	summary, err := svc.Summary(context.Background(), "stu-1", models.AttendanceFilter{})
	require.NoError(t, err)

	// 6 present out of 10: the 2 late marks count as attended classes
	// but not as present.
	assert.Equal(t, 60.0, summary.OverallPercentage)
	assert.Equal(t, 60.0, summary.BySubject[0].Percentage)
	assert.Equal(t, 10, summary.TotalClasses)
	assert.Equal(t, 2, summary.Late)
}

func TestAttendanceSummaryZeroClasses(t *testing.T) {
	repo := &stubAttendanceRepo{
		aggregates: []models.SubjectAttendance{
			{SubjectID: "sub-1", SubjectName: "New Subject", TotalClasses: 0},
		},
	}
	svc := NewAttendanceService(repo, nil, nil, nil, nil, nil, 10, nil, nil)

	summary, err := svc.Summary(context.Background(), "stu-1", models.AttendanceFilter{})
	require.NoError(t, err)
	assert.Equal(t, 0.0, summary.OverallPercentage)
	assert.Equal(t, 0.0, summary.BySubject[0].Percentage)
}

func TestAttendanceSummaryAggregatesAcrossSubjects(t *testing.T) {
	repo := &stubAttendanceRepo{
		aggregates: []models.SubjectAttendance{
			{SubjectID: "sub-1", SubjectName: "A", TotalClasses: 10, Present: 10},
			{SubjectID: "sub-2", SubjectName: "B", TotalClasses: 10, Present: 0, Absent: 10},
		},
	}
	svc := NewAttendanceService(repo, nil, nil, nil, nil, nil, 10, nil, nil)

	summary, err := svc.Summary(context.Background(), "stu-1", models.AttendanceFilter{})
	require.NoError(t, err)
	assert.Equal(t, 50.0, summary.OverallPercentage)
	assert.Equal(t, 20, summary.TotalClasses)
	assert.Equal(t, 100.0, summary.BySubject[0].Percentage)
	assert.Equal(t, 0.0, summary.BySubject[1].Percentage)
}

func TestImportGridFiltersUnknownAndUnenrolledRolls(t *testing.T) {
	repo := &stubAttendanceRepo{inserted: 2}
	students := &stubRollResolver{rolls: map[string]string{
		"CS101": "stu-1",
		"CS102": "stu-2",
	}}
	enrollments := &stubEnrollmentChecker{enrolled: map[string]bool{"stu-1": true}}
	subjects := &stubSubjectReader{subject: &models.Subject{ID: "sub-1", FacultyID: "fac-1"}}
	purger := &stubPurger{}
	observer := &stubImportObserver{}
	svc := NewAttendanceService(repo, students, enrollments, subjects, purger, observer, 10, nil, nil)

	date := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	grid := importer.GridResult{
		Dates: []time.Time{date},
		Records: []importer.GridRecord{
			{RollNo: "CS101", Date: date, Status: models.AttendanceStatusPresent},
			{RollNo: "CS102", Date: date, Status: models.AttendanceStatusAbsent},
			{RollNo: "CS999", Date: date, Status: models.AttendanceStatusPresent},
		},
	}

	result, err := svc.ImportGrid(context.Background(), "fac-1", "sub-1", grid)
	require.NoError(t, err)

	// CS101 lands, CS102 exists but is not enrolled, CS999 is unknown.
	require.Len(t, repo.bulk, 1)
	assert.Equal(t, "stu-1", repo.bulk[0].StudentID)
	assert.Equal(t, []string{"CS999"}, result.SkippedRolls)
	assert.Equal(t, []string{"CS102"}, result.NotEnrolled)
	assert.Equal(t, 2, result.Inserted)

	assert.Equal(t, []string{"dashboard:student:stu-1"}, purger.patterns)
	assert.Equal(t, 2, observer.rows["attendance_grid/inserted"])
	assert.Equal(t, 1, observer.rows["attendance_grid/skipped"])
	assert.Equal(t, 1, observer.rows["attendance_grid/not_enrolled"])
}

func TestImportGridRejectsForeignSubject(t *testing.T) {
	subjects := &stubSubjectReader{subject: &models.Subject{ID: "sub-1", FacultyID: "fac-other"}}
	svc := NewAttendanceService(&stubAttendanceRepo{}, nil, nil, subjects, nil, nil, 10, nil, nil)

	_, err := svc.ImportGrid(context.Background(), "fac-1", "sub-1", importer.GridResult{})
	require.Error(t, err)
}

func TestMarkCollectsRejectionsWithoutAbortingBatch(t *testing.T) {
	repo := &stubAttendanceRepo{inserted: 1}
	subjects := &stubSubjectReader{subject: &models.Subject{ID: "sub-1", FacultyID: "fac-1"}}
	enrollments := &stubEnrollmentChecker{enrolled: map[string]bool{"stu-1": true}}
	purger := &stubPurger{}
	svc := NewAttendanceService(repo, nil, enrollments, subjects, purger, nil, 10, nil, nil)

	result, err := svc.Mark(context.Background(), "fac-1", MarkAttendanceRequest{
		SubjectID: "sub-1",
		Date:      time.Date(2026, 2, 1, 9, 30, 0, 0, time.UTC),
		Entries: []MarkEntry{
			{StudentID: "stu-1", Status: models.AttendanceStatusPresent},
			{StudentID: "stu-2", Status: models.AttendanceStatusPresent},
			{StudentID: "stu-3", Status: "maybe"},
		},
	})
	require.NoError(t, err)

	// stu-1 lands, stu-2 is not enrolled, stu-3 carries a bogus status.
	require.Len(t, repo.bulk, 1)
	assert.Equal(t, "stu-1", repo.bulk[0].StudentID)
	assert.Equal(t, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), repo.bulk[0].Date)
	assert.Equal(t, 1, result.Marked)
	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0], "stu-2")
	assert.Contains(t, result.Errors[1], "stu-3")

	// Only the saved student's dashboard snapshot is dropped.
	assert.Equal(t, []string{"dashboard:student:stu-1"}, purger.patterns)
}
