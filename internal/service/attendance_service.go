package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/gecr-dev/campus-api/internal/importer"
	"github.com/gecr-dev/campus-api/internal/models"
	appErrors "github.com/gecr-dev/campus-api/pkg/errors"
)

type attendanceRepository interface {
	BulkUpsert(ctx context.Context, records []models.AttendanceRecord) (inserted, updated int, err error)
	List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecordDetail, error)
	AggregateByStudent(ctx context.Context, studentID string, filter models.AttendanceFilter) ([]models.SubjectAttendance, error)
	AggregateBySubject(ctx context.Context, subjectID string) ([]models.StudentAttendanceTotals, error)
	Recent(ctx context.Context, studentID string, filter models.AttendanceFilter, limit int) ([]models.AttendanceRecordDetail, error)
}

type rollResolver interface {
	MapRollNos(ctx context.Context, rollNos []string) (map[string]string, error)
}

type enrollmentChecker interface {
	ActiveStudentIDs(ctx context.Context, subjectID string) (map[string]bool, error)
}

type importObserver interface {
	ObserveImport(kind, disposition string, rows int)
}

// MarkEntry is one student's mark within a manual attendance batch.
type MarkEntry struct {
	StudentID string                  `json:"student_id" validate:"required"`
	Status    models.AttendanceStatus `json:"status" validate:"required"`
}

// MarkAttendanceRequest records one class session: a subject, a date and
// one mark per student.
type MarkAttendanceRequest struct {
	SubjectID string      `json:"subject_id" validate:"required"`
	Date      time.Time   `json:"date" validate:"required"`
	Entries   []MarkEntry `json:"entries" validate:"required,min=1,dive"`
}

// MarkResult reports how many entries were saved and which were
// rejected. Rejections do not abort the batch.
type MarkResult struct {
	Marked int      `json:"marked"`
	Errors []string `json:"errors,omitempty"`
}

// GridImportResult summarizes what a grid upload did.
type GridImportResult struct {
	Inserted     int                 `json:"inserted"`
	Updated      int                 `json:"updated"`
	SkippedRolls []string            `json:"skipped_unknown_rolls,omitempty"`
	NotEnrolled  []string            `json:"not_enrolled_rolls,omitempty"`
	Dates        []time.Time         `json:"dates"`
	Errors       []importer.RowError `json:"errors,omitempty"`
}

// AttendanceService marks attendance and derives summaries. The
// attendance percentage counts only present marks in the numerator
// while late marks stay in the denominator, so a habitually late
// student sees the hit in their percentage.
type AttendanceService struct {
	repo        attendanceRepository
	students    rollResolver
	enrollments enrollmentChecker
	subjects    subjectReader
	cache       cachePurger
	metrics     importObserver
	recentLimit int
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewAttendanceService constructs AttendanceService. cache and metrics
// may be nil.
func NewAttendanceService(repo attendanceRepository, students rollResolver, enrollments enrollmentChecker, subjects subjectReader, cache cachePurger, metrics importObserver, recentLimit int, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if recentLimit <= 0 {
		recentLimit = 10
	}
	return &AttendanceService{
		repo:        repo,
		students:    students,
		enrollments: enrollments,
		subjects:    subjects,
		cache:       cache,
		metrics:     metrics,
		recentLimit: recentLimit,
		validator:   validate,
		logger:      logger,
	}
}

// Mark records one class session's marks, overwriting any existing mark
// for the same student, subject and date. Entries for students without
// an active enrollment or with an unknown status are collected as
// errors while the rest of the batch proceeds.
func (s *AttendanceService) Mark(ctx context.Context, facultyID string, req MarkAttendanceRequest) (*MarkResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}
	if err := s.checkOwnership(ctx, facultyID, req.SubjectID); err != nil {
		return nil, err
	}
	enrolled, err := s.enrollments.ActiveStudentIDs(ctx, req.SubjectID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollments")
	}

	date := req.Date.UTC().Truncate(24 * time.Hour)
	result := &MarkResult{}
	var records []models.AttendanceRecord
	for _, entry := range req.Entries {
		if !entry.Status.Valid() {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: unknown status %q", entry.StudentID, entry.Status))
			continue
		}
		if !enrolled[entry.StudentID] {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %s", entry.StudentID, appErrors.ErrNotEnrolled.Message))
			continue
		}
		records = append(records, models.AttendanceRecord{
			StudentID: entry.StudentID,
			SubjectID: req.SubjectID,
			Date:      date,
			Status:    entry.Status,
		})
	}

	if len(records) > 0 {
		inserted, updated, err := s.repo.BulkUpsert(ctx, records)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save attendance")
		}
		result.Marked = inserted + updated
		for _, record := range records {
			purgeStudentDashboard(ctx, s.cache, s.logger, record.StudentID)
		}
	}
	return result, nil
}

// ImportGrid applies a parsed attendance grid to one subject. Rolls
// that resolve to no student are reported as skipped; students without
// an active enrollment in the subject are reported as not enrolled.
// Everything that survives both filters lands in one upsert batch.
func (s *AttendanceService) ImportGrid(ctx context.Context, facultyID, subjectID string, grid importer.GridResult) (*GridImportResult, error) {
	if err := s.checkOwnership(ctx, facultyID, subjectID); err != nil {
		return nil, err
	}
	result := &GridImportResult{Dates: grid.Dates, Errors: grid.Errors}
	if len(grid.Records) == 0 {
		return result, nil
	}

	rollSet := make(map[string]bool)
	var rolls []string
	for _, rec := range grid.Records {
		if !rollSet[rec.RollNo] {
			rollSet[rec.RollNo] = true
			rolls = append(rolls, rec.RollNo)
		}
	}
	resolved, err := s.students.MapRollNos(ctx, rolls)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve roll numbers")
	}
	enrolled, err := s.enrollments.ActiveStudentIDs(ctx, subjectID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollments")
	}

	skipped := make(map[string]bool)
	notEnrolled := make(map[string]bool)
	var records []models.AttendanceRecord
	for _, rec := range grid.Records {
		studentID, ok := resolved[rec.RollNo]
		if !ok {
			skipped[rec.RollNo] = true
			continue
		}
		if !enrolled[studentID] {
			notEnrolled[rec.RollNo] = true
			continue
		}
		records = append(records, models.AttendanceRecord{
			StudentID: studentID,
			SubjectID: subjectID,
			Date:      rec.Date,
			Status:    rec.Status,
		})
	}

	inserted, updated, err := s.repo.BulkUpsert(ctx, records)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save attendance batch")
	}
	result.Inserted = inserted
	result.Updated = updated
	result.SkippedRolls = sortedKeys(skipped)
	result.NotEnrolled = sortedKeys(notEnrolled)

	purged := make(map[string]bool, len(records))
	for _, record := range records {
		if purged[record.StudentID] {
			continue
		}
		purged[record.StudentID] = true
		purgeStudentDashboard(ctx, s.cache, s.logger, record.StudentID)
	}
	if s.metrics != nil {
		s.metrics.ObserveImport("attendance_grid", "inserted", inserted)
		s.metrics.ObserveImport("attendance_grid", "updated", updated)
		s.metrics.ObserveImport("attendance_grid", "skipped", len(result.SkippedRolls))
		s.metrics.ObserveImport("attendance_grid", "not_enrolled", len(result.NotEnrolled))
		s.metrics.ObserveImport("attendance_grid", "errored", len(result.Errors))
	}

	s.logger.Info("attendance grid imported",
		zap.String("subject_id", subjectID),
		zap.Int("inserted", inserted),
		zap.Int("updated", updated),
		zap.Int("skipped_rolls", len(result.SkippedRolls)),
		zap.Int("not_enrolled", len(result.NotEnrolled)))
	return result, nil
}

// Summary derives the student's attendance view: overall and
// per-subject percentages plus the newest records. The filter's subject
// and date bounds narrow both; its StudentID field is ignored.
func (s *AttendanceService) Summary(ctx context.Context, studentID string, filter models.AttendanceFilter) (*models.AttendanceSummary, error) {
	bySubject, err := s.repo.AggregateByStudent(ctx, studentID, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate attendance")
	}

	summary := &models.AttendanceSummary{BySubject: bySubject}
	for i := range bySubject {
		bySubject[i].Percentage = Percentage(bySubject[i].Present, bySubject[i].TotalClasses)
		summary.TotalClasses += bySubject[i].TotalClasses
		summary.Present += bySubject[i].Present
		summary.Absent += bySubject[i].Absent
		summary.Late += bySubject[i].Late
	}
	summary.OverallPercentage = Percentage(summary.Present, summary.TotalClasses)

	recent, err := s.repo.Recent(ctx, studentID, filter, s.recentLimit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load recent attendance")
	}
	summary.RecentRecords = recent
	return summary, nil
}

// Records returns the student's attendance records with optional
// subject and date filters.
func (s *AttendanceService) Records(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecordDetail, error) {
	records, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance")
	}
	return records, nil
}

// Register returns the per-student tallies for a subject the faculty
// member owns, used for the printable register.
func (s *AttendanceService) Register(ctx context.Context, facultyID, subjectID string) ([]models.StudentAttendanceTotals, error) {
	if err := s.checkOwnership(ctx, facultyID, subjectID); err != nil {
		return nil, err
	}
	totals, err := s.repo.AggregateBySubject(ctx, subjectID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate subject attendance")
	}
	for i := range totals {
		totals[i].Percentage = Percentage(totals[i].Present, totals[i].TotalClasses)
	}
	return totals, nil
}

func (s *AttendanceService) checkOwnership(ctx context.Context, facultyID, subjectID string) error {
	subject, err := s.subjects.FindByID(ctx, subjectID)
	if err != nil {
		return appErrors.Clone(appErrors.ErrNotFound, "subject not found")
	}
	if subject.FacultyID != facultyID {
		return appErrors.Clone(appErrors.ErrForbidden, "subject belongs to another faculty member")
	}
	return nil
}

// Percentage returns present/total as a percentage rounded to two
// decimals, 0 when there are no classes.
func Percentage(present, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(present)/float64(total)*10000) / 100
}

func sortedKeys(set map[string]bool) []string {
	if len(set) == 0 {
		return nil
	}
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
