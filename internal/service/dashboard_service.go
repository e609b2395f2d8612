package service

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"

	"github.com/gecr-dev/campus-api/internal/models"
	appErrors "github.com/gecr-dev/campus-api/pkg/errors"
)

type attendanceSummarizer interface {
	Summary(ctx context.Context, studentID string, filter models.AttendanceFilter) (*models.AttendanceSummary, error)
}

type assignmentReader interface {
	ListPendingForStudent(ctx context.Context, studentID string) ([]models.PendingAssignment, error)
	ListRecentGraded(ctx context.Context, studentID string, limit int) ([]models.GradedSubmission, error)
	ListUngradedByFaculty(ctx context.Context, facultyID string) ([]models.UngradedCount, error)
}

type timetableReader interface {
	ListForDay(ctx context.Context, department string, semester, dayOfWeek int) ([]models.TimetableSlotDetail, error)
	ListForFacultyDay(ctx context.Context, facultyID string, dayOfWeek int) ([]models.TimetableSlotDetail, error)
}

type unreadCounter interface {
	UnreadCount(ctx context.Context, recipientID string, role models.UserRole) (int, error)
}

type upcomingEventLister interface {
	ListUpcoming(ctx context.Context, limit int) ([]models.EventDetail, error)
}

type facultyReader interface {
	FindByID(ctx context.Context, id string) (*models.Faculty, error)
}

type facultySubjectLister interface {
	ListByFaculty(ctx context.Context, facultyID string) ([]models.FacultySubjectSummary, error)
	CountDistinctStudents(ctx context.Context, facultyID string) (int, error)
}

type dashboardCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// cachePurger is the slice of the cache that write paths need to drop
// stale dashboard snapshots.
type cachePurger interface {
	DeleteByPattern(ctx context.Context, pattern string) error
}

func studentDashboardKey(studentID string) string {
	return "dashboard:student:" + studentID
}

// purgeStudentDashboard drops a student's cached dashboard after a
// write that changes what it shows. Best effort; a failure only means
// the snapshot lives until its TTL.
func purgeStudentDashboard(ctx context.Context, cache cachePurger, logger *zap.Logger, studentID string) {
	if cache == nil {
		return
	}
	if err := cache.DeleteByPattern(ctx, studentDashboardKey(studentID)); err != nil {
		logger.Warn("dashboard cache invalidation failed",
			zap.String("student_id", studentID),
			zap.Error(err))
	}
}

// DashboardOptions tune dashboard caching and list sizes.
type DashboardOptions struct {
	CacheEnabled bool
	CacheTTL     time.Duration
	RecentLimit  int
}

// DashboardService assembles the student and faculty landing pages from
// the underlying aggregates. Snapshots are cached briefly; the cache is
// strictly best effort and every miss or cache failure falls through to
// the live queries.
type DashboardService struct {
	students    studentReader
	faculty     facultyReader
	subjects    facultySubjectLister
	attendance  attendanceSummarizer
	assignments assignmentReader
	timetable   timetableReader
	unread      unreadCounter
	events      upcomingEventLister
	cache       dashboardCache
	opts        DashboardOptions
	logger      *zap.Logger
	now         func() time.Time
}

// NewDashboardService constructs DashboardService. cache may be nil.
func NewDashboardService(
	students studentReader,
	faculty facultyReader,
	subjects facultySubjectLister,
	attendance attendanceSummarizer,
	assignments assignmentReader,
	timetable timetableReader,
	unread unreadCounter,
	events upcomingEventLister,
	cache dashboardCache,
	opts DashboardOptions,
	logger *zap.Logger,
) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.RecentLimit <= 0 {
		opts.RecentLimit = 5
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = time.Minute
	}
	return &DashboardService{
		students:    students,
		faculty:     faculty,
		subjects:    subjects,
		attendance:  attendance,
		assignments: assignments,
		timetable:   timetable,
		unread:      unread,
		events:      events,
		cache:       cache,
		opts:        opts,
		logger:      logger,
		now:         time.Now,
	}
}

// StudentDashboard builds the student landing page.
func (s *DashboardService) StudentDashboard(ctx context.Context, studentID string) (*models.StudentDashboard, error) {
	cacheKey := studentDashboardKey(studentID)
	if s.cacheEnabled() {
		var cached models.StudentDashboard
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			return &cached, nil
		}
	}

	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	summary, err := s.attendance.Summary(ctx, studentID, models.AttendanceFilter{})
	if err != nil {
		return nil, err
	}
	pending, err := s.assignments.ListPendingForStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load pending assignments")
	}
	graded, err := s.assignments.ListRecentGraded(ctx, studentID, s.opts.RecentLimit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load graded submissions")
	}

	var slots []models.TimetableSlotDetail
	if student.Department != nil && student.Semester != nil {
		weekday := int(s.now().Weekday())
		slots, err = s.timetable.ListForDay(ctx, *student.Department, *student.Semester, weekday)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable")
		}
	}

	unread, err := s.unread.UnreadCount(ctx, studentID, models.RoleStudent)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count notifications")
	}
	upcoming, err := s.events.ListUpcoming(ctx, s.opts.RecentLimit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load events")
	}
	eventList := make([]models.Event, 0, len(upcoming))
	for _, e := range upcoming {
		eventList = append(eventList, e.Event)
	}

	dashboard := &models.StudentDashboard{
		Student:          *student,
		Attendance:       *summary,
		PendingWork:      pending,
		RecentGrades:     graded,
		TodaysTimetable:  slots,
		UnreadCount:      unread,
		UpcomingEvents:   eventList,
		EnrolledSubjects: summary.BySubject,
	}
	s.store(ctx, cacheKey, dashboard)
	return dashboard, nil
}

// FacultyDashboard builds the faculty landing page.
func (s *DashboardService) FacultyDashboard(ctx context.Context, facultyID string) (*models.FacultyDashboard, error) {
	cacheKey := "dashboard:faculty:" + facultyID
	if s.cacheEnabled() {
		var cached models.FacultyDashboard
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			return &cached, nil
		}
	}

	faculty, err := s.faculty.FindByID(ctx, facultyID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "faculty not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load faculty")
	}

	subjects, err := s.subjects.ListByFaculty(ctx, facultyID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subjects")
	}
	totalStudents, err := s.subjects.CountDistinctStudents(ctx, facultyID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count students")
	}
	ungraded, err := s.assignments.ListUngradedByFaculty(ctx, facultyID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load ungraded submissions")
	}
	slots, err := s.timetable.ListForFacultyDay(ctx, facultyID, int(s.now().Weekday()))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable")
	}
	unread, err := s.unread.UnreadCount(ctx, facultyID, models.RoleFaculty)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count notifications")
	}

	dashboard := &models.FacultyDashboard{
		Faculty:         *faculty,
		Subjects:        subjects,
		TotalStudents:   totalStudents,
		UngradedWork:    ungraded,
		TodaysTimetable: slots,
		UnreadCount:     unread,
	}
	s.store(ctx, cacheKey, dashboard)
	return dashboard, nil
}

func (s *DashboardService) cacheEnabled() bool {
	return s.opts.CacheEnabled && s.cache != nil
}

func (s *DashboardService) store(ctx context.Context, key string, value interface{}) {
	if !s.cacheEnabled() {
		return
	}
	if err := s.cache.Set(ctx, key, value, s.opts.CacheTTL); err != nil {
		s.logger.Warn("dashboard cache write failed", zap.String("key", key), zap.Error(err))
	}
}
