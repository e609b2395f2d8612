package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gecr-dev/campus-api/internal/models"
	"github.com/gecr-dev/campus-api/pkg/mailer"
)

type stubNotificationRepo struct {
	created  []models.Notification
	inserted [][]models.Notification
}

func (s *stubNotificationRepo) Create(_ context.Context, n *models.Notification) error {
	s.created = append(s.created, *n)
	return nil
}

func (s *stubNotificationRepo) BulkInsert(_ context.Context, notifications []models.Notification) (int, error) {
	s.inserted = append(s.inserted, notifications)
	return len(notifications), nil
}

func (s *stubNotificationRepo) List(context.Context, string, models.UserRole, bool, int, int) ([]models.Notification, int, error) {
	return nil, 0, nil
}

func (s *stubNotificationRepo) UnreadCount(context.Context, string, models.UserRole) (int, error) {
	return 0, nil
}

func (s *stubNotificationRepo) MarkRead(context.Context, string, string) (bool, error) {
	return false, nil
}

func (s *stubNotificationRepo) MarkAllRead(context.Context, string, models.UserRole) (int, error) {
	return 0, nil
}

type stubStudentLister struct {
	students []models.Student
}

func (s *stubStudentLister) ListActive(context.Context) ([]models.Student, error) {
	return s.students, nil
}

type stubMailer struct {
	addresses []string
	result    mailer.BulkResult
}

func (s *stubMailer) SendBulk(_ context.Context, addresses []string, _, _ string) mailer.BulkResult {
	s.addresses = append(s.addresses, addresses...)
	return s.result
}

func activeStudents(n int) []models.Student {
	students := make([]models.Student, 0, n)
	for i := 0; i < n; i++ {
		students = append(students, models.Student{
			ID:                 string(rune('a' + i)),
			Email:              string(rune('a'+i)) + "@college.edu",
			EmailNotifications: i%2 == 0,
		})
	}
	return students
}

func TestFanOutAnnouncementReachesEveryActiveStudent(t *testing.T) {
	repo := &stubNotificationRepo{}
	students := &stubStudentLister{students: activeStudents(5)}
	mail := &stubMailer{result: mailer.BulkResult{Sent: 3}}
	svc := NewNotificationService(repo, students, mail, nil, nil)

	announcement := &models.Announcement{ID: "ann-1", Title: "Exam schedule", Message: "Mid-terms start Monday."}
	result, err := svc.FanOutAnnouncement(context.Background(), announcement)
	require.NoError(t, err)

	assert.Equal(t, 5, result.InAppNotified)
	require.Len(t, repo.inserted, 1)
	require.Len(t, repo.inserted[0], 5)
	for _, n := range repo.inserted[0] {
		assert.Equal(t, "📢 New Announcement: Exam schedule", n.Title)
		assert.Equal(t, models.CategoryAnnouncement, n.Category)
		require.NotNil(t, n.Link)
		assert.Equal(t, "/student/dashboard", *n.Link)
	}

	// Only opted-in students get the email leg.
	assert.Len(t, mail.addresses, 3)
	assert.Equal(t, 3, result.Email.Sent)
}

func TestFanOutEmailFailureDoesNotAffectInApp(t *testing.T) {
	repo := &stubNotificationRepo{}
	students := &stubStudentLister{students: activeStudents(4)}
	mail := &stubMailer{result: mailer.BulkResult{Sent: 0, Failed: 2}}
	svc := NewNotificationService(repo, students, mail, nil, nil)

	result, err := svc.FanOutAnnouncement(context.Background(), &models.Announcement{Title: "t", Message: "m"})
	require.NoError(t, err)
	assert.Equal(t, 4, result.InAppNotified)
	assert.Equal(t, 2, result.Email.Failed)
}

func TestFanOutWithoutMailerSkipsEmail(t *testing.T) {
	repo := &stubNotificationRepo{}
	students := &stubStudentLister{students: activeStudents(2)}
	svc := NewNotificationService(repo, students, nil, nil, nil)

	result, err := svc.FanOutAnnouncement(context.Background(), &models.Announcement{Title: "t", Message: "m"})
	require.NoError(t, err)
	assert.Equal(t, 2, result.InAppNotified)
	assert.Zero(t, result.Email.Sent)
	assert.Zero(t, result.Email.Failed)
}

func TestFanOutTwiceProducesTwoFullSets(t *testing.T) {
	repo := &stubNotificationRepo{}
	students := &stubStudentLister{students: activeStudents(3)}
	svc := NewNotificationService(repo, students, nil, nil, nil)

	announcement := &models.Announcement{ID: "ann-1", Title: "t", Message: "m"}
	_, err := svc.FanOutAnnouncement(context.Background(), announcement)
	require.NoError(t, err)
	_, err = svc.FanOutAnnouncement(context.Background(), announcement)
	require.NoError(t, err)

	require.Len(t, repo.inserted, 2)
	assert.Len(t, repo.inserted[0], 3)
	assert.Len(t, repo.inserted[1], 3)
}

func TestFanOutEventMessageCarriesTimeAndLocation(t *testing.T) {
	repo := &stubNotificationRepo{}
	students := &stubStudentLister{students: activeStudents(1)}
	svc := NewNotificationService(repo, students, nil, nil, nil)

	location := "Main Auditorium"
	event := &models.Event{
		Title:       "Tech Fest",
		Description: "Annual tech festival",
		StartTime:   time.Date(2026, 9, 12, 15, 30, 0, 0, time.UTC),
		Location:    &location,
	}
	_, err := svc.FanOutEvent(context.Background(), event)
	require.NoError(t, err)

	require.Len(t, repo.inserted, 1)
	n := repo.inserted[0][0]
	assert.Equal(t, "📅 New Event: Tech Fest", n.Title)
	assert.Equal(t, "Annual tech festival - September 12, 2026 at 3:30 PM at Main Auditorium", n.Message)
	require.NotNil(t, n.Link)
	assert.Equal(t, "/student/events", *n.Link)
}

func TestFanOutTruncatesLongMessages(t *testing.T) {
	repo := &stubNotificationRepo{}
	students := &stubStudentLister{students: activeStudents(1)}
	svc := NewNotificationService(repo, students, nil, nil, nil)

	long := strings.Repeat("x", 450)
	_, err := svc.FanOutAnnouncement(context.Background(), &models.Announcement{Title: "t", Message: long})
	require.NoError(t, err)

	require.Len(t, repo.inserted, 1)
	assert.Len(t, []rune(repo.inserted[0][0].Message), 200)
}

func TestFanOutWithNoActiveStudents(t *testing.T) {
	repo := &stubNotificationRepo{}
	students := &stubStudentLister{}
	svc := NewNotificationService(repo, students, nil, nil, nil)

	result, err := svc.FanOutAnnouncement(context.Background(), &models.Announcement{Title: "t", Message: "m"})
	require.NoError(t, err)
	assert.Zero(t, result.InAppNotified)
}
