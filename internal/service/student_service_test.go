package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/gecr-dev/campus-api/internal/importer"
	"github.com/gecr-dev/campus-api/internal/models"
	appErrors "github.com/gecr-dev/campus-api/pkg/errors"
)

type stubStudentRepo struct {
	byRoll    map[string]*models.Student
	byEmail   map[string]*models.Student
	created   []models.Student
	createErr error
}

func newStubStudentRepo() *stubStudentRepo {
	return &stubStudentRepo{
		byRoll:  map[string]*models.Student{},
		byEmail: map[string]*models.Student{},
	}
}

func (s *stubStudentRepo) FindByID(context.Context, string) (*models.Student, error) {
	return nil, sql.ErrNoRows
}

func (s *stubStudentRepo) FindByEmail(_ context.Context, email string) (*models.Student, error) {
	if st, ok := s.byEmail[email]; ok {
		return st, nil
	}
	return nil, sql.ErrNoRows
}

func (s *stubStudentRepo) FindByRollNo(_ context.Context, rollNo string) (*models.Student, error) {
	if st, ok := s.byRoll[rollNo]; ok {
		return st, nil
	}
	return nil, sql.ErrNoRows
}

func (s *stubStudentRepo) Create(_ context.Context, student *models.Student) error {
	if s.createErr != nil {
		return s.createErr
	}
	student.ID = "stu-" + student.RollNo
	s.created = append(s.created, *student)
	s.byRoll[student.RollNo] = student
	s.byEmail[student.Email] = student
	return nil
}

func (s *stubStudentRepo) List(context.Context, models.StudentFilter) ([]models.Student, int, error) {
	return nil, 0, nil
}

func (s *stubStudentRepo) UpdateEmailNotifications(context.Context, string, bool) error {
	return nil
}

type stubStudentNotifier struct {
	notifications []models.Notification
}

func (s *stubStudentNotifier) Notify(_ context.Context, n models.Notification) error {
	s.notifications = append(s.notifications, n)
	return nil
}

func TestCreateStudentRejectsDuplicateRoll(t *testing.T) {
	repo := newStubStudentRepo()
	repo.byRoll["CS101"] = &models.Student{ID: "stu-old", RollNo: "CS101"}
	svc := NewStudentService(repo, nil, nil, "Campus Portal", nil, nil)

	_, err := svc.Create(context.Background(), CreateStudentRequest{
		RollNo:   "CS101",
		Name:     "Priya",
		Email:    "priya@college.edu",
		Password: "secret123",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.created)
}

func TestCreateStudentHashesPasswordAndWelcomes(t *testing.T) {
	repo := newStubStudentRepo()
	notifier := &stubStudentNotifier{}
	svc := NewStudentService(repo, notifier, nil, "Campus Portal", nil, nil)

	student, err := svc.Create(context.Background(), CreateStudentRequest{
		RollNo:   "CS102",
		Name:     "Priya",
		Email:    "priya@college.edu",
		Password: "secret123",
	})
	require.NoError(t, err)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(student.PasswordHash), []byte("secret123")))
	require.Len(t, notifier.notifications, 1)
	assert.Equal(t, student.ID, notifier.notifications[0].RecipientID)
}

func TestImportRosterSkipsExistingRollAndEmail(t *testing.T) {
	repo := newStubStudentRepo()
	repo.byRoll["CS101"] = &models.Student{ID: "stu-old", RollNo: "CS101"}
	repo.byEmail["taken@college.edu"] = &models.Student{ID: "stu-other"}
	notifier := &stubStudentNotifier{}
	svc := NewStudentService(repo, notifier, nil, "Campus Portal", nil, nil)

	dept := "CSE"
	parsed := importer.RosterResult{
		TotalRows:   3,
		TotalParsed: 3,
		Students: []importer.RosterStudent{
			{RollNo: "CS101", Name: "Duplicate Roll", Email: "dup@college.edu", Password: "student123"},
			{RollNo: "CS102", Name: "Duplicate Email", Email: "taken@college.edu", Password: "student123"},
			{RollNo: "CS103", Name: "Fresh Student", Email: "fresh@college.edu", Password: "student123", Department: &dept},
		},
	}

	report, err := svc.ImportRoster(context.Background(), parsed)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Created)
	assert.Equal(t, 2, report.Skipped)
	assert.ElementsMatch(t, []string{"CS101", "CS102"}, report.SkippedRoll)
	require.Len(t, repo.created, 1)
	assert.Equal(t, "CS103", repo.created[0].RollNo)
	assert.True(t, repo.created[0].Active)
	assert.True(t, repo.created[0].EmailNotifications)
}

func TestImportRosterHashesPasswords(t *testing.T) {
	repo := newStubStudentRepo()
	svc := NewStudentService(repo, nil, nil, "Campus Portal", nil, nil)

	parsed := importer.RosterResult{
		TotalRows: 1,
		Students: []importer.RosterStudent{
			{RollNo: "CS201", Name: "Asha Rao", Email: "asha@college.edu", Password: "student123"},
		},
	}
	_, err := svc.ImportRoster(context.Background(), parsed)
	require.NoError(t, err)

	require.Len(t, repo.created, 1)
	hash := repo.created[0].PasswordHash
	assert.NotEqual(t, "student123", hash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("student123")))
}

func TestImportRosterWelcomesEachCreatedStudent(t *testing.T) {
	repo := newStubStudentRepo()
	notifier := &stubStudentNotifier{}
	svc := NewStudentService(repo, notifier, nil, "Campus Portal", nil, nil)

	parsed := importer.RosterResult{
		TotalRows: 2,
		Students: []importer.RosterStudent{
			{RollNo: "CS301", Name: "One", Email: "one@college.edu", Password: "pw"},
			{RollNo: "CS302", Name: "Two", Email: "two@college.edu", Password: "pw"},
		},
	}
	_, err := svc.ImportRoster(context.Background(), parsed)
	require.NoError(t, err)

	require.Len(t, notifier.notifications, 2)
	for _, n := range notifier.notifications {
		assert.Equal(t, "Welcome to Campus Portal", n.Title)
		assert.Equal(t, models.CategorySystem, n.Category)
		require.NotNil(t, n.Link)
		assert.Equal(t, "/student/profile", *n.Link)
	}
}

func TestImportRosterCarriesParseErrorsIntoReport(t *testing.T) {
	repo := newStubStudentRepo()
	svc := NewStudentService(repo, nil, nil, "Campus Portal", nil, nil)

	parsed := importer.RosterResult{
		TotalRows: 2,
		Errors: []importer.RowError{
			{Row: 3, Message: "invalid email \"bad\""},
		},
		Students: []importer.RosterStudent{
			{RollNo: "CS401", Name: "Good Row", Email: "good@college.edu", Password: "pw"},
		},
	}
	report, err := svc.ImportRoster(context.Background(), parsed)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Created)
	assert.Equal(t, 1, report.Errored)
	require.Len(t, report.Errors, 1)
	assert.Equal(t, 3, report.Errors[0].Row)
}

func TestImportRosterReportsFailedInsertUnderSourceRow(t *testing.T) {
	repo := newStubStudentRepo()
	repo.createErr = sql.ErrConnDone
	svc := NewStudentService(repo, nil, nil, "Campus Portal", nil, nil)

	parsed := importer.RosterResult{
		TotalRows: 1,
		Students: []importer.RosterStudent{
			{Row: 7, RollNo: "CS501", Name: "Unlucky", Email: "unlucky@college.edu", Password: "pw"},
		},
	}
	report, err := svc.ImportRoster(context.Background(), parsed)
	require.NoError(t, err)

	assert.Zero(t, report.Created)
	assert.Equal(t, 1, report.Errored)
	require.Len(t, report.Errors, 1)
	assert.Equal(t, 7, report.Errors[0].Row)
	assert.Contains(t, report.Errors[0].Message, "CS501")
}

func TestImportRosterReportsRowDispositionsToMetrics(t *testing.T) {
	repo := newStubStudentRepo()
	repo.byRoll["CS101"] = &models.Student{ID: "stu-old", RollNo: "CS101"}
	observer := &stubImportObserver{}
	svc := NewStudentService(repo, nil, observer, "Campus Portal", nil, nil)

	parsed := importer.RosterResult{
		TotalRows: 3,
		Errors: []importer.RowError{
			{Row: 4, Message: "email is required"},
		},
		Students: []importer.RosterStudent{
			{Row: 2, RollNo: "CS101", Name: "Duplicate", Email: "dup@college.edu", Password: "pw"},
			{Row: 3, RollNo: "CS102", Name: "Fresh", Email: "fresh@college.edu", Password: "pw"},
		},
	}
	_, err := svc.ImportRoster(context.Background(), parsed)
	require.NoError(t, err)

	assert.Equal(t, 1, observer.rows["roster/created"])
	assert.Equal(t, 1, observer.rows["roster/skipped"])
	assert.Equal(t, 1, observer.rows["roster/errored"])
}
