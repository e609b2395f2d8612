package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gecr-dev/campus-api/internal/importer"
	"github.com/gecr-dev/campus-api/internal/service"
	appErrors "github.com/gecr-dev/campus-api/pkg/errors"
	"github.com/gecr-dev/campus-api/pkg/export"
	"github.com/gecr-dev/campus-api/pkg/response"
)

// FacultyHandler exposes the faculty-facing endpoints: roster and
// attendance uploads, enrollment management, announcements, events and
// the dashboard.
type FacultyHandler struct {
	students      *service.StudentService
	attendance    *service.AttendanceService
	enrollments   *service.EnrollmentService
	announcements *service.AnnouncementService
	events        *service.EventService
	dashboard     *service.DashboardService
	importOpts    importer.RosterOptions
}

// NewFacultyHandler constructs FacultyHandler.
func NewFacultyHandler(
	students *service.StudentService,
	attendance *service.AttendanceService,
	enrollments *service.EnrollmentService,
	announcements *service.AnnouncementService,
	events *service.EventService,
	dashboard *service.DashboardService,
	importOpts importer.RosterOptions,
) *FacultyHandler {
	return &FacultyHandler{
		students:      students,
		attendance:    attendance,
		enrollments:   enrollments,
		announcements: announcements,
		events:        events,
		dashboard:     dashboard,
		importOpts:    importOpts,
	}
}

// Dashboard returns the faculty landing page aggregate.
func (h *FacultyHandler) Dashboard(c *gin.Context) {
	claims := claimsFromContext(c)
	dashboard, err := h.dashboard.FacultyDashboard(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dashboard, nil)
}

// CreateStudent adds one student account.
func (h *FacultyHandler) CreateStudent(c *gin.Context) {
	var req service.CreateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	student, err := h.students.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, student)
}

// UploadRoster bulk-imports student accounts from a spreadsheet.
func (h *FacultyHandler) UploadRoster(c *gin.Context) {
	rows, err := readUpload(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	parsed := importer.ParseRoster(rows, h.importOpts)
	report, err := h.students.ImportRoster(c.Request.Context(), parsed)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// RosterTemplate serves the CSV template for roster uploads.
func (h *FacultyHandler) RosterTemplate(c *gin.Context) {
	payload, err := export.RosterTemplateCSV()
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="roster_template.csv"`)
	c.Data(http.StatusOK, "text/csv", payload)
}

// MarkAttendance records one class session's marks.
func (h *FacultyHandler) MarkAttendance(c *gin.Context) {
	claims := claimsFromContext(c)
	var req service.MarkAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.attendance.Mark(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// UploadAttendanceGrid imports a roll-by-date attendance sheet for one
// subject.
func (h *FacultyHandler) UploadAttendanceGrid(c *gin.Context) {
	claims := claimsFromContext(c)
	subjectID := c.Param("subjectId")

	rows, err := readUpload(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	grid := importer.ParseAttendanceGrid(rows)
	if len(grid.Records) == 0 && len(grid.Errors) > 0 {
		response.JSON(c, http.StatusUnprocessableEntity, gin.H{"errors": grid.Errors}, nil)
		return
	}
	result, err := h.attendance.ImportGrid(c.Request.Context(), claims.UserID, subjectID, grid)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// AttendanceRegister serves the subject's attendance register as a PDF.
func (h *FacultyHandler) AttendanceRegister(c *gin.Context) {
	claims := claimsFromContext(c)
	subjectID := c.Param("subjectId")

	totals, err := h.attendance.Register(c.Request.Context(), claims.UserID, subjectID)
	if err != nil {
		response.Error(c, err)
		return
	}
	rows := make([]export.RegisterRow, 0, len(totals))
	for _, t := range totals {
		rows = append(rows, export.RegisterRow{
			RollNo:  t.RollNo,
			Name:    t.Name,
			Present: t.Present,
			Absent:  t.Absent,
			Late:    t.Late,
			Percent: t.Percentage,
		})
	}
	payload, err := export.AttendanceRegisterPDF(c.Query("subjectName"), rows)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render register"))
		return
	}
	filename := fmt.Sprintf("attendance_register_%s.pdf", time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/pdf", payload)
}

// Enroll adds a student to one of the faculty member's subjects.
func (h *FacultyHandler) Enroll(c *gin.Context) {
	claims := claimsFromContext(c)
	var req service.EnrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.enrollments.Enroll(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Unenroll drops a student from one of the faculty member's subjects.
func (h *FacultyHandler) Unenroll(c *gin.Context) {
	claims := claimsFromContext(c)
	var req service.EnrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.enrollments.Unenroll(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Roster returns the subject's active enrollments.
func (h *FacultyHandler) Roster(c *gin.Context) {
	claims := claimsFromContext(c)
	roster, err := h.enrollments.Roster(c.Request.Context(), claims.UserID, c.Param("subjectId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, roster, nil)
}

// CreateAnnouncement stores and broadcasts an announcement.
func (h *FacultyHandler) CreateAnnouncement(c *gin.Context) {
	claims := claimsFromContext(c)
	var req service.CreateAnnouncementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.announcements.Create(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// CreateEvent stores and broadcasts an event.
func (h *FacultyHandler) CreateEvent(c *gin.Context) {
	claims := claimsFromContext(c)
	var req service.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.events.Create(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// EventRegistrations returns the RSVPs for one of the faculty member's
// events.
func (h *FacultyHandler) EventRegistrations(c *gin.Context) {
	claims := claimsFromContext(c)
	registrations, err := h.events.Registrations(c.Request.Context(), claims.UserID, c.Param("eventId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, registrations, nil)
}

// readUpload opens the multipart "file" field and decodes it into raw
// spreadsheet rows.
func readUpload(c *gin.Context) ([][]string, error) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "missing file upload")
	}
	file, err := fileHeader.Open()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "unreadable file upload")
	}
	defer file.Close()

	rows, err := importer.ReadRows(file, fileHeader.Filename)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "unsupported spreadsheet format")
	}
	return rows, nil
}
