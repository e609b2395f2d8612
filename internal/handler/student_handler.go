package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gecr-dev/campus-api/internal/models"
	"github.com/gecr-dev/campus-api/internal/service"
	appErrors "github.com/gecr-dev/campus-api/pkg/errors"
	"github.com/gecr-dev/campus-api/pkg/response"
)

// StudentHandler exposes the student-facing endpoints: dashboard,
// attendance, notifications and events.
type StudentHandler struct {
	students      *service.StudentService
	attendance    *service.AttendanceService
	enrollments   *service.EnrollmentService
	notifications *service.NotificationService
	events        *service.EventService
	announcements *service.AnnouncementService
	dashboard     *service.DashboardService
}

// NewStudentHandler constructs StudentHandler.
func NewStudentHandler(
	students *service.StudentService,
	attendance *service.AttendanceService,
	enrollments *service.EnrollmentService,
	notifications *service.NotificationService,
	events *service.EventService,
	announcements *service.AnnouncementService,
	dashboard *service.DashboardService,
) *StudentHandler {
	return &StudentHandler{
		students:      students,
		attendance:    attendance,
		enrollments:   enrollments,
		notifications: notifications,
		events:        events,
		announcements: announcements,
		dashboard:     dashboard,
	}
}

// Dashboard returns the student landing page aggregate.
func (h *StudentHandler) Dashboard(c *gin.Context) {
	claims := claimsFromContext(c)
	dashboard, err := h.dashboard.StudentDashboard(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dashboard, nil)
}

func attendanceFilterFromQuery(c *gin.Context) models.AttendanceFilter {
	filter := models.AttendanceFilter{SubjectID: c.Query("subjectId")}
	if from := c.Query("from"); from != "" {
		if d, err := time.Parse("2006-01-02", from); err == nil {
			filter.DateFrom = &d
		}
	}
	if to := c.Query("to"); to != "" {
		if d, err := time.Parse("2006-01-02", to); err == nil {
			filter.DateTo = &d
		}
	}
	return filter
}

// AttendanceSummary returns the student's derived attendance view,
// optionally narrowed by subject and date range.
func (h *StudentHandler) AttendanceSummary(c *gin.Context) {
	claims := claimsFromContext(c)
	summary, err := h.attendance.Summary(c.Request.Context(), claims.UserID, attendanceFilterFromQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// AttendanceRecords returns the student's raw attendance records with
// optional subject and date filters.
func (h *StudentHandler) AttendanceRecords(c *gin.Context) {
	claims := claimsFromContext(c)
	filter := attendanceFilterFromQuery(c)
	filter.StudentID = claims.UserID
	records, err := h.attendance.Records(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, nil)
}

// Subjects returns the student's active enrollments.
func (h *StudentHandler) Subjects(c *gin.Context) {
	claims := claimsFromContext(c)
	subjects, err := h.enrollments.StudentSubjects(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, subjects, nil)
}

// Notifications lists the student's notifications, newest first.
func (h *StudentHandler) Notifications(c *gin.Context) {
	claims := claimsFromContext(c)
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	unreadOnly := c.Query("unread") == "true"

	notifications, pagination, err := h.notifications.List(c.Request.Context(), claims.UserID, claims.Role, unreadOnly, page, size)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, notifications, pagination)
}

// UnreadCount returns the badge count for the notification bell.
func (h *StudentHandler) UnreadCount(c *gin.Context) {
	claims := claimsFromContext(c)
	count, err := h.notifications.UnreadCount(c.Request.Context(), claims.UserID, claims.Role)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"unread": count}, nil)
}

// MarkNotificationRead flags one notification read.
func (h *StudentHandler) MarkNotificationRead(c *gin.Context) {
	claims := claimsFromContext(c)
	if err := h.notifications.MarkRead(c.Request.Context(), c.Param("id"), claims.UserID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// MarkAllNotificationsRead flags every unread notification read.
func (h *StudentHandler) MarkAllNotificationsRead(c *gin.Context) {
	claims := claimsFromContext(c)
	count, err := h.notifications.MarkAllRead(c.Request.Context(), claims.UserID, claims.Role)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"marked": count}, nil)
}

// Announcements lists current announcements.
func (h *StudentHandler) Announcements(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	announcements, err := h.announcements.List(c.Request.Context(), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, announcements, nil)
}

// Announcement returns one announcement.
func (h *StudentHandler) Announcement(c *gin.Context) {
	announcement, err := h.announcements.Get(c.Request.Context(), c.Param("announcementId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, announcement, nil)
}

// Events lists upcoming events.
func (h *StudentHandler) Events(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	events, err := h.events.ListUpcoming(c.Request.Context(), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, events, nil)
}

// Event returns one event.
func (h *StudentHandler) Event(c *gin.Context) {
	event, err := h.events.Get(c.Request.Context(), c.Param("eventId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, event, nil)
}

// RegisterForEvent records the student's RSVP.
func (h *StudentHandler) RegisterForEvent(c *gin.Context) {
	claims := claimsFromContext(c)
	result, err := h.events.Register(c.Request.Context(), c.Param("eventId"), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// SetEmailNotifications toggles the student's email opt-in.
func (h *StudentHandler) SetEmailNotifications(c *gin.Context) {
	claims := claimsFromContext(c)
	var req struct {
		Enabled *bool `json:"enabled"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Enabled == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "enabled flag is required"))
		return
	}
	if err := h.students.SetEmailNotifications(c.Request.Context(), claims.UserID, *req.Enabled); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
