package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/gecr-dev/campus-api/internal/middleware"
	"github.com/gecr-dev/campus-api/internal/models"
	"github.com/gecr-dev/campus-api/internal/service"
)

// RegisterRoutes mounts every API route under the given prefix.
func RegisterRoutes(
	r *gin.Engine,
	prefix string,
	auth *service.AuthService,
	authHandler *AuthHandler,
	facultyHandler *FacultyHandler,
	studentHandler *StudentHandler,
) {
	api := r.Group(prefix)

	api.POST("/auth/login", authHandler.Login)

	faculty := api.Group("/faculty")
	faculty.Use(middleware.JWT(auth), middleware.RequireRoles(models.RoleFaculty))
	{
		faculty.GET("/dashboard", facultyHandler.Dashboard)

		faculty.POST("/students", facultyHandler.CreateStudent)
		faculty.POST("/students/import", facultyHandler.UploadRoster)
		faculty.GET("/students/import/template", facultyHandler.RosterTemplate)

		faculty.POST("/attendance", facultyHandler.MarkAttendance)
		faculty.POST("/subjects/:subjectId/attendance/import", facultyHandler.UploadAttendanceGrid)
		faculty.GET("/subjects/:subjectId/attendance/register", facultyHandler.AttendanceRegister)
		faculty.GET("/subjects/:subjectId/roster", facultyHandler.Roster)

		faculty.POST("/enrollments", facultyHandler.Enroll)
		faculty.DELETE("/enrollments", facultyHandler.Unenroll)

		faculty.POST("/announcements", facultyHandler.CreateAnnouncement)
		faculty.POST("/events", facultyHandler.CreateEvent)
		faculty.GET("/events/:eventId/registrations", facultyHandler.EventRegistrations)
	}

	student := api.Group("/student")
	student.Use(middleware.JWT(auth), middleware.RequireRoles(models.RoleStudent))
	{
		student.GET("/dashboard", studentHandler.Dashboard)
		student.GET("/subjects", studentHandler.Subjects)

		student.GET("/attendance", studentHandler.AttendanceSummary)
		student.GET("/attendance/records", studentHandler.AttendanceRecords)

		student.GET("/notifications", studentHandler.Notifications)
		student.GET("/notifications/unread", studentHandler.UnreadCount)
		student.PUT("/notifications/:id/read", studentHandler.MarkNotificationRead)
		student.PUT("/notifications/read-all", studentHandler.MarkAllNotificationsRead)

		student.GET("/announcements", studentHandler.Announcements)
		student.GET("/announcements/:announcementId", studentHandler.Announcement)
		student.GET("/events", studentHandler.Events)
		student.GET("/events/:eventId", studentHandler.Event)
		student.POST("/events/:eventId/register", studentHandler.RegisterForEvent)

		student.PUT("/preferences/email", studentHandler.SetEmailNotifications)
	}
}
