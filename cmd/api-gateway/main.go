package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/gecr-dev/campus-api/internal/handler"
	"github.com/gecr-dev/campus-api/internal/importer"
	appmiddleware "github.com/gecr-dev/campus-api/internal/middleware"
	"github.com/gecr-dev/campus-api/internal/repository"
	"github.com/gecr-dev/campus-api/internal/service"
	"github.com/gecr-dev/campus-api/pkg/cache"
	"github.com/gecr-dev/campus-api/pkg/config"
	"github.com/gecr-dev/campus-api/pkg/database"
	"github.com/gecr-dev/campus-api/pkg/logger"
	"github.com/gecr-dev/campus-api/pkg/mailer"
	corsmiddleware "github.com/gecr-dev/campus-api/pkg/middleware/cors"
	reqidmiddleware "github.com/gecr-dev/campus-api/pkg/middleware/requestid"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("database connection failed", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, dashboard cache disabled", "error", err)
		redisClient = nil
	}

	var mail mailer.Mailer
	if cfg.SMTP.Host != "" {
		mail = mailer.NewSMTP(cfg.SMTP, logr)
	} else {
		mail = mailer.NewLog(logr)
	}

	validate := validator.New()

	studentRepo := repository.NewStudentRepository(db)
	facultyRepo := repository.NewFacultyRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	announcementRepo := repository.NewAnnouncementRepository(db)
	eventRepo := repository.NewEventRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	timetableRepo := repository.NewTimetableRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsSvc := service.NewMetricsService()
	authSvc := service.NewAuthService(studentRepo, facultyRepo, cfg.JWT, validate, logr)
	notificationSvc := service.NewNotificationService(notificationRepo, studentRepo, mail, metricsSvc, logr)
	studentSvc := service.NewStudentService(studentRepo, notificationSvc, metricsSvc, cfg.SMTP.AppName, validate, logr)
	enrollmentSvc := service.NewEnrollmentService(enrollmentRepo, studentRepo, subjectRepo, cacheRepo, validate, logr)
	attendanceSvc := service.NewAttendanceService(attendanceRepo, studentRepo, enrollmentRepo, subjectRepo, cacheRepo, metricsSvc, 10, validate, logr)
	announcementSvc := service.NewAnnouncementService(announcementRepo, notificationSvc, validate, logr)
	eventSvc := service.NewEventService(eventRepo, notificationSvc, validate, logr)
	dashboardSvc := service.NewDashboardService(
		studentRepo, facultyRepo, subjectRepo,
		attendanceSvc, assignmentRepo, timetableRepo,
		notificationSvc, eventRepo, cacheRepo,
		service.DashboardOptions{
			CacheEnabled: cfg.Dashboard.CacheEnabled,
			CacheTTL:     cfg.Dashboard.CacheTTL,
			RecentLimit:  cfg.Dashboard.RecentLimit,
		},
		logr,
	)

	authHandler := handler.NewAuthHandler(authSvc)
	facultyHandler := handler.NewFacultyHandler(
		studentSvc, attendanceSvc, enrollmentSvc, announcementSvc, eventSvc, dashboardSvc,
		importer.RosterOptions{
			DefaultPassword: cfg.Import.DefaultPassword,
			MaxRows:         cfg.Import.MaxRows,
		},
	)
	studentHandler := handler.NewStudentHandler(
		studentSvc, attendanceSvc, enrollmentSvc, notificationSvc, eventSvc, announcementSvc, dashboardSvc,
	)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(appmiddleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	handler.RegisterRoutes(r, cfg.APIPrefix, authSvc, authHandler, facultyHandler, studentHandler)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
