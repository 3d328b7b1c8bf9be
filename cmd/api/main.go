package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/rotcph/rotc-portal-api/api/swagger"
	"github.com/rotcph/rotc-portal-api/internal/handler"
	"github.com/rotcph/rotc-portal-api/internal/middleware"
	"github.com/rotcph/rotc-portal-api/internal/models"
	"github.com/rotcph/rotc-portal-api/internal/repository"
	"github.com/rotcph/rotc-portal-api/internal/service"
	"github.com/rotcph/rotc-portal-api/pkg/cache"
	"github.com/rotcph/rotc-portal-api/pkg/config"
	"github.com/rotcph/rotc-portal-api/pkg/database"
	"github.com/rotcph/rotc-portal-api/pkg/export"
	"github.com/rotcph/rotc-portal-api/pkg/jobs"
	"github.com/rotcph/rotc-portal-api/pkg/logger"
	corsmiddleware "github.com/rotcph/rotc-portal-api/pkg/middleware/cors"
	reqidmiddleware "github.com/rotcph/rotc-portal-api/pkg/middleware/requestid"
	"github.com/rotcph/rotc-portal-api/pkg/storage"
)

// @title ROTC Portal API
// @version 1.0.0
// @description Administrative portal for cadet records, scores and grades
// @BasePath /api/v1
// @schemes http

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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	var cacheSvc *service.CacheService
	if cfg.Roster.CacheEnabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, roster cache disabled", "error", err)
		} else {
			defer redisClient.Close() //nolint:errcheck
			cacheRepo := repository.NewCacheRepository(redisClient, logr)
			cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Roster.CacheTTL, logr, true)
		}
	}

	userRepo := repository.NewUserRepository(db)
	cadetRepo := repository.NewCadetRepository(db)
	semesterRepo := repository.NewSemesterRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	aptitudeRepo := repository.NewAptitudeRepository(db)
	examRepo := repository.NewExamRepository(db)
	gradeRepo := repository.NewGradeRepository(db)
	issueRepo := repository.NewIssueRepository(db)
	documentRepo := repository.NewDocumentRepository(db)
	exportJobRepo := repository.NewExportJobRepository(db)

	gradeSvc := service.NewGradeService(attendanceRepo, aptitudeRepo, examRepo, gradeRepo, semesterRepo, cacheSvc, service.GradePolicy{
		PassingGrade:   cfg.Scoring.PassingGrade,
		DefaultMaxExam: cfg.Scoring.DefaultMaxExam,
	}, logr)

	authSvc := service.NewAuthService(userRepo, cadetRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "rotc-portal-api",
	})

	cadetSvc := service.NewCadetService(cadetRepo, userRepo, gradeSvc, validate, logr)
	semesterSvc := service.NewSemesterService(semesterRepo, cacheSvc, validate, logr)
	attendanceSvc := service.NewAttendanceService(attendanceRepo, cadetRepo, semesterRepo, gradeSvc, userRepo, cacheSvc, validate, logr)
	aptitudeSvc := service.NewAptitudeService(aptitudeRepo, cadetRepo, semesterRepo, gradeSvc, userRepo, cacheSvc, validate, logr)
	examSvc := service.NewExamService(examRepo, cadetRepo, semesterRepo, gradeSvc, userRepo, cacheSvc, cfg.Scoring.DefaultMaxExam, validate, logr)
	issueSvc := service.NewIssueService(issueRepo, validate, logr)

	var documentSvc *service.DocumentService
	if cfg.Documents.Enabled {
		documentStore, err := storage.NewLocalStorage(cfg.Documents.StorageDir)
		if err != nil {
			logr.Sugar().Fatalw("failed to init document storage", "error", err)
		}
		documentSigner := storage.NewSignedURLSigner(cfg.Documents.SignedURLSecret, cfg.Documents.SignedURLTTL)
		documentSvc = service.NewDocumentService(documentRepo, cadetRepo, documentStore, documentSigner, service.DocumentConfig{
			MaxFileSizeBytes: cfg.Documents.MaxFileSizeBytes,
			AllowedMIMEs:     cfg.Documents.AllowedMIMEs,
		}, logr)
	}

	var exportSvc *service.ExportService
	if cfg.Exports.Enabled {
		exportStore, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
		if err != nil {
			logr.Sugar().Fatalw("failed to init export storage", "error", err)
		}
		exportSigner := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
		exportSvc = service.NewExportService(exportJobRepo, gradeSvc, semesterRepo, exportStore, exportSigner,
			export.NewCSVExporter(), export.NewPDFExporter(), metricsSvc, jobs.QueueConfig{
				Workers:    cfg.Exports.WorkerConcurrency,
				BufferSize: 64,
				MaxRetries: cfg.Exports.WorkerRetries,
				RetryDelay: 5 * time.Second,
				Logger:     logr,
			}, validate, logr)
	}

	authHandler := handler.NewAuthHandler(authSvc)
	cadetHandler := handler.NewCadetHandler(cadetSvc)
	semesterHandler := handler.NewSemesterHandler(semesterSvc)
	attendanceHandler := handler.NewAttendanceHandler(attendanceSvc)
	aptitudeHandler := handler.NewAptitudeHandler(aptitudeSvc)
	examHandler := handler.NewExamHandler(examSvc)
	gradeHandler := handler.NewGradeHandler(gradeSvc)
	issueHandler := handler.NewIssueHandler(issueSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	admin := string(models.RoleAdmin)
	staff := []string{string(models.RoleAdmin), string(models.RoleFaculty), string(models.RolePlatoonLeader)}
	staffOrSelf := append(append([]string{}, staff...), middleware.SelfScope)
	authed := middleware.JWT(authSvc)

	api := r.Group(cfg.APIPrefix)
	{
		api.POST("/auth/login", authHandler.Login)
		api.POST("/auth/refresh", authHandler.Refresh)
		api.POST("/auth/logout", authed, authHandler.Logout)
		api.POST("/auth/change-password", authed, authHandler.ChangePassword)
		api.GET("/auth/me", authed, authHandler.Me)

		api.POST("/cadets/register", cadetHandler.Register)

		cadets := api.Group("/cadets", authed)
		{
			cadets.GET("", middleware.RBAC(staff...), cadetHandler.List)
			cadets.GET("/:cadetId", middleware.RBAC(staffOrSelf...), cadetHandler.Get)
			cadets.PUT("/:cadetId", middleware.RBAC(admin), cadetHandler.Update)
			cadets.PATCH("/:cadetId/approve", middleware.RBAC(admin), middleware.Audit(userRepo, "CADET_APPROVE", "cadets"), cadetHandler.Approve)
			cadets.PATCH("/:cadetId/reject", middleware.RBAC(admin), middleware.Audit(userRepo, "CADET_REJECT", "cadets"), cadetHandler.Reject)
			cadets.PATCH("/:cadetId/archive", middleware.RBAC(admin), middleware.Audit(userRepo, "CADET_ARCHIVE", "cadets"), cadetHandler.Archive)
			cadets.POST("/archive-all", middleware.RBAC(admin), middleware.Audit(userRepo, "CADET_ARCHIVE_ALL", "cadets"), cadetHandler.ArchiveAll)

			cadets.GET("/:cadetId/grades", middleware.RBAC(staffOrSelf...), gradeHandler.History)
		}

		semesters := api.Group("/semesters", authed)
		{
			semesters.GET("", semesterHandler.List)
			semesters.GET("/active", semesterHandler.Active)
			semesters.GET("/:semesterId", semesterHandler.Get)
			semesters.POST("", middleware.RBAC(admin), semesterHandler.Create)
			semesters.PUT("/:semesterId", middleware.RBAC(admin), semesterHandler.Update)
			semesters.PATCH("/:semesterId/activate", middleware.RBAC(admin), middleware.Audit(userRepo, "SEMESTER_ACTIVATE", "semesters"), semesterHandler.Activate)

			semesters.GET("/:semesterId/attendance", middleware.RBAC(staff...), attendanceHandler.Roster)
			semesters.GET("/:semesterId/attendance/:cadetId", middleware.RBAC(staffOrSelf...), attendanceHandler.Get)
			semesters.PUT("/:semesterId/attendance/bulk", middleware.RBAC(staff...), attendanceHandler.SaveBulk)
			semesters.PUT("/:semesterId/attendance", middleware.RBAC(staff...), attendanceHandler.Save)

			semesters.GET("/:semesterId/aptitude", middleware.RBAC(staff...), aptitudeHandler.Roster)
			semesters.GET("/:semesterId/aptitude/:cadetId", middleware.RBAC(staffOrSelf...), aptitudeHandler.Get)
			semesters.PUT("/:semesterId/aptitude/bulk", middleware.RBAC(staff...), aptitudeHandler.SaveBulk)
			semesters.PUT("/:semesterId/aptitude", middleware.RBAC(staff...), aptitudeHandler.Save)

			semesters.GET("/:semesterId/exams", middleware.RBAC(staff...), examHandler.Roster)
			semesters.GET("/:semesterId/exams/:cadetId", middleware.RBAC(staffOrSelf...), examHandler.Get)
			semesters.PUT("/:semesterId/exams/bulk", middleware.RBAC(staff...), examHandler.SaveBulk)
			semesters.PUT("/:semesterId/exams", middleware.RBAC(staff...), examHandler.Save)

			semesters.GET("/:semesterId/grades", middleware.RBAC(staff...), gradeHandler.Sheet)
			semesters.GET("/:semesterId/grades/:cadetId", middleware.RBAC(staffOrSelf...), gradeHandler.Get)
		}

		if cfg.Issues.Enabled {
			issues := api.Group("/issues", authed)
			{
				issues.POST("", issueHandler.Report)
				issues.GET("", middleware.RBAC(staff...), issueHandler.List)
				issues.GET("/:id", middleware.RBAC(staff...), issueHandler.Get)
				issues.PATCH("/:id", middleware.RBAC(admin), issueHandler.Update)
			}
		}

		if documentSvc != nil {
			documentHandler := handler.NewDocumentHandler(documentSvc)
			api.GET("/documents/download", documentHandler.Download)

			documents := api.Group("", authed)
			{
				documents.POST("/cadets/:cadetId/documents", middleware.RBAC(append([]string{admin}, middleware.SelfScope)...), documentHandler.Upload)
				documents.GET("/cadets/:cadetId/documents", middleware.RBAC(staffOrSelf...), documentHandler.List)
				documents.POST("/documents/:id/token", middleware.RBAC(staff...), documentHandler.DownloadToken)
				documents.DELETE("/documents/:id", middleware.RBAC(admin), documentHandler.Delete)
			}
		}

		if exportSvc != nil {
			exportHandler := handler.NewExportHandler(exportSvc)
			api.GET("/exports/download", exportHandler.Download)

			exports := api.Group("/exports", authed, middleware.RBAC(string(models.RoleAdmin), string(models.RoleFaculty)))
			{
				exports.POST("", exportHandler.Create)
				exports.GET("", exportHandler.List)
				exports.GET("/:id", exportHandler.Status)
			}
		}

		api.GET("/system/metrics", authed, middleware.RBAC(admin), metricsHandler.Snapshot)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if exportSvc != nil {
		exportSvc.Start(ctx)
		defer exportSvc.Stop()
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
