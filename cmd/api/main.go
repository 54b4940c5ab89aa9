package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/edukasys/sfa-records-api/api/swagger"
	"github.com/edukasys/sfa-records-api/internal/handler"
	"github.com/edukasys/sfa-records-api/internal/middleware"
	"github.com/edukasys/sfa-records-api/internal/repository"
	"github.com/edukasys/sfa-records-api/internal/service"
	"github.com/edukasys/sfa-records-api/pkg/cache"
	"github.com/edukasys/sfa-records-api/pkg/config"
	"github.com/edukasys/sfa-records-api/pkg/database"
	"github.com/edukasys/sfa-records-api/pkg/jobs"
	"github.com/edukasys/sfa-records-api/pkg/logger"
	corsmiddleware "github.com/edukasys/sfa-records-api/pkg/middleware/cors"
	reqidmiddleware "github.com/edukasys/sfa-records-api/pkg/middleware/requestid"
)

// @title SFA Records API
// @version 1.0.0
// @description Student and faculty records administration with an archive/restore lifecycle
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, dashboard cache disabled", "error", err)
		redisClient = nil
	}

	metrics := service.NewMetricsService()

	studentRepo := repository.NewStudentRepository(db)
	facultyRepo := repository.NewFacultyRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	departmentRepo := repository.NewDepartmentRepository(db)
	activityRepo := repository.NewActivityRepository(db)
	adminRepo := repository.NewAdminRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	activitySvc := service.NewActivityService(activityRepo, jobs.QueueConfig{
		Workers:    cfg.Activity.Workers,
		BufferSize: cfg.Activity.BufferSize,
		MaxRetries: cfg.Activity.MaxRetries,
		RetryDelay: cfg.Activity.RetryDelay,
	}, logr).WithMetrics(metrics)

	runCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	activitySvc.Start(runCtx)
	defer activitySvc.Stop()

	deps := service.Deps{
		Recorder:  activitySvc,
		Observer:  metrics,
		Validator: service.NewValidator(),
		Logger:    logr,
	}

	studentSvc := service.NewStudentService(studentRepo, courseRepo, deps)
	facultySvc := service.NewFacultyService(facultyRepo, departmentRepo, deps)
	courseSvc := service.NewCourseService(courseRepo, deps)
	departmentSvc := service.NewDepartmentService(departmentRepo, deps)
	adminSvc := service.NewAdminService(adminRepo, deps)
	authSvc := service.NewAuthService(adminRepo, activitySvc, deps, service.AuthConfig{
		JWTSecret:  cfg.Auth.JWTSecret,
		Expiration: cfg.Auth.Expiration,
		Issuer:     cfg.Auth.Issuer,
	})

	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Dashboard.CacheTTL, logr, redisClient != nil)
	dashboardSvc := service.NewDashboardService(service.DashboardServiceParams{
		Students:    studentRepo,
		Faculty:     facultyRepo,
		Courses:     courseRepo,
		Departments: departmentRepo,
		Cache:       cacheSvc,
		Metrics:     metrics,
		Logger:      logr,
		Config:      service.DashboardServiceConfig{CacheTTL: cfg.Dashboard.CacheTTL},
	})

	studentHandler := handler.NewStudentHandler(studentSvc)
	facultyHandler := handler.NewFacultyHandler(facultySvc)
	courseHandler := handler.NewCourseHandler(courseSvc)
	departmentHandler := handler.NewDepartmentHandler(departmentSvc)
	authHandler := handler.NewAuthHandler(authSvc)
	profileHandler := handler.NewProfileHandler(adminSvc)
	activityHandler := handler.NewActivityHandler(activitySvc)
	dashboardHandler := handler.NewDashboardHandler(dashboardSvc)
	metricsHandler := handler.NewMetricsHandler(metrics)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)

	authed := api.Group("")
	authed.Use(middleware.JWT(authSvc))

	authed.GET("/profile", profileHandler.Get)
	authed.PUT("/profile", profileHandler.Update)
	authed.PUT("/profile/password", profileHandler.ChangePassword)
	authed.GET("/activity-logs", activityHandler.List)
	authed.GET("/dashboard/stats", dashboardHandler.Stats)

	authed.GET("/students", studentHandler.List)
	authed.POST("/students", studentHandler.Create)
	authed.GET("/students/:id", studentHandler.Get)
	authed.PUT("/students/:id", studentHandler.Update)
	authed.DELETE("/students/:id", studentHandler.Archive)
	authed.GET("/archived-students", studentHandler.ListArchived)
	authed.POST("/archived-students/:id/restore", studentHandler.Restore)
	authed.DELETE("/archived-students/:id/force", studentHandler.ForceDelete)

	authed.GET("/faculty", facultyHandler.List)
	authed.POST("/faculty", facultyHandler.Create)
	authed.GET("/faculty/:id", facultyHandler.Get)
	authed.PUT("/faculty/:id", facultyHandler.Update)
	authed.DELETE("/faculty/:id", facultyHandler.Archive)
	authed.GET("/archived-faculty", facultyHandler.ListArchived)
	authed.POST("/archived-faculty/:id/restore", facultyHandler.Restore)
	authed.DELETE("/archived-faculty/:id/force", facultyHandler.ForceDelete)

	authed.GET("/courses", courseHandler.List)
	authed.POST("/courses", courseHandler.Create)
	authed.GET("/courses/:id", courseHandler.Get)
	authed.PUT("/courses/:id", courseHandler.Update)
	authed.DELETE("/courses/:id", courseHandler.Archive)
	authed.GET("/archived-courses", courseHandler.ListArchived)
	authed.POST("/archived-courses/:id/restore", courseHandler.Restore)
	authed.DELETE("/archived-courses/:id/force", courseHandler.ForceDelete)

	authed.GET("/departments", departmentHandler.List)
	authed.POST("/departments", departmentHandler.Create)
	authed.GET("/departments/:id", departmentHandler.Get)
	authed.PUT("/departments/:id", departmentHandler.Update)
	authed.DELETE("/departments/:id", departmentHandler.Archive)
	authed.GET("/archived-departments", departmentHandler.ListArchived)
	authed.POST("/archived-departments/:id/restore", departmentHandler.Restore)
	authed.DELETE("/archived-departments/:id/force", departmentHandler.ForceDelete)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-runCtx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
