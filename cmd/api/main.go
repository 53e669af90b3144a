package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/sakda-dev/behavior-track-api/api/swagger"
	"github.com/sakda-dev/behavior-track-api/internal/handler"
	"github.com/sakda-dev/behavior-track-api/internal/middleware"
	"github.com/sakda-dev/behavior-track-api/internal/models"
	"github.com/sakda-dev/behavior-track-api/internal/repository"
	"github.com/sakda-dev/behavior-track-api/internal/service"
	"github.com/sakda-dev/behavior-track-api/pkg/cache"
	"github.com/sakda-dev/behavior-track-api/pkg/config"
	"github.com/sakda-dev/behavior-track-api/pkg/database"
	"github.com/sakda-dev/behavior-track-api/pkg/logger"
	corsmiddleware "github.com/sakda-dev/behavior-track-api/pkg/middleware/cors"
	reqidmiddleware "github.com/sakda-dev/behavior-track-api/pkg/middleware/requestid"
)

// @title Behavior Track API
// @version 1.0.0
// @description School behavior tracking: teachers record logs, admins approve them, approved logs move student scores.
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
		// The catalog cache degrades to pass-through without redis.
		logr.Sugar().Warnw("redis unavailable, catalog caching disabled", "error", err)
		redisClient = nil
	}

	validate := validator.New()

	logRepo := repository.NewBehaviorLogRepository(db)
	typeRepo := repository.NewBehaviorTypeRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	classroomRepo := repository.NewClassroomRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	dashboardRepo := repository.NewDashboardRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	authSvc := service.NewAuthService(teacherRepo, validate, logr, service.AuthConfig{
		Secret:             cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
	})
	logSvc := service.NewBehaviorLogService(logRepo, studentRepo, teacherRepo, typeRepo, validate, logr)
	typeSvc := service.NewBehaviorTypeService(typeRepo, cacheRepo, cfg.Catalog.CacheTTL, logr)
	studentSvc := service.NewStudentService(studentRepo, classroomRepo, cfg.Scores.Baseline, validate, logr)
	teacherSvc := service.NewTeacherService(teacherRepo, logr)
	exportSvc := service.NewExportService(logRepo, nil, nil, logr)
	dashboardSvc := service.NewDashboardService(dashboardRepo, cacheRepo, cfg.Catalog.CacheTTL, logr)
	metricsSvc := service.NewMetricsService()

	authHandler := handler.NewAuthHandler(authSvc)
	logHandler := handler.NewBehaviorLogHandler(logSvc)
	typeHandler := handler.NewBehaviorTypeHandler(typeSvc)
	studentHandler := handler.NewStudentHandler(studentSvc)
	teacherHandler := handler.NewTeacherHandler(teacherSvc)
	exportHandler := handler.NewExportHandler(exportSvc)
	dashboardHandler := handler.NewDashboardHandler(dashboardSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Scrape)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/refresh", authHandler.Refresh)

	authed := api.Group("")
	authed.Use(middleware.JWT(authSvc))
	{
		authed.GET("/behavior-types", typeHandler.List)
		authed.GET("/behavior-logs", logHandler.List)
		authed.POST("/behavior-logs", logHandler.Create)
		authed.GET("/students/search", studentHandler.Search)
		authed.GET("/students/:id", studentHandler.Get)
		authed.GET("/students/:id/behavior-logs", logHandler.ListByStudent)
		authed.GET("/classrooms", studentHandler.ListClassrooms)
		authed.GET("/classrooms/:id/students", studentHandler.ListByClassroom)
		authed.GET("/teachers", teacherHandler.List)
		authed.GET("/dashboard/stats", dashboardHandler.Stats)
	}

	admin := api.Group("")
	admin.Use(middleware.JWT(authSvc), middleware.RequireRoles(models.RoleAdmin))
	{
		admin.PATCH("/behavior-logs", logHandler.Transition)
		admin.POST("/students", studentHandler.Create)
		if cfg.Exports.Enabled {
			admin.GET("/behavior-logs/export", exportHandler.BehaviorLogs)
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
