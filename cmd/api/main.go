package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/presenza/attendance-api/api/swagger"
	"github.com/presenza/attendance-api/internal/handler"
	"github.com/presenza/attendance-api/internal/middleware"
	"github.com/presenza/attendance-api/internal/models"
	"github.com/presenza/attendance-api/internal/repository"
	"github.com/presenza/attendance-api/internal/service"
	"github.com/presenza/attendance-api/pkg/cache"
	"github.com/presenza/attendance-api/pkg/config"
	"github.com/presenza/attendance-api/pkg/database"
	"github.com/presenza/attendance-api/pkg/logger"
	corsmiddleware "github.com/presenza/attendance-api/pkg/middleware/cors"
	reqidmiddleware "github.com/presenza/attendance-api/pkg/middleware/requestid"
	"github.com/presenza/attendance-api/pkg/textgen"
)

// @title Presenza Attendance API
// @version 1.0.0
// @description Role-based attendance management for classes, sessions, and reports
// @BasePath /
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

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	var cacheRepo *repository.CacheRepository
	if cfg.Reports.CacheEnabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, report caching disabled", "error", err)
		} else {
			cacheRepo = repository.NewCacheRepository(redisClient, logr)
			defer cacheRepo.Close()
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, logr)

	userRepo := repository.NewUserRepository(db)
	classRepo := repository.NewClassRepository(db)
	timetableRepo := repository.NewTimetableRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "presenza-attendance-api",
	})
	userSvc := service.NewUserService(userRepo, validate, logr)
	classSvc := service.NewClassService(classRepo, userRepo, validate, logr)
	timetableSvc := service.NewTimetableService(timetableRepo, classRepo, userRepo, validate, logr)
	sessionSvc := service.NewSessionService(classRepo, timetableRepo, validate, logr, cfg.Sessions.HorizonDays)
	attendanceSvc := service.NewAttendanceService(attendanceRepo, classRepo, userRepo, cacheSvc, validate, logr)

	reportCfg := service.ReportServiceConfig{
		LowAttendanceThreshold: cfg.Reports.LowAttendanceThreshold,
		CacheTTL:               cfg.Reports.CacheTTL,
	}
	var reportSvc *service.ReportService
	if cfg.Summary.Enabled {
		generator := textgen.NewClient(cfg.Summary.EndpointURL, cfg.Summary.Timeout)
		reportSvc = service.NewReportService(attendanceRepo, classRepo, userRepo, cacheSvc, metricsSvc, generator, nil, nil, logr, reportCfg)
	} else {
		reportSvc = service.NewReportService(attendanceRepo, classRepo, userRepo, cacheSvc, metricsSvc, nil, nil, nil, logr, reportCfg)
	}

	authHandler := handler.NewAuthHandler(authSvc)
	userHandler := handler.NewUserHandler(userSvc)
	classHandler := handler.NewClassHandler(classSvc)
	timetableHandler := handler.NewTimetableHandler(timetableSvc)
	attendanceHandler := handler.NewAttendanceHandler(sessionSvc, attendanceSvc)
	reportHandler := handler.NewReportHandler(reportSvc)

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
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/logout", middleware.JWT(authSvc), authHandler.Logout)
		auth.POST("/change-password", middleware.JWT(authSvc), authHandler.ChangePassword)
		auth.GET("/me", middleware.JWT(authSvc), authHandler.Me)
	}

	users := api.Group("/users", middleware.JWT(authSvc), middleware.RequireRoles(models.RoleAdmin))
	{
		users.GET("", userHandler.List)
		users.GET("/:id", userHandler.Get)
		users.POST("", userHandler.Create)
		users.PUT("/:id", userHandler.Update)
		users.DELETE("/:id", userHandler.Deactivate)
	}

	classes := api.Group("/classes", middleware.JWT(authSvc))
	{
		classes.GET("", classHandler.List)
		classes.GET("/:id", classHandler.Get)

		adminOnly := classes.Group("", middleware.RequireRoles(models.RoleAdmin))
		adminOnly.POST("", classHandler.Create)
		adminOnly.PUT("/:id", classHandler.Update)
		adminOnly.DELETE("/:id", classHandler.Delete)
	}

	timetables := api.Group("/timetables", middleware.JWT(authSvc))
	{
		timetables.GET("", timetableHandler.List)
		timetables.GET("/:id", timetableHandler.Get)

		adminOnly := timetables.Group("", middleware.RequireRoles(models.RoleAdmin))
		adminOnly.POST("", timetableHandler.Create)
		adminOnly.PUT("/:id", timetableHandler.Update)
		adminOnly.DELETE("/:id", timetableHandler.Delete)
	}

	attendance := api.Group("/attendance", middleware.JWT(authSvc))
	{
		attendance.GET("/sessions", middleware.RequireRoles(models.RoleAdmin, models.RoleTeacher), attendanceHandler.AvailableDates)
		attendance.GET("/slots", middleware.RequireRoles(models.RoleAdmin, models.RoleTeacher), attendanceHandler.TimeSlots)
		attendance.POST("", middleware.RequireRoles(models.RoleTeacher), attendanceHandler.Submit)
		attendance.GET("/students/:id", middleware.RBAC(string(models.RoleAdmin), string(models.RoleTeacher), middleware.SelfAccess), attendanceHandler.StudentOverview)
	}

	reports := api.Group("/reports", middleware.JWT(authSvc), middleware.RequireRoles(models.RoleAdmin, models.RoleTeacher))
	{
		reports.POST("/class", reportHandler.BuildClassReport)
		reports.GET("/class/:id/export", reportHandler.Export)
		reports.POST("/class/:id/summary", reportHandler.Summarize)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
