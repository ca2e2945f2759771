package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/badil-app/substitute-api/api/swagger"
	"github.com/badil-app/substitute-api/internal/handler"
	appmiddleware "github.com/badil-app/substitute-api/internal/middleware"
	"github.com/badil-app/substitute-api/internal/repository"
	"github.com/badil-app/substitute-api/internal/service"
	"github.com/badil-app/substitute-api/migrations"
	"github.com/badil-app/substitute-api/pkg/cache"
	"github.com/badil-app/substitute-api/pkg/config"
	"github.com/badil-app/substitute-api/pkg/database"
	"github.com/badil-app/substitute-api/pkg/logger"
	corsmiddleware "github.com/badil-app/substitute-api/pkg/middleware/cors"
	reqidmiddleware "github.com/badil-app/substitute-api/pkg/middleware/requestid"
)

// @title Substitute Finder API
// @version 1.0.0
// @description School timetable, substitution finder and task tracking service
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

	if err := migrations.Up(db.DB); err != nil {
		logr.Sugar().Fatalw("failed to run migrations", "error", err)
	}

	var redisClient *redis.Client
	cacheEnabled := cfg.Cache.Enabled
	if cacheEnabled {
		redisClient, err = cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, availability cache disabled", zap.Error(err))
			cacheEnabled = false
		} else {
			defer redisClient.Close()
		}
	}

	validate := validator.New()

	teacherRepo := repository.NewTeacherRepository(db)
	classRepo := repository.NewClassRepository(db)
	sectionRepo := repository.NewSectionRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	completionRepo := repository.NewTaskCompletionRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	txRunner := repository.NewTxRunner(db)

	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Cache.AvailabilityTTL, logr, cacheEnabled)

	timetableSvc := service.NewTimetableService(scheduleRepo, sectionRepo, teacherRepo, cacheSvc, validate, logr)
	substitutionSvc := service.NewSubstitutionService(teacherRepo, scheduleRepo, cacheSvc, logr)
	swapSvc := service.NewSwapService(scheduleRepo, teacherRepo, txRunner, cacheSvc, metricsSvc, validate, logr)
	teacherSvc := service.NewTeacherService(teacherRepo, taskRepo, completionRepo, scheduleRepo, txRunner, cacheSvc, validate, logr)
	classSvc := service.NewClassService(classRepo, sectionRepo, scheduleRepo, txRunner, cacheSvc, validate, logr)
	sectionSvc := service.NewSectionService(sectionRepo, classRepo, scheduleRepo, txRunner, cacheSvc, validate, logr)
	taskSvc := service.NewTaskService(taskRepo, completionRepo, teacherRepo, txRunner, validate, logr)
	exportSvc := service.NewExportService(teacherRepo, classRepo, sectionRepo, scheduleRepo, taskRepo, completionRepo, txRunner, cacheSvc, logr)

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
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.Register(r, cfg.APIPrefix, &handler.Handlers{
		Teachers:      handler.NewTeacherHandler(teacherSvc, timetableSvc),
		Classes:       handler.NewClassHandler(classSvc),
		Sections:      handler.NewSectionHandler(sectionSvc, timetableSvc),
		Schedule:      handler.NewScheduleHandler(timetableSvc, swapSvc),
		Substitutions: handler.NewSubstitutionHandler(substitutionSvc),
		Tasks:         handler.NewTaskHandler(taskSvc),
		Exports:       handler.NewExportHandler(exportSvc),
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env, "cache_enabled", cacheEnabled)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
