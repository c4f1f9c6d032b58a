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
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/academic-scheduler/api/swagger"
	"github.com/noah-isme/academic-scheduler/internal/dto"
	"github.com/noah-isme/academic-scheduler/internal/handler"
	internalmiddleware "github.com/noah-isme/academic-scheduler/internal/middleware"
	"github.com/noah-isme/academic-scheduler/internal/repository"
	"github.com/noah-isme/academic-scheduler/internal/service"
	"github.com/noah-isme/academic-scheduler/pkg/cache"
	"github.com/noah-isme/academic-scheduler/pkg/calendar"
	"github.com/noah-isme/academic-scheduler/pkg/config"
	"github.com/noah-isme/academic-scheduler/pkg/database"
	"github.com/noah-isme/academic-scheduler/pkg/logger"
	corsmiddleware "github.com/noah-isme/academic-scheduler/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/academic-scheduler/pkg/middleware/requestid"
)

// @title Academic Session Scheduler API
// @version 1.0.0
// @description Generates lecture and studio sessions from weekday patterns, merges them per subject and raises shortfall and faculty clash notifications.
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, holiday cache disabled", zap.Error(err))
		redisClient = nil
	}
	cacheRepo := repository.NewCacheRepository(redisClient, "scheduler")
	defer cacheRepo.Close() //nolint:errcheck

	validate := dto.NewValidator()
	metrics := service.NewMetricsService()
	policy := calendar.NewPolicy(cfg.Scheduler.AYStartMonth, cfg.Scheduler.AYStartDay, cfg.Scheduler.AYEndMonth, cfg.Scheduler.AYEndDay)

	sessionRepo := repository.NewSessionRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	directoryRepo := repository.NewDirectoryRepository(db)
	holidayRepo := repository.NewHolidayRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Holidays.CacheTTL, logr, cfg.Holidays.CacheEnabled && redisClient != nil)
	holidaySvc := service.NewHolidayService(holidayRepo, cacheSvc, cfg.Holidays.CacheTTL, validate, logr)
	recipients := service.NewRecipientResolver(directoryRepo, logr)
	checker := service.NewSessionChecker(subjectRepo, sessionRepo, notificationRepo, recipients, policy, cfg.Scheduler.ClashAYBasis, logr)
	sessionSvc := service.NewSessionService(db, sessionRepo, subjectRepo, holidaySvc, checker, metrics, service.SessionServiceConfig{
		Policy:           policy,
		MaxRangeDays:     cfg.Scheduler.MaxRangeDays,
		SerializeSubject: cfg.Scheduler.SerializeSubject,
	}, validate, logr)
	notificationSvc := service.NewNotificationService(notificationRepo, validate, logr)
	tokens := service.NewTokenService(cfg.JWT.Secret)

	checks := map[string]handler.ReadinessCheck{"postgres": db.PingContext}
	if redisClient != nil {
		checks["redis"] = cacheRepo.Ping
	}

	sessionHandler := handler.NewSessionHandler(sessionSvc)
	holidayHandler := handler.NewHolidayHandler(holidaySvc)
	notificationHandler := handler.NewNotificationHandler(notificationSvc)
	metricsHandler := handler.NewMetricsHandler(metrics, checks)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr, "/health", "/ready", "/metrics"))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metrics))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(internalmiddleware.OptionalJWT(tokens))
	{
		sessions := api.Group("/sessions")
		sessions.GET("", sessionHandler.List)
		sessions.POST("/generate", sessionHandler.Generate)
		sessions.POST("/tail-weeks", sessionHandler.TailWeeks)
		sessions.POST("/day", sessionHandler.AddDay)
		sessions.DELETE("/day", sessionHandler.DeleteDay)
		sessions.DELETE("/range", sessionHandler.DeleteRange)
		sessions.PATCH("/:id", sessionHandler.Update)

		holidays := api.Group("/holidays")
		holidays.GET("", holidayHandler.List)
		holidays.POST("", holidayHandler.Create)
		holidays.DELETE("/:date", holidayHandler.Delete)

		notifications := api.Group("/notifications")
		notifications.GET("", notificationHandler.List)
		notifications.POST("/:id/resolve",
			internalmiddleware.JWT(tokens),
			internalmiddleware.RequireRoles(service.ResolverRoles...),
			notificationHandler.Resolve,
		)
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
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
