package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/grama-voice/grama-voice-api/api/swagger"
	"github.com/grama-voice/grama-voice-api/internal/handler"
	"github.com/grama-voice/grama-voice-api/internal/middleware"
	"github.com/grama-voice/grama-voice-api/internal/models"
	"github.com/grama-voice/grama-voice-api/internal/repository"
	"github.com/grama-voice/grama-voice-api/internal/service"
	"github.com/grama-voice/grama-voice-api/pkg/cache"
	"github.com/grama-voice/grama-voice-api/pkg/config"
	"github.com/grama-voice/grama-voice-api/pkg/database"
	"github.com/grama-voice/grama-voice-api/pkg/jobs"
	"github.com/grama-voice/grama-voice-api/pkg/logger"
	corsmiddleware "github.com/grama-voice/grama-voice-api/pkg/middleware/cors"
	reqidmiddleware "github.com/grama-voice/grama-voice-api/pkg/middleware/requestid"
	"github.com/grama-voice/grama-voice-api/pkg/storage"
)

// @title Grama Voice API
// @version 1.0.0
// @description Municipal issue tracking: citizen filings, admin triage, notifications and performance analytics
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
	defer db.Close() //nolint:errcheck

	metricsSvc := service.NewMetricsService()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Dashboard.CacheTTL, logr, redisClient != nil)

	validate := validator.New()

	notificationRepo := repository.NewNotificationRepository(db)
	issueRepo := repository.NewIssueRepository(db)
	userRepo := repository.NewUserRepository(db)

	notificationSvc := service.NewNotificationService(notificationRepo, validate, logr, service.NotificationServiceConfig{
		DefaultListLimit: cfg.Notifications.DefaultListLimit,
		RetentionDays:    cfg.Notifications.RetentionDays,
	})
	leaderboardSvc := service.NewLeaderboardService(issueRepo, userRepo, cacheSvc, logr, cfg.Leaderboard.CacheTTL)
	dashboardSvc := service.NewDashboardService(issueRepo, leaderboardSvc, metricsSvc, cacheSvc, logr, service.DashboardServiceConfig{
		CacheTTL: cfg.Dashboard.CacheTTL,
	})
	issueSvc := service.NewIssueService(issueRepo, userRepo, notificationSvc, validate, logr, leaderboardSvc, dashboardSvc)
	userSvc := service.NewUserService(userRepo, logr)
	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
	})

	reportStore, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to prepare report storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Reports.DownloadSecret, cfg.Reports.DownloadTTL)
	reportSvc := service.NewReportService(leaderboardSvc, reportStore, signer, logr)

	maintenance := startMaintenance(cfg, notificationSvc, reportStore, logr)
	defer maintenance.Stop()

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))
	r.Use(middleware.WithResponseMeta())

	metricsHandler := handler.NewMetricsHandler(metricsSvc)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	authHandler := handler.NewAuthHandler(authSvc)
	notificationHandler := handler.NewNotificationHandler(notificationSvc)
	issueHandler := handler.NewIssueHandler(issueSvc)
	dashboardHandler := handler.NewDashboardHandler(dashboardSvc)
	leaderboardHandler := handler.NewLeaderboardHandler(leaderboardSvc)
	reportHandler := handler.NewReportHandler(reportSvc)
	userHandler := handler.NewUserHandler(userSvc)

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/refresh", authHandler.Refresh)

	authed := api.Group("")
	authed.Use(middleware.JWT(authSvc))

	authed.GET("/notifications", notificationHandler.List)
	authed.GET("/notifications/unread-count", notificationHandler.UnreadCount)
	authed.POST("/notifications/read-all", notificationHandler.MarkAllRead)
	authed.POST("/notifications/:id/read", notificationHandler.MarkRead)
	authed.POST("/notifications",
		middleware.RequireRoles(models.RoleSuperAdmin),
		notificationHandler.Create)

	authed.POST("/issues",
		middleware.RequireRoles(models.RoleCitizen),
		issueHandler.Create)
	authed.GET("/issues", issueHandler.List)
	authed.GET("/issues/:id", issueHandler.Get)
	authed.PATCH("/issues/:id/status",
		middleware.RequireRoles(models.RoleVillageAdmin, models.RoleSuperAdmin),
		issueHandler.UpdateStatus)
	authed.PATCH("/issues/:id/assign",
		middleware.RequireRoles(models.RoleSuperAdmin),
		issueHandler.Assign)

	authed.GET("/dashboard",
		middleware.RequireRoles(models.RoleSuperAdmin),
		dashboardHandler.Overview)
	authed.GET("/dashboard/admin",
		middleware.RequireRoles(models.RoleVillageAdmin),
		dashboardHandler.Admin)
	authed.GET("/leaderboard",
		middleware.RequireRoles(models.RoleVillageAdmin, models.RoleSuperAdmin),
		leaderboardHandler.Leaderboard)
	authed.GET("/reports/performance",
		middleware.RequireRoles(models.RoleSuperAdmin),
		reportHandler.Performance)
	authed.GET("/reports/archive/:token",
		middleware.RequireRoles(models.RoleSuperAdmin),
		reportHandler.Archive)

	authed.GET("/users",
		middleware.RequireRoles(models.RoleSuperAdmin),
		userHandler.List)
	authed.PATCH("/users/:id/block",
		middleware.RequireRoles(models.RoleSuperAdmin),
		userHandler.SetBlocked)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}

// startMaintenance runs periodic housekeeping through the jobs queue:
// pruning expired notifications and deleting aged report archives. The
// queue gives both sweeps the same retry semantics.
func startMaintenance(cfg *config.Config, notifications *service.NotificationService, reportStore *storage.LocalStorage, logr *zap.Logger) *jobs.Queue {
	queue := jobs.NewQueue("maintenance", func(ctx context.Context, job jobs.Job) error {
		switch job.Type {
		case "prune-notifications":
			deleted, err := notifications.PruneExpired(ctx)
			if err != nil {
				return err
			}
			logr.Sugar().Infow("notification retention sweep", "deleted", deleted)
		case "cleanup-report-archive":
			ttl := time.Duration(cfg.Reports.RetentionDays) * 24 * time.Hour
			removed, err := reportStore.CleanupOlderThan(ttl)
			if err != nil {
				return err
			}
			if len(removed) > 0 {
				logr.Sugar().Infow("report archive cleanup", "removed", len(removed))
			}
		}
		return nil
	}, jobs.QueueConfig{
		Workers:    cfg.Reports.WorkerConcurrency,
		MaxRetries: cfg.Reports.WorkerRetries,
		RetryDelay: time.Minute,
		Logger:     logr,
	})
	queue.Start(context.Background())

	go func() {
		ticker := time.NewTicker(cfg.Notifications.SweepInterval)
		defer ticker.Stop()
		for range ticker.C {
			if err := queue.Enqueue(jobs.Job{Type: "prune-notifications"}); err != nil {
				return
			}
			if err := queue.Enqueue(jobs.Job{Type: "cleanup-report-archive"}); err != nil {
				return
			}
		}
	}()

	return queue
}
