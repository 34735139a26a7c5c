package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/girishpw/discount-app/api/swagger"
	"github.com/girishpw/discount-app/internal/handler"
	"github.com/girishpw/discount-app/internal/middleware"
	"github.com/girishpw/discount-app/internal/repository"
	"github.com/girishpw/discount-app/internal/service"
	"github.com/girishpw/discount-app/pkg/config"
	"github.com/girishpw/discount-app/pkg/logger"
	"github.com/girishpw/discount-app/pkg/mailer"
	corsmiddleware "github.com/girishpw/discount-app/pkg/middleware/cors"
	reqidmiddleware "github.com/girishpw/discount-app/pkg/middleware/requestid"

	"github.com/girishpw/discount-app/pkg/cache"
	"github.com/girishpw/discount-app/pkg/database"
)

// @title Discount Approval API
// @version 1.0.0
// @description Multi-level discount request approval workflow
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		// Dashboard caching degrades gracefully without Redis.
		logr.Sugar().Warnw("redis unavailable, dashboard cache disabled", "error", err)
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	validate := validator.New()
	metrics := service.NewMetricsService()

	personRepo := repository.NewPersonRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	requestRepo := repository.NewRequestRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	var cacheRepo *repository.CacheRepository
	if redisClient != nil {
		cacheRepo = repository.NewCacheRepository(redisClient, logr)
	}

	smtpSender := mailer.New(cfg.SMTP)
	notificationSvc := service.NewNotificationService(smtpSender, metrics, logr, service.NotificationConfig{
		CC:         cfg.Notify.CC,
		PortalURL:  cfg.Notify.PortalURL,
		Workers:    cfg.Notify.Workers,
		BufferSize: cfg.Notify.BufferSize,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	notificationSvc.Start(ctx)
	defer notificationSvc.Stop()

	authSvc := service.NewAuthService(personRepo, auditRepo, validate, logr, service.AuthConfig{
		Secret:        cfg.JWT.Secret,
		Expiration:    cfg.JWT.Expiration,
		Issuer:        cfg.JWT.Issuer,
		AllowedDomain: cfg.Policy.AllowedEmailDomain,
	})

	requestSvc := service.NewRequestService(personRepo, courseRepo, requestRepo, notificationSvc, auditRepo, validate, logr, service.RequestPolicy{
		MinDiscountPercent: cfg.Policy.MinDiscountPercent,
		PriceTolerance:     cfg.Policy.PriceTolerance,
	})

	approvalSvc := service.NewApprovalService(personRepo, requestRepo, notificationSvc, auditRepo, validate, logr)
	catalogSvc := service.NewCatalogService(courseRepo, logr)

	dashboardCfg := service.DashboardConfig{
		CacheTTL:    cfg.Dashboard.CacheTTL,
		RecentLimit: cfg.Dashboard.RecentLimit,
	}
	var dashboardSvc *service.DashboardService
	if cacheRepo != nil {
		dashboardSvc = service.NewDashboardService(requestRepo, cacheRepo, metrics, logr, dashboardCfg)
	} else {
		dashboardSvc = service.NewDashboardService(requestRepo, nil, metrics, logr, dashboardCfg)
	}

	exportSvc := service.NewExportService(requestRepo, logr)

	authHandler := handler.NewAuthHandler(authSvc)
	requestHandler := handler.NewRequestHandler(requestSvc, dashboardSvc, metrics)
	approvalHandler := handler.NewApprovalHandler(approvalSvc, dashboardSvc, metrics)
	catalogHandler := handler.NewCatalogHandler(catalogSvc)
	dashboardHandler := handler.NewDashboardHandler(dashboardSvc)
	exportHandler := handler.NewExportHandler(exportSvc)
	metricsHandler := handler.NewMetricsHandler(metrics, strconv.Itoa(cfg.Port))

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/_health", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		auth := api.Group("/auth")
		{
			auth.POST("/login", authHandler.Login)
			auth.POST("/logout", middleware.JWT(authSvc), authHandler.Logout)
			auth.GET("/me", middleware.JWT(authSvc), authHandler.Me)
		}

		protected := api.Group("", middleware.JWT(authSvc))
		{
			protected.GET("/dashboard", dashboardHandler.Summary)
			protected.GET("/branches", catalogHandler.Branches)
			protected.GET("/cards/:branch", catalogHandler.Cards)
			protected.GET("/mrp/:branch/:card", catalogHandler.Pricing)

			protected.POST("/requests", middleware.RequireRequester(), requestHandler.Submit)
			protected.GET("/requests/pending", middleware.RequireApprover(), approvalHandler.ListPending)
			protected.POST("/requests/:id/decision", middleware.RequireApprover(), approvalHandler.Decide)
			protected.GET("/requests/export", middleware.RequireApprover(), exportHandler.Export)
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
