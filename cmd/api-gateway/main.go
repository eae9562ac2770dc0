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

	_ "github.com/noah-isme/pay-equity-api/api/swagger"
	"github.com/noah-isme/pay-equity-api/internal/app"
	"github.com/noah-isme/pay-equity-api/internal/handler"
	"github.com/noah-isme/pay-equity-api/internal/middleware"
	"github.com/noah-isme/pay-equity-api/internal/models"
	"github.com/noah-isme/pay-equity-api/pkg/config"
	"github.com/noah-isme/pay-equity-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/pay-equity-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/pay-equity-api/pkg/middleware/requestid"
)

// @title Pay Equity Compliance API
// @version 1.0.0
// @description Pay equity report intake, compliance determination and approval workflow
// @BasePath /api/v1
// @schemes http https
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

	application, err := app.New(ctx, cfg, logr)
	if err != nil {
		logr.Sugar().Fatalw("failed to init application", "error", err)
	}
	defer application.Close()
	application.Start(ctx)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS))
	r.Use(middleware.Metrics(application.Metrics))
	r.Use(middleware.ResponseMeta())

	registerRoutes(r, cfg, application)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
	logr.Sugar().Infow("server stopped")
}

func registerRoutes(r *gin.Engine, cfg *config.Config, a *app.App) {
	metricsHandler := handler.NewMetricsHandler(a.Metrics, map[string]handler.ReadinessCheck{
		"postgres": a.Ping,
		"redis":    a.PingRedis,
	})
	reportHandler := handler.NewReportHandler(a.Reports, a.Approvals)
	certificateHandler := handler.NewCertificateHandler(a.Reports, a.Certificates)
	authHandler := handler.NewAuthHandler()

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.GET("/certificates/download/:token", certificateHandler.Download)

	secured := api.Group("")
	secured.Use(middleware.JWT(a.Auth))
	secured.GET("/auth/me", authHandler.Me)

	filers := middleware.RequireRoles(models.RoleAdmin, models.RoleJurisdiction)
	reviewers := middleware.RequireRoles(models.RoleAdmin, models.RoleReviewer)

	reports := secured.Group("/reports")
	reports.POST("", filers, reportHandler.Create)
	reports.GET("", reviewers, reportHandler.List)
	reports.GET("/:id", reportHandler.Get)
	reports.GET("/:id/jobs", reportHandler.ListJobs)
	reports.PUT("/:id/jobs", filers, reportHandler.ReplaceJobs)
	reports.GET("/:id/compliance", reportHandler.Compliance)
	reports.POST("/:id/submit", filers, reportHandler.Submit)
	reports.POST("/:id/approve", reviewers, reportHandler.Approve)
	reports.POST("/:id/reject", reviewers, reportHandler.Reject)
	reports.GET("/:id/history", reportHandler.History)
	reports.GET("/:id/history/export", reviewers, reportHandler.ExportHistory)
	reports.GET("/:id/certificate", certificateHandler.Get)
}
