// Package app assembles repositories and services from configuration for
// the API server and the paycheck CLI.
package app

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/pay-equity-api/internal/compliance"
	"github.com/noah-isme/pay-equity-api/internal/repository"
	"github.com/noah-isme/pay-equity-api/internal/service"
	"github.com/noah-isme/pay-equity-api/pkg/cache"
	"github.com/noah-isme/pay-equity-api/pkg/config"
	"github.com/noah-isme/pay-equity-api/pkg/database"
	"github.com/noah-isme/pay-equity-api/pkg/notify"
	"github.com/noah-isme/pay-equity-api/pkg/storage"
)

const lockPrefix = "pay-equity:lock:report:"

// App holds the wired services and the connections they share.
type App struct {
	Config *config.Config
	Logger *zap.Logger
	DB     *sqlx.DB
	Redis  *redis.Client

	Metrics       *service.MetricsService
	Auth          *service.AuthService
	Reports       *service.ReportService
	Approvals     *service.ApprovalService
	Certificates  *service.CertificateService
	Notifications *service.NotificationService
}

// New connects to Postgres and, when reachable, Redis, then builds every
// service. Redis is optional: without it the preview cache, the distributed
// report lock and pub/sub delivery fall back to no-op or log-only variants.
func New(ctx context.Context, cfg *config.Config, logr *zap.Logger) (*App, error) {
	if logr == nil {
		logr = zap.NewNop()
	}

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	var rdb *redis.Client
	if cfg.Redis.Host != "" {
		rdb, err = cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, continuing without cache and locks", zap.Error(err))
			rdb = nil
		}
	}

	files, err := storage.NewLocalStorage(cfg.Certificates.StorageDir)
	if err != nil {
		_ = db.Close()
		if rdb != nil {
			_ = rdb.Close()
		}
		return nil, fmt.Errorf("init certificate storage: %w", err)
	}

	a := &App{Config: cfg, Logger: logr, DB: db, Redis: rdb}
	a.wire(files)
	return a, nil
}

func (a *App) wire(files *storage.LocalStorage) {
	cfg := a.Config
	validate := validator.New()

	reportRepo := repository.NewReportRepository(a.DB)
	jobRepo := repository.NewJobClassificationRepository(a.DB)
	certificateRepo := repository.NewCertificateRepository(a.DB)
	historyRepo := repository.NewApprovalHistoryRepository(a.DB)
	jurisdictionRepo := repository.NewJurisdictionRepository(a.DB)

	a.Metrics = service.NewMetricsService()
	previews := service.NewCacheService(
		repository.NewCacheRepository(a.Redis),
		a.Metrics,
		cfg.Compliance.PreviewCacheTTL,
		a.Logger,
		cfg.Compliance.CacheEnabled && a.Redis != nil,
	)

	a.Auth = service.NewAuthService(a.Logger, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
	})

	a.Certificates = service.NewCertificateService(
		files,
		storage.NewSignedURLSigner(cfg.Certificates.SignedURLSecret, cfg.Certificates.SignedURLTTL),
		certificateRepo,
		a.Metrics,
		service.CertificateConfig{Issuer: cfg.Certificates.Issuer, APIPrefix: cfg.APIPrefix},
		a.Logger,
	)

	var notifier service.Notifier = notify.NewLogNotifier(a.Logger)
	var lockClient cache.LockClient
	if a.Redis != nil {
		notifier = notify.NewRedisNotifier(a.Redis, cfg.Notifications.Channel)
		lockClient = a.Redis
	}
	a.Notifications = service.NewNotificationService(notifier, a.Metrics, service.NotificationConfig{
		Workers:    cfg.Notifications.Workers,
		Retries:    cfg.Notifications.Retries,
		RetryDelay: cfg.Notifications.RetryDelay,
	}, a.Logger)

	deadline := compliance.NewDeadlineEvaluator(cfg.Compliance.Location())

	a.Approvals = service.NewApprovalService(
		service.ApprovalStores{
			Reports:       reportRepo,
			Jobs:          jobRepo,
			Certificates:  certificateRepo,
			Jurisdictions: jurisdictionRepo,
		},
		a.Certificates,
		a.Notifications,
		deadline,
		validate,
		a.Logger,
		service.WithApprovalLocker(cache.NewLocker(lockClient, lockPrefix, cfg.Compliance.LockTTL)),
		service.WithApprovalCache(previews),
		service.WithApprovalMetrics(a.Metrics),
		service.WithStaffRecipient(cfg.Compliance.StaffEmail),
	)

	a.Reports = service.NewReportService(
		service.ReportStores{
			Reports:       reportRepo,
			Jobs:          jobRepo,
			History:       historyRepo,
			Jurisdictions: jurisdictionRepo,
		},
		a.Approvals,
		deadline,
		validate,
		a.Logger,
		service.WithPreviewCache(previews, cfg.Compliance.PreviewCacheTTL),
	)
}

// Start launches background workers.
func (a *App) Start(ctx context.Context) {
	a.Notifications.Start(ctx)
}

// Ping checks the database connection.
func (a *App) Ping(ctx context.Context) error {
	return a.DB.PingContext(ctx)
}

// PingRedis checks the Redis connection when one is configured.
func (a *App) PingRedis(ctx context.Context) error {
	if a.Redis == nil {
		return nil
	}
	return a.Redis.Ping(ctx).Err()
}

// Close drains the notification workers and releases connections.
func (a *App) Close() {
	if a.Notifications != nil {
		a.Notifications.Stop()
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.Logger.Warn("close redis", zap.Error(err))
		}
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			a.Logger.Warn("close postgres", zap.Error(err))
		}
	}
}
