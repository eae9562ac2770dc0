package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/pay-equity-api/internal/models"
	"github.com/noah-isme/pay-equity-api/pkg/jobs"
)

const notificationJobType = "notification"

type notificationQueue interface {
	Start(ctx context.Context)
	Stop()
	Enqueue(job jobs.Job) error
}

// NotificationConfig tunes the delivery worker pool.
type NotificationConfig struct {
	Workers    int
	Retries    int
	RetryDelay time.Duration
}

// NotificationService delivers post-commit notifications in the background
// with bounded retries. Delivery failures never affect report state.
type NotificationService struct {
	notifier Notifier
	queue    notificationQueue
	metrics  *MetricsService
	logger   *zap.Logger
}

// NewNotificationService wires the notifier behind a job queue.
func NewNotificationService(notifier Notifier, metrics *MetricsService, cfg NotificationConfig, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &NotificationService{notifier: notifier, metrics: metrics, logger: logger}
	svc.queue = jobs.NewQueue("notifications", svc.deliver, jobs.QueueConfig{
		Workers:     cfg.Workers,
		MaxRetries:  cfg.Retries,
		RetryDelay:  cfg.RetryDelay,
		Logger:      logger,
		OnExhausted: svc.exhausted,
	})
	return svc
}

// Start launches the delivery workers.
func (s *NotificationService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop waits for the workers to exit.
func (s *NotificationService) Stop() {
	s.queue.Stop()
}

// Dispatch enqueues each notification. Enqueue failures are logged and
// counted, not returned.
func (s *NotificationService) Dispatch(_ context.Context, notifications []models.Notification) {
	for _, notification := range notifications {
		job := jobs.Job{
			ID:      uuid.NewString(),
			Type:    notificationJobType,
			Payload: notification,
		}
		if err := s.queue.Enqueue(job); err != nil {
			s.metrics.RecordNotification(notification.Type, "dropped")
			s.logger.Error("failed to enqueue notification",
				zap.String("type", string(notification.Type)),
				zap.String("report_id", notification.ReportID),
				zap.Error(err))
		}
	}
}

func (s *NotificationService) deliver(ctx context.Context, job jobs.Job) error {
	notification, ok := job.Payload.(models.Notification)
	if !ok {
		return fmt.Errorf("unexpected payload %T for job %s", job.Payload, job.ID)
	}
	if err := s.notifier.Notify(ctx, notification); err != nil {
		s.metrics.RecordNotification(notification.Type, "retry")
		return err
	}
	s.metrics.RecordNotification(notification.Type, "sent")
	return nil
}

func (s *NotificationService) exhausted(job jobs.Job, err error) {
	notification, _ := job.Payload.(models.Notification)
	s.metrics.RecordNotification(notification.Type, "failed")
	s.logger.Error("notification delivery failed",
		zap.String("job_id", job.ID),
		zap.String("type", string(notification.Type)),
		zap.String("recipient", notification.Recipient),
		zap.String("report_id", notification.ReportID),
		zap.Int("attempts", job.Attempt),
		zap.Error(err))
}
