// Package notify delivers notification requests to the outside world.
package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/pay-equity-api/internal/models"
)

// Publisher is the subset of the Redis client used for delivery.
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// RedisNotifier publishes notifications as JSON on a pub/sub channel that
// the mailer service subscribes to.
type RedisNotifier struct {
	client  Publisher
	channel string
}

// NewRedisNotifier builds a notifier for the given channel.
func NewRedisNotifier(client Publisher, channel string) *RedisNotifier {
	return &RedisNotifier{client: client, channel: channel}
}

// Notify publishes one notification. Zero subscribers is a delivery failure
// so the caller's retry policy applies.
func (n *RedisNotifier) Notify(ctx context.Context, notification models.Notification) error {
	payload, err := json.Marshal(notification)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	receivers, err := n.client.Publish(ctx, n.channel, payload).Result()
	if err != nil {
		return fmt.Errorf("publish notification to %s: %w", n.channel, err)
	}
	if receivers == 0 {
		return fmt.Errorf("no subscribers on %s", n.channel)
	}
	return nil
}

// LogNotifier writes notifications to the log. Used when Redis is disabled.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier builds a log-only notifier.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger}
}

// Notify logs the notification and never fails.
func (n *LogNotifier) Notify(_ context.Context, notification models.Notification) error {
	n.logger.Info("notification",
		zap.String("type", string(notification.Type)),
		zap.String("recipient", notification.Recipient),
		zap.String("report_id", notification.ReportID),
		zap.Any("payload", notification.Payload),
	)
	return nil
}
