package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/pay-equity-api/internal/models"
)

type flakyNotifier struct {
	mu        sync.Mutex
	failures  int
	attempts  int
	delivered []models.Notification
}

func (n *flakyNotifier) Notify(_ context.Context, notification models.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.attempts++
	if n.failures > 0 {
		n.failures--
		return errors.New("mailer unavailable")
	}
	n.delivered = append(n.delivered, notification)
	return nil
}

func (n *flakyNotifier) snapshot() (int, int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.attempts, len(n.delivered)
}

func TestNotificationServiceRetriesUntilDelivered(t *testing.T) {
	notifier := &flakyNotifier{failures: 1}
	metrics := NewMetricsService()
	svc := NewNotificationService(notifier, metrics, NotificationConfig{Workers: 1, Retries: 2, RetryDelay: 10 * time.Millisecond}, nil)
	svc.Start(context.Background())
	defer svc.Stop()

	svc.Dispatch(context.Background(), []models.Notification{{
		Type: models.NotificationReportApproved, Recipient: "clerk@lakeside.gov", ReportID: "r1",
	}})

	require.Eventually(t, func() bool {
		return counterValue(t, metrics, "notifications_total", string(models.NotificationReportApproved), "sent") == 1
	}, 2*time.Second, 10*time.Millisecond)

	attempts, delivered := notifier.snapshot()
	assert.Equal(t, 2, attempts)
	assert.Equal(t, 1, delivered)
	assert.Equal(t, float64(1), counterValue(t, metrics, "notifications_total", string(models.NotificationReportApproved), "retry"))
}

func TestNotificationServiceGivesUpAfterRetries(t *testing.T) {
	notifier := &flakyNotifier{failures: 100}
	metrics := NewMetricsService()
	svc := NewNotificationService(notifier, metrics, NotificationConfig{Workers: 1, Retries: 1, RetryDelay: 10 * time.Millisecond}, nil)
	svc.Start(context.Background())
	defer svc.Stop()

	svc.Dispatch(context.Background(), []models.Notification{{Type: models.NotificationStaffReview, Recipient: "staff@payequity.gov"}})

	require.Eventually(t, func() bool {
		return counterValue(t, metrics, "notifications_total", string(models.NotificationStaffReview), "failed") == 1
	}, 2*time.Second, 10*time.Millisecond)

	attempts, delivered := notifier.snapshot()
	assert.Equal(t, 2, attempts)
	assert.Zero(t, delivered)
}

func TestNotificationServiceDropsWhenStopped(t *testing.T) {
	notifier := &flakyNotifier{}
	metrics := NewMetricsService()
	svc := NewNotificationService(notifier, metrics, NotificationConfig{}, nil)

	svc.Dispatch(context.Background(), []models.Notification{{Type: models.NotificationReportRejected}})

	assert.Equal(t, float64(1), counterValue(t, metrics, "notifications_total", string(models.NotificationReportRejected), "dropped"))
	attempts, _ := notifier.snapshot()
	assert.Zero(t, attempts)
}

// counterValue sums the counter samples of name whose label values contain
// every entry of values.
func counterValue(t *testing.T, metrics *MetricsService, name string, values ...string) float64 {
	t.Helper()
	families, err := metrics.Registry().Gather()
	require.NoError(t, err)
	total := 0.0
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, metric := range family.GetMetric() {
			labels := map[string]bool{}
			for _, pair := range metric.GetLabel() {
				labels[pair.GetValue()] = true
			}
			matched := true
			for _, v := range values {
				if !labels[v] {
					matched = false
					break
				}
			}
			if matched {
				total += metric.GetCounter().GetValue()
			}
		}
	}
	return total
}
