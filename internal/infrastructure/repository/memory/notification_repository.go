package memory

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mrops-br/qkart-storefront/internal/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// NotificationRepository is a bounded, in-memory notification feed.
// It implements domain.NotificationSink; the oldest entries are evicted first.
type NotificationRepository struct {
	mu       sync.RWMutex
	items    []domain.Notification
	capacity int
	now      func() time.Time
	logger   *slog.Logger
	counter  metric.Int64Counter
}

var _ domain.NotificationSink = (*NotificationRepository)(nil)

// NewNotificationRepository creates a feed holding at most capacity notifications
func NewNotificationRepository(capacity int, meter metric.Meter, logger *slog.Logger) *NotificationRepository {
	if capacity <= 0 {
		capacity = 50
	}

	counter, _ := meter.Int64Counter(
		"storefront.notifications",
		metric.WithDescription("Total number of notifications reported to the user"),
	)

	return &NotificationRepository{
		capacity: capacity,
		now:      time.Now,
		logger:   logger,
		counter:  counter,
	}
}

// Notify appends a notification to the feed
func (r *NotificationRepository) Notify(ctx context.Context, severity domain.Severity, message string) {
	n := domain.Notification{
		ID:        uuid.NewString(),
		Severity:  severity,
		Message:   message,
		CreatedAt: r.now(),
	}

	r.mu.Lock()
	r.items = append(r.items, n)
	if over := len(r.items) - r.capacity; over > 0 {
		r.items = append([]domain.Notification(nil), r.items[over:]...)
	}
	r.mu.Unlock()

	r.counter.Add(ctx, 1, metric.WithAttributes(attribute.String("severity", string(severity))))

	r.logger.Log(ctx, logLevel(severity), "Notification reported",
		slog.String("notification_id", n.ID),
		slog.String("severity", string(severity)),
		slog.String("message", message),
	)
}

// List returns the feed, oldest first
func (r *NotificationRepository) List() []domain.Notification {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]domain.Notification(nil), r.items...)
}

// Dismiss removes a notification, reporting whether it existed
func (r *NotificationRepository) Dismiss(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, n := range r.items {
		if n.ID == id {
			r.items = append(r.items[:i:i], r.items[i+1:]...)
			return true
		}
	}
	return false
}

func logLevel(severity domain.Severity) slog.Level {
	switch severity {
	case domain.SeverityError:
		return slog.LevelError
	case domain.SeverityWarning:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}
