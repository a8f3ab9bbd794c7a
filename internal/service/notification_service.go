package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/event-idea-marketplace/internal/models"
	appErrors "github.com/noah-isme/event-idea-marketplace/pkg/errors"
	"github.com/noah-isme/event-idea-marketplace/pkg/eventbus"
	"github.com/noah-isme/event-idea-marketplace/pkg/jobs"
)

const notificationJobType = "notification"

type notificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	ListByUser(ctx context.Context, userID string, unreadOnly bool, page, pageSize int) ([]models.Notification, int, error)
	UnreadCount(ctx context.Context, userID string) (int, error)
	MarkRead(ctx context.Context, id, userID string, at time.Time) error
	MarkAllRead(ctx context.Context, userID string, at time.Time) (int64, error)
}

// NotificationDispatcher persists notifications on a background queue.
type NotificationDispatcher struct {
	repo    notificationRepository
	bus     eventbus.Publisher
	metrics *MetricsService
	queue   *jobs.Queue
	logger  *zap.Logger
}

// NewNotificationDispatcher wires the notification queue. Call Start before Notify.
func NewNotificationDispatcher(repo notificationRepository, bus eventbus.Publisher, metrics *MetricsService, cfg jobs.QueueConfig, logger *zap.Logger) *NotificationDispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if bus == nil {
		bus = eventbus.Noop{}
	}
	d := &NotificationDispatcher{repo: repo, bus: bus, metrics: metrics, logger: logger}
	if cfg.Logger == nil {
		cfg.Logger = logger
	}
	onDrop := cfg.OnDrop
	cfg.OnDrop = func(job jobs.Job, err error) {
		metrics.RecordNotification("dropped")
		if onDrop != nil {
			onDrop(job, err)
		}
	}
	d.queue = jobs.NewQueue("notifications", d.handle, cfg)
	metrics.TrackNotificationBacklog(d.queue.Pending)
	return d
}

func (d *NotificationDispatcher) Start(ctx context.Context) { d.queue.Start(ctx) }

func (d *NotificationDispatcher) Stop() { d.queue.Stop() }

// Pending reports notifications waiting for a worker.
func (d *NotificationDispatcher) Pending() int { return d.queue.Pending() }

// Notify enqueues msg without blocking the caller. A full or stopped queue drops the message.
func (d *NotificationDispatcher) Notify(_ context.Context, msg models.NotificationMessage) {
	if msg.UserID == "" {
		return
	}
	if err := d.queue.TryEnqueue(jobs.Job{Type: notificationJobType, Payload: msg}); err != nil {
		d.metrics.RecordNotification("dropped")
		d.logger.Warn("notification dropped", zap.String("user_id", msg.UserID), zap.String("type", string(msg.Type)), zap.Error(err))
		return
	}
	d.metrics.RecordNotification("queued")
}

func (d *NotificationDispatcher) handle(ctx context.Context, job jobs.Job) error {
	msg, ok := job.Payload.(models.NotificationMessage)
	if !ok {
		d.logger.Error("unexpected notification payload", zap.String("job_id", job.ID))
		return nil
	}
	n := notificationFromMessage(msg)
	if err := d.repo.Create(ctx, n); err != nil {
		return fmt.Errorf("persist notification: %w", err)
	}
	d.metrics.RecordNotification("delivered")
	publishChange(ctx, d.bus, d.logger, eventbus.KindNotification, n.ID, "created")
	return nil
}

func notificationFromMessage(msg models.NotificationMessage) *models.Notification {
	n := &models.Notification{
		UserID:  msg.UserID,
		Title:   msg.Title,
		Message: msg.Message,
		Type:    msg.Type,
	}
	if msg.RelatedEntityID != "" {
		n.RelatedEntityID = stringPtr(msg.RelatedEntityID)
	}
	if msg.RelatedEntityType != "" {
		n.RelatedEntityType = stringPtr(msg.RelatedEntityType)
	}
	return n
}

// NotificationService serves the caller's inbox.
type NotificationService struct {
	repo   notificationRepository
	logger *zap.Logger
	now    func() time.Time
}

func NewNotificationService(repo notificationRepository, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{repo: repo, logger: logger, now: time.Now}
}

// List returns a page of the user's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, userID string, unreadOnly bool, page, pageSize int) ([]models.Notification, *models.Pagination, error) {
	pagination := models.NewPagination(page, pageSize, 0)
	items, total, err := s.repo.ListByUser(ctx, userID, unreadOnly, pagination.Page, pagination.PageSize)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list notifications")
	}
	if items == nil {
		items = []models.Notification{}
	}
	pagination.TotalCount = total
	return items, pagination, nil
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID string) (int, error) {
	count, err := s.repo.UnreadCount(ctx, userID)
	if err != nil {
		return 0, appErrors.Internal(err, "failed to count notifications")
	}
	return count, nil
}

// MarkRead only touches the caller's own notifications.
func (s *NotificationService) MarkRead(ctx context.Context, userID, id string) error {
	if err := s.repo.MarkRead(ctx, id, userID, s.now().UTC()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "notification not found")
		}
		return appErrors.Internal(err, "failed to mark notification read")
	}
	return nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	n, err := s.repo.MarkAllRead(ctx, userID, s.now().UTC())
	if err != nil {
		return 0, appErrors.Internal(err, "failed to mark notifications read")
	}
	return n, nil
}
