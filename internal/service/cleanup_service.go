package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/event-idea-marketplace/internal/models"
	"github.com/noah-isme/event-idea-marketplace/pkg/eventbus"
	"github.com/noah-isme/event-idea-marketplace/pkg/jobs"
)

type cleanupEventRepository interface {
	ListCleanupCandidates(ctx context.Context, cutoff time.Time) ([]models.Event, error)
	Expire(ctx context.Context, id string) error
}

type cleanupProblemRepository interface {
	ListExpiredOpen(ctx context.Context, cutoff time.Time) ([]models.Problem, error)
	Close(ctx context.Context, id string) error
}

// CleanupConfig sets how long past a deadline items are retired.
type CleanupConfig struct {
	EventExpiry   time.Duration
	ProblemExpiry time.Duration
}

// CleanupReport counts what one run retired.
type CleanupReport struct {
	EventsExpired  int
	EventsFailed   int
	ProblemsClosed int
	ProblemsFailed int
}

// CleanupService retires idea-collecting events and problems once their deadlines pass.
type CleanupService struct {
	events   cleanupEventRepository
	problems cleanupProblemRepository
	notifier Notifier
	bus      eventbus.Publisher
	cache    CacheInvalidator
	metrics  *MetricsService
	cfg      CleanupConfig
	logger   *zap.Logger
	now      func() time.Time
}

func NewCleanupService(events cleanupEventRepository, problems cleanupProblemRepository, notifier Notifier, bus eventbus.Publisher, cache CacheInvalidator, metrics *MetricsService, cfg CleanupConfig, logger *zap.Logger) *CleanupService {
	if cfg.EventExpiry <= 0 {
		cfg.EventExpiry = time.Hour
	}
	if cfg.ProblemExpiry <= 0 {
		cfg.ProblemExpiry = time.Hour
	}
	if notifier == nil {
		notifier = noopNotifier{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CleanupService{events: events, problems: problems, notifier: notifier, bus: bus, cache: cache, metrics: metrics, cfg: cfg, logger: logger, now: time.Now}
}

// Schedule registers the cleanup run on the scheduler.
func (s *CleanupService) Schedule(scheduler *jobs.Scheduler, spec string) error {
	return scheduler.Register("cleanup", spec, func(ctx context.Context) error {
		_, err := s.Run(ctx)
		return err
	})
}

// Run performs one pass. A failure on one item is logged and the pass continues;
// only listing failures are returned.
func (s *CleanupService) Run(ctx context.Context) (CleanupReport, error) {
	var report CleanupReport
	now := s.now().UTC()

	events, err := s.events.ListCleanupCandidates(ctx, now.Add(-s.cfg.EventExpiry))
	if err != nil {
		return report, err
	}
	var expired []string
	for _, event := range events {
		if err := s.events.Expire(ctx, event.ID); err != nil {
			if !errors.Is(err, sql.ErrNoRows) {
				report.EventsFailed++
				s.logger.Warn("expire event failed", zap.String("event_id", event.ID), zap.Error(err))
			}
			continue
		}
		report.EventsExpired++
		expired = append(expired, event.ID)
		s.notifier.Notify(ctx, models.NotificationMessage{
			UserID:            event.OrganizerID,
			Title:             "Event closed",
			Message:           "\"" + event.Title + "\" passed its idea deadline without being taken forward and has been closed",
			Type:              models.NotificationSystem,
			RelatedEntityID:   event.ID,
			RelatedEntityType: "event",
		})
		publishChange(ctx, s.bus, s.logger, eventbus.KindEvent, event.ID, "expired")
	}
	if len(expired) > 0 {
		invalidate(ctx, s.cache, s.logger, analyticsPattern)
	}

	problems, err := s.problems.ListExpiredOpen(ctx, now.Add(-s.cfg.ProblemExpiry))
	if err != nil {
		s.report(report)
		return report, err
	}
	for _, problem := range problems {
		if err := s.problems.Close(ctx, problem.ID); err != nil {
			if !errors.Is(err, sql.ErrNoRows) {
				report.ProblemsFailed++
				s.logger.Warn("close problem failed", zap.String("problem_id", problem.ID), zap.Error(err))
			}
			continue
		}
		report.ProblemsClosed++
		s.notifier.Notify(ctx, models.NotificationMessage{
			UserID:            problem.PostedBy,
			Title:             "Problem closed",
			Message:           "\"" + problem.Title + "\" reached its deadline and is now closed",
			Type:              models.NotificationSystem,
			RelatedEntityID:   problem.ID,
			RelatedEntityType: "problem",
		})
		publishChange(ctx, s.bus, s.logger, eventbus.KindProblem, problem.ID, "closed")
	}

	s.report(report)
	return report, nil
}

func (s *CleanupService) report(report CleanupReport) {
	s.metrics.RecordCleanup("events", report.EventsExpired)
	s.metrics.RecordCleanup("problems", report.ProblemsClosed)
	s.logger.Info("cleanup finished",
		zap.Int("events_expired", report.EventsExpired),
		zap.Int("events_failed", report.EventsFailed),
		zap.Int("problems_closed", report.ProblemsClosed),
		zap.Int("problems_failed", report.ProblemsFailed),
	)
}
