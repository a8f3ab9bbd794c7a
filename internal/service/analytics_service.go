package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/event-idea-marketplace/internal/models"
	"github.com/noah-isme/event-idea-marketplace/internal/repository"
	appErrors "github.com/noah-isme/event-idea-marketplace/pkg/errors"
)

const dashboardCacheKey = "analytics:dashboard"

// AnalyticsRepository describes the persistence layer required by AnalyticsService.
type AnalyticsRepository interface {
	Total(ctx context.Context, metric repository.DashboardMetric) (int, error)
	EventsByStatus(ctx context.Context) ([]models.StatusCount, error)
}

// AnalyticsService builds the admin dashboard with cache integration.
type AnalyticsService struct {
	repo    AnalyticsRepository
	cache   *CacheService
	metrics *MetricsService
	logger  *zap.Logger
	now     func() time.Time
}

// NewAnalyticsService constructs an analytics service.
func NewAnalyticsService(repo AnalyticsRepository, cache *CacheService, metrics *MetricsService, logger *zap.Logger) *AnalyticsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnalyticsService{repo: repo, cache: cache, metrics: metrics, logger: logger, now: time.Now}
}

// Dashboard returns platform totals. The boolean indicates whether data originated from cache.
func (s *AnalyticsService) Dashboard(ctx context.Context) (*models.DashboardSummary, bool, error) {
	summary, hit, err := remember(ctx, s.cache, dashboardCacheKey, 0, func(ctx context.Context) (*models.DashboardSummary, error) {
		start := time.Now()
		summary, err := s.compute(ctx)
		if err != nil {
			return nil, err
		}
		s.metrics.ObserveDBQuery("analytics_dashboard", time.Since(start))
		return summary, nil
	})
	if err != nil {
		return nil, false, appErrors.Internal(err, "failed to build dashboard")
	}
	return summary, hit, nil
}

func (s *AnalyticsService) compute(ctx context.Context) (*models.DashboardSummary, error) {
	metrics := repository.DashboardMetrics()
	totals := make(map[repository.DashboardMetric]int, len(metrics))
	var mu sync.Mutex
	var byStatus []models.StatusCount

	eg, egCtx := errgroup.WithContext(ctx)
	for _, metric := range metrics {
		metric := metric
		eg.Go(func() error {
			total, err := s.repo.Total(egCtx, metric)
			if err != nil {
				return fmt.Errorf("dashboard %s: %w", metric, err)
			}
			mu.Lock()
			defer mu.Unlock()
			totals[metric] = total
			return nil
		})
	}
	eg.Go(func() error {
		rows, err := s.repo.EventsByStatus(egCtx)
		if err != nil {
			return fmt.Errorf("dashboard events by status: %w", err)
		}
		byStatus = rows
		return nil
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	summary := &models.DashboardSummary{
		Users:            totals[repository.MetricUsers],
		Clubs:            totals[repository.MetricClubs],
		Events:           totals[repository.MetricEvents],
		Ideas:            totals[repository.MetricIdeas],
		Votes:            totals[repository.MetricVotes],
		Comments:         totals[repository.MetricComments],
		PendingApprovals: totals[repository.MetricPendingApprovals],
		PendingClubs:     totals[repository.MetricPendingClubs],
		EventsByStatus:   make(map[models.EventStatus]int, len(byStatus)),
		GeneratedAt:      s.now().UTC(),
	}
	for _, row := range byStatus {
		summary.EventsByStatus[row.Status] = row.Count
	}
	return summary, nil
}

// SystemMetrics returns a snapshot of runtime metrics.
func (s *AnalyticsService) SystemMetrics() models.AnalyticsSystemMetrics {
	return s.metrics.Snapshot()
}
