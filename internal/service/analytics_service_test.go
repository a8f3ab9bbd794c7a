package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/event-idea-marketplace/internal/models"
	"github.com/noah-isme/event-idea-marketplace/internal/repository"
	appErrors "github.com/noah-isme/event-idea-marketplace/pkg/errors"
)

type mockAnalyticsRepo struct {
	mu        sync.Mutex
	totals    map[repository.DashboardMetric]int
	byStatus  []models.StatusCount
	calls     int
	statusErr error
}

func (m *mockAnalyticsRepo) Total(_ context.Context, metric repository.DashboardMetric) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.totals[metric], nil
}

func (m *mockAnalyticsRepo) EventsByStatus(context.Context) ([]models.StatusCount, error) {
	if m.statusErr != nil {
		return nil, m.statusErr
	}
	return m.byStatus, nil
}

type stubCacheRepo struct {
	mu       sync.Mutex
	store    map[string][]byte
	patterns []string
}

func (s *stubCacheRepo) Get(_ context.Context, key string, dest interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	payload, ok := s.store[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(payload, dest)
}

func (s *stubCacheRepo) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.store == nil {
		s.store = make(map[string][]byte)
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.store[key] = payload
	return nil
}

func (s *stubCacheRepo) DeleteByPattern(_ context.Context, pattern string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.patterns = append(s.patterns, pattern)
	s.store = nil
	return nil
}

func TestAnalyticsServiceDashboardCaching(t *testing.T) {
	repo := &mockAnalyticsRepo{
		totals: map[repository.DashboardMetric]int{
			repository.MetricUsers:            12,
			repository.MetricEvents:           4,
			repository.MetricPendingApprovals: 2,
			repository.MetricVotes:            40,
		},
		byStatus: []models.StatusCount{{Status: models.EventPublished, Count: 3}, {Status: models.EventPendingApproval, Count: 1}},
	}
	cacheRepo := &stubCacheRepo{}
	cacheSvc := NewCacheService(cacheRepo, nil, time.Minute, zap.NewNop(), true)
	svc := NewAnalyticsService(repo, cacheSvc, nil, zap.NewNop())
	ctx := context.Background()

	summary, cacheHit, err := svc.Dashboard(ctx)
	require.NoError(t, err)
	assert.False(t, cacheHit)
	assert.Equal(t, 12, summary.Users)
	assert.Equal(t, 40, summary.Votes)
	assert.Equal(t, 2, summary.PendingApprovals)
	assert.Equal(t, 3, summary.EventsByStatus[models.EventPublished])
	assert.Equal(t, len(repository.DashboardMetrics()), repo.calls)

	cached, cacheHit, err := svc.Dashboard(ctx)
	require.NoError(t, err)
	assert.True(t, cacheHit)
	assert.Equal(t, summary.Users, cached.Users)
	assert.Equal(t, len(repository.DashboardMetrics()), repo.calls)

	require.NoError(t, cacheSvc.Invalidate(ctx, analyticsPattern))
	_, cacheHit, err = svc.Dashboard(ctx)
	require.NoError(t, err)
	assert.False(t, cacheHit)
	assert.Equal(t, []string{analyticsPattern}, cacheRepo.patterns)
}

func TestAnalyticsServiceDashboardErrorPassthrough(t *testing.T) {
	repo := &mockAnalyticsRepo{statusErr: assert.AnError}
	cacheSvc := NewCacheService(nil, nil, time.Minute, zap.NewNop(), false)
	svc := NewAnalyticsService(repo, cacheSvc, nil, zap.NewNop())

	_, _, err := svc.Dashboard(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
}

func TestAnalyticsServiceSystemMetrics(t *testing.T) {
	metrics := NewMetricsService()
	metrics.TrackNotificationBacklog(func() int { return 3 })
	svc := NewAnalyticsService(&mockAnalyticsRepo{}, nil, metrics, nil)

	snapshot := svc.SystemMetrics()
	assert.Equal(t, 3, snapshot.NotificationsQueued)
	assert.Positive(t, snapshot.Goroutines)
}
