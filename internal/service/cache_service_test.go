package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type brokenCacheRepo struct{}

func (brokenCacheRepo) Get(context.Context, string, interface{}) error {
	return errors.New("redis: connection refused")
}

func (brokenCacheRepo) Set(context.Context, string, interface{}, time.Duration) error {
	return errors.New("redis: connection refused")
}

func (brokenCacheRepo) DeleteByPattern(context.Context, string) error {
	return errors.New("redis: connection refused")
}

type leaderboard struct {
	Top []string `json:"top"`
}

func TestRememberLoadsOnceAndCountsByNamespace(t *testing.T) {
	metrics := NewMetricsService()
	svc := NewCacheService(&stubCacheRepo{}, metrics, time.Minute, zap.NewNop(), true)
	loads := 0
	load := func(context.Context) (leaderboard, error) {
		loads++
		return leaderboard{Top: []string{"Food court", "Concert"}}, nil
	}

	first, hit, err := remember(context.Background(), svc, "ideas:leaderboard:ev-1", 0, load)
	require.NoError(t, err)
	assert.False(t, hit)
	second, hit, err := remember(context.Background(), svc, "ideas:leaderboard:ev-1", 0, load)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, loads)

	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), `cache_lookups_total{namespace="ideas",result="hit"} 1`)
	assert.Contains(t, rec.Body.String(), `cache_lookups_total{namespace="ideas",result="miss"} 1`)
	assert.Equal(t, 0.5, metrics.Snapshot().CacheHitRatio)
}

func TestRememberFallsThroughWhenRedisFails(t *testing.T) {
	svc := NewCacheService(brokenCacheRepo{}, nil, time.Minute, zap.NewNop(), true)

	value, hit, err := remember(context.Background(), svc, "analytics:dashboard", 0, func(context.Context) (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 7, value)
	assert.Error(t, svc.Invalidate(context.Background(), analyticsPattern))
}

func TestRememberReturnsLoadError(t *testing.T) {
	svc := NewCacheService(nil, nil, 0, nil, false)
	assert.False(t, svc.Enabled())

	_, _, err := remember(context.Background(), svc, "analytics:dashboard", 0, func(context.Context) (int, error) { return 0, assert.AnError })
	assert.ErrorIs(t, err, assert.AnError)
}
