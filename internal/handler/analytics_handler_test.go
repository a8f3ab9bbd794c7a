package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/event-idea-marketplace/internal/models"
	appErrors "github.com/noah-isme/event-idea-marketplace/pkg/errors"
)

type fakeAnalyticsService struct {
	summary *models.DashboardSummary
	hit     bool
	err     error
}

func (f fakeAnalyticsService) Dashboard(context.Context) (*models.DashboardSummary, bool, error) {
	return f.summary, f.hit, f.err
}

func (f fakeAnalyticsService) SystemMetrics() models.AnalyticsSystemMetrics {
	return models.AnalyticsSystemMetrics{RequestsTotal: 42, NotificationsQueued: 3}
}

func TestAnalyticsHandlerDashboardCacheMeta(t *testing.T) {
	handler := NewAnalyticsHandler(fakeAnalyticsService{summary: &models.DashboardSummary{Users: 12, PendingApprovals: 2}, hit: true})

	c, rec := newTestContext(http.MethodGet, "/analytics/dashboard", nil, superAdmin())
	handler.Dashboard(c)

	require.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, true, env.Meta["cache_hit"])
	assert.Contains(t, env.Meta, "processing_time_ms")
	assert.Contains(t, string(env.Data), `"users":12`)
}

func TestAnalyticsHandlerDashboardError(t *testing.T) {
	handler := NewAnalyticsHandler(fakeAnalyticsService{err: appErrors.Internal(errors.New("db"), "failed to compute dashboard")})
	c, rec := newTestContext(http.MethodGet, "/analytics/dashboard", nil, superAdmin())
	handler.Dashboard(c)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestAnalyticsHandlerSystem(t *testing.T) {
	handler := NewAnalyticsHandler(fakeAnalyticsService{})
	c, rec := newTestContext(http.MethodGet, "/analytics/system", nil, superAdmin())
	handler.System(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"requestsTotal":42`)
	assert.Contains(t, rec.Body.String(), `"notificationsQueued":3`)
}
