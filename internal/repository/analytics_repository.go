package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/event-idea-marketplace/internal/models"
)

// DashboardMetric names one scalar on the admin dashboard.
type DashboardMetric string

const (
	MetricUsers            DashboardMetric = "users"
	MetricClubs            DashboardMetric = "clubs"
	MetricEvents           DashboardMetric = "events"
	MetricIdeas            DashboardMetric = "ideas"
	MetricVotes            DashboardMetric = "votes"
	MetricComments         DashboardMetric = "comments"
	MetricPendingApprovals DashboardMetric = "pending_approvals"
	MetricPendingClubs     DashboardMetric = "pending_clubs"
)

var dashboardQueries = map[DashboardMetric]string{
	MetricUsers:            `SELECT COUNT(*) FROM users`,
	MetricClubs:            `SELECT COUNT(*) FROM clubs WHERE is_active = TRUE`,
	MetricEvents:           `SELECT COUNT(*) FROM events WHERE is_active = TRUE`,
	MetricIdeas:            `SELECT COUNT(*) FROM ideas WHERE is_active = TRUE`,
	MetricVotes:            `SELECT COUNT(*) FROM votes`,
	MetricComments:         `SELECT COUNT(*) FROM comments`,
	MetricPendingApprovals: `SELECT COUNT(*) FROM events WHERE status = 'PENDING_APPROVAL' AND is_active = TRUE`,
	MetricPendingClubs:     `SELECT COUNT(*) FROM clubs WHERE approval_status = 'PENDING'`,
}

// DashboardMetrics lists every metric Total understands.
func DashboardMetrics() []DashboardMetric {
	return []DashboardMetric{MetricUsers, MetricClubs, MetricEvents, MetricIdeas, MetricVotes, MetricComments, MetricPendingApprovals, MetricPendingClubs}
}

// AnalyticsRepository runs the aggregate queries behind the dashboard.
type AnalyticsRepository struct {
	db *sqlx.DB
}

// NewAnalyticsRepository instantiates the repository.
func NewAnalyticsRepository(db *sqlx.DB) *AnalyticsRepository {
	return &AnalyticsRepository{db: db}
}

// Total returns the scalar for metric.
func (r *AnalyticsRepository) Total(ctx context.Context, metric DashboardMetric) (int, error) {
	query, ok := dashboardQueries[metric]
	if !ok {
		return 0, fmt.Errorf("unknown dashboard metric %q", metric)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, query); err != nil {
		return 0, fmt.Errorf("count %s: %w", metric, err)
	}
	return total, nil
}

// EventsByStatus groups active events by lifecycle status.
func (r *AnalyticsRepository) EventsByStatus(ctx context.Context) ([]models.StatusCount, error) {
	var rows []models.StatusCount
	if err := r.db.SelectContext(ctx, &rows, `SELECT status, COUNT(*) AS count FROM events WHERE is_active = TRUE GROUP BY status ORDER BY status`); err != nil {
		return nil, fmt.Errorf("count events by status: %w", err)
	}
	return rows, nil
}
