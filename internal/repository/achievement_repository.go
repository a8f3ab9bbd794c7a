package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/event-idea-marketplace/internal/models"
)

// AchievementRepository stores earned badges and reads the activity they are computed from.
type AchievementRepository struct {
	db *sqlx.DB
}

func NewAchievementRepository(db *sqlx.DB) *AchievementRepository {
	return &AchievementRepository{db: db}
}

func (r *AchievementRepository) ListByUser(ctx context.Context, userID string) ([]models.Achievement, error) {
	const query = `SELECT id, user_id, type, level, title, description, points, earned_at FROM achievements WHERE user_id = $1 ORDER BY earned_at DESC`
	var items []models.Achievement
	if err := r.db.SelectContext(ctx, &items, query, userID); err != nil {
		return nil, fmt.Errorf("list achievements: %w", err)
	}
	return items, nil
}

// Award inserts the badge unless the user already holds that type and level.
// It reports whether a row was written.
func (r *AchievementRepository) Award(ctx context.Context, a *models.Achievement) (bool, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.EarnedAt.IsZero() {
		a.EarnedAt = time.Now().UTC()
	}
	const query = `INSERT INTO achievements (id, user_id, type, level, title, description, points, earned_at)
VALUES (:id, :user_id, :type, :level, :title, :description, :points, :earned_at)
ON CONFLICT (user_id, type, level) DO NOTHING`
	res, err := r.db.NamedExecContext(ctx, query, a)
	if err != nil {
		return false, fmt.Errorf("award achievement: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// Points sums the user's points and counts the badges.
func (r *AchievementRepository) Points(ctx context.Context, userID string) (total, count int, err error) {
	var row struct {
		Total int `db:"total"`
		Count int `db:"count"`
	}
	if err := r.db.GetContext(ctx, &row, `SELECT COALESCE(SUM(points), 0) AS total, COUNT(*) AS count FROM achievements WHERE user_id = $1`, userID); err != nil {
		return 0, 0, fmt.Errorf("achievement points: %w", err)
	}
	return row.Total, row.Count, nil
}

// Activity gathers the counters achievement rules are checked against.
func (r *AchievementRepository) Activity(ctx context.Context, userID string) (*models.UserActivity, error) {
	const query = `SELECT
  (SELECT COUNT(*) FROM ideas WHERE submitted_by = $1 AND is_active = TRUE) AS ideas_submitted,
  (SELECT COALESCE(MAX(upvotes), 0) FROM ideas WHERE submitted_by = $1 AND is_active = TRUE) AS max_idea_upvotes,
  (SELECT COUNT(*) FROM votes WHERE user_id = $1) AS votes_cast,
  (SELECT COUNT(*) FROM comments WHERE user_id = $1) AS comments_posted,
  (SELECT COUNT(*) FROM ideas WHERE submitted_by = $1 AND status IN ('IMPLEMENTING', 'COMPLETED')) AS ideas_implemented`
	var activity models.UserActivity
	if err := r.db.GetContext(ctx, &activity, query, userID); err != nil {
		return nil, fmt.Errorf("user activity: %w", err)
	}
	return &activity, nil
}
