package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/event-idea-marketplace/internal/models"
	appErrors "github.com/noah-isme/event-idea-marketplace/pkg/errors"
	"github.com/noah-isme/event-idea-marketplace/pkg/eventbus"
)

// Notifier hands a message to the asynchronous notification pipeline.
type Notifier interface {
	Notify(ctx context.Context, msg models.NotificationMessage)
}

// AchievementChecker re-evaluates badges after user activity.
type AchievementChecker interface {
	Check(ctx context.Context, userID string) ([]models.Achievement, error)
}

// CacheInvalidator drops cached payloads by key pattern.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, pattern string) error
}

type noopNotifier struct{}

func (noopNotifier) Notify(context.Context, models.NotificationMessage) {}

// lookupError maps a repository read failure to NOT_FOUND or INTERNAL_ERROR.
func lookupError(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, what+" not found")
	}
	return appErrors.Internal(err, "failed to load "+what)
}

func isSuperAdmin(actor *models.JWTClaims) bool {
	return actor != nil && actor.Role == models.RoleSuperAdmin
}

func actorID(actor *models.JWTClaims) string {
	if actor == nil {
		return ""
	}
	return actor.UserID
}

func stringPtr(s string) *string {
	return &s
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// publishChange emits a change event. Failures are logged, never returned.
func publishChange(ctx context.Context, bus eventbus.Publisher, logger *zap.Logger, kind, id, action string) {
	if bus == nil {
		return
	}
	if err := bus.Publish(ctx, eventbus.NewChange(kind, id, action)); err != nil {
		logger.Warn("publish change failed", zap.String("kind", kind), zap.String("id", id), zap.String("action", action), zap.Error(err))
	}
}

// checkAchievements runs the checker for userID and logs failures.
func checkAchievements(ctx context.Context, checker AchievementChecker, logger *zap.Logger, userID string) {
	if checker == nil || userID == "" {
		return
	}
	if _, err := checker.Check(ctx, userID); err != nil {
		logger.Warn("achievement check failed", zap.String("user_id", userID), zap.Error(err))
	}
}

func invalidate(ctx context.Context, cache CacheInvalidator, logger *zap.Logger, pattern string) {
	if cache == nil {
		return
	}
	if err := cache.Invalidate(ctx, pattern); err != nil {
		logger.Warn("cache invalidation failed", zap.String("pattern", pattern), zap.Error(err))
	}
}
