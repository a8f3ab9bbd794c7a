package service

import (
	"context"
	"sync"

	"github.com/noah-isme/event-idea-marketplace/internal/models"
)

type recordingNotifier struct {
	mu       sync.Mutex
	messages []models.NotificationMessage
}

func (n *recordingNotifier) Notify(_ context.Context, msg models.NotificationMessage) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, msg)
}

func (n *recordingNotifier) types() []models.NotificationType {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]models.NotificationType, len(n.messages))
	for i, m := range n.messages {
		out[i] = m.Type
	}
	return out
}

type recordingCache struct {
	patterns []string
}

func (c *recordingCache) Invalidate(_ context.Context, pattern string) error {
	c.patterns = append(c.patterns, pattern)
	return nil
}

type countingChecker struct {
	users []string
}

func (c *countingChecker) Check(_ context.Context, userID string) ([]models.Achievement, error) {
	c.users = append(c.users, userID)
	return nil, nil
}

func claims(id string, role models.UserRole) *models.JWTClaims {
	return &models.JWTClaims{UserID: id, Role: role}
}
