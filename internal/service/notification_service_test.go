package service

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/event-idea-marketplace/internal/models"
	appErrors "github.com/noah-isme/event-idea-marketplace/pkg/errors"
	"github.com/noah-isme/event-idea-marketplace/pkg/eventbus"
	"github.com/noah-isme/event-idea-marketplace/pkg/jobs"
)

type mockNotificationRepo struct {
	mu       sync.Mutex
	items    []models.Notification
	failures int
	created  chan struct{}
}

func newMockNotificationRepo() *mockNotificationRepo {
	return &mockNotificationRepo{created: make(chan struct{}, 16)}
}

func (m *mockNotificationRepo) Create(_ context.Context, n *models.Notification) error {
	m.mu.Lock()
	if m.failures > 0 {
		m.failures--
		m.mu.Unlock()
		return errors.New("db down")
	}
	n.ID = "n-" + n.UserID
	m.items = append(m.items, *n)
	m.mu.Unlock()
	m.created <- struct{}{}
	return nil
}

func (m *mockNotificationRepo) ListByUser(_ context.Context, userID string, unreadOnly bool, page, pageSize int) ([]models.Notification, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Notification
	for _, n := range m.items {
		if n.UserID == userID && (!unreadOnly || !n.IsRead) {
			out = append(out, n)
		}
	}
	return out, len(out), nil
}

func (m *mockNotificationRepo) UnreadCount(_ context.Context, userID string) (int, error) {
	items, _, _ := m.ListByUser(context.Background(), userID, true, 1, 100)
	return len(items), nil
}

func (m *mockNotificationRepo) MarkRead(_ context.Context, id, userID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.items {
		if m.items[i].ID == id && m.items[i].UserID == userID {
			m.items[i].IsRead = true
			m.items[i].ReadAt = &at
			return nil
		}
	}
	return sql.ErrNoRows
}

func (m *mockNotificationRepo) MarkAllRead(_ context.Context, userID string, at time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for i := range m.items {
		if m.items[i].UserID == userID && !m.items[i].IsRead {
			m.items[i].IsRead = true
			m.items[i].ReadAt = &at
			n++
		}
	}
	return n, nil
}

func waitCreated(t *testing.T, repo *mockNotificationRepo) {
	t.Helper()
	select {
	case <-repo.created:
	case <-time.After(2 * time.Second):
		t.Fatal("notification was not persisted")
	}
}

func TestNotificationDispatcherPersistsAndPublishes(t *testing.T) {
	repo := newMockNotificationRepo()
	bus := eventbus.NewMemory()
	d := NewNotificationDispatcher(repo, bus, nil, jobs.QueueConfig{Workers: 1}, nil)
	d.Start(context.Background())
	defer d.Stop()

	d.Notify(context.Background(), models.NotificationMessage{
		UserID:          "u1",
		Title:           "New idea",
		Message:         "Someone pitched an idea",
		Type:            models.NotificationNewIdea,
		RelatedEntityID: "idea-1",
	})
	waitCreated(t, repo)

	repo.mu.Lock()
	require.Len(t, repo.items, 1)
	stored := repo.items[0]
	repo.mu.Unlock()
	assert.Equal(t, models.NotificationNewIdea, stored.Type)
	require.NotNil(t, stored.RelatedEntityID)
	assert.Equal(t, "idea-1", *stored.RelatedEntityID)
	assert.Nil(t, stored.RelatedEntityType)

	require.Eventually(t, func() bool { return len(bus.Changes()) == 1 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"notification.created"}, bus.Subjects())
}

func TestNotificationDispatcherRetriesFailedWrites(t *testing.T) {
	repo := newMockNotificationRepo()
	repo.failures = 1
	d := NewNotificationDispatcher(repo, nil, nil, jobs.QueueConfig{Workers: 1, MaxRetries: 2, RetryDelay: 5 * time.Millisecond}, nil)
	d.Start(context.Background())
	defer d.Stop()

	d.Notify(context.Background(), models.NotificationMessage{UserID: "u1", Title: "t", Message: "m", Type: models.NotificationSystem})
	waitCreated(t, repo)
}

func TestNotificationDispatcherDropsWhenStopped(t *testing.T) {
	repo := newMockNotificationRepo()
	d := NewNotificationDispatcher(repo, nil, nil, jobs.QueueConfig{}, nil)

	d.Notify(context.Background(), models.NotificationMessage{UserID: "u1", Type: models.NotificationSystem})
	assert.Zero(t, d.Pending())
	assert.Empty(t, repo.items)
}

func TestNotificationServiceInbox(t *testing.T) {
	repo := newMockNotificationRepo()
	repo.items = []models.Notification{
		{ID: "a", UserID: "u1", Type: models.NotificationIdeaVoted},
		{ID: "b", UserID: "u1", Type: models.NotificationIdeaCommented},
		{ID: "c", UserID: "u2", Type: models.NotificationSystem},
	}
	svc := NewNotificationService(repo, nil)
	fixed := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }
	ctx := context.Background()

	items, pagination, err := svc.List(ctx, "u1", false, 0, 0)
	require.NoError(t, err)
	assert.Len(t, items, 2)
	assert.Equal(t, 1, pagination.Page)
	assert.Equal(t, 2, pagination.TotalCount)

	require.NoError(t, svc.MarkRead(ctx, "u1", "a"))
	count, err := svc.UnreadCount(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	err = svc.MarkRead(ctx, "u1", "c")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	changed, err := svc.MarkAllRead(ctx, "u1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, changed)
	assert.Equal(t, fixed, *repo.items[1].ReadAt)
}

func TestNotificationServiceListNeverNil(t *testing.T) {
	svc := NewNotificationService(newMockNotificationRepo(), nil)
	items, _, err := svc.List(context.Background(), "nobody", true, 1, 10)
	require.NoError(t, err)
	assert.NotNil(t, items)
}
