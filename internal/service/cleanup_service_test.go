package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/event-idea-marketplace/internal/models"
	"github.com/noah-isme/event-idea-marketplace/pkg/eventbus"
	"github.com/noah-isme/event-idea-marketplace/pkg/jobs"
)

type cleanupEventStub struct {
	candidates []models.Event
	cutoff     time.Time
	failOn     map[string]error
	expired    []string
}

func (c *cleanupEventStub) ListCleanupCandidates(_ context.Context, cutoff time.Time) ([]models.Event, error) {
	c.cutoff = cutoff
	return c.candidates, nil
}

func (c *cleanupEventStub) Expire(_ context.Context, id string) error {
	if err := c.failOn[id]; err != nil {
		return err
	}
	c.expired = append(c.expired, id)
	return nil
}

type cleanupProblemStub struct {
	expired []models.Problem
	cutoff  time.Time
	listErr error
	closed  []string
}

func (c *cleanupProblemStub) ListExpiredOpen(_ context.Context, cutoff time.Time) ([]models.Problem, error) {
	c.cutoff = cutoff
	return c.expired, c.listErr
}

func (c *cleanupProblemStub) Close(_ context.Context, id string) error {
	c.closed = append(c.closed, id)
	return nil
}

func TestCleanupRunRetiresExpiredItems(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	events := &cleanupEventStub{
		candidates: []models.Event{
			{ID: "e1", Title: "Stale topic", OrganizerID: "org-1"},
			{ID: "e2", Title: "Broken", OrganizerID: "org-2"},
			{ID: "e3", Title: "Raced", OrganizerID: "org-3"},
		},
		failOn: map[string]error{"e2": errors.New("db down"), "e3": sql.ErrNoRows},
	}
	problems := &cleanupProblemStub{expired: []models.Problem{{ID: "p1", Title: "Parking", PostedBy: "admin-1"}}}
	notifier := &recordingNotifier{}
	bus := eventbus.NewMemory()
	cache := &recordingCache{}
	svc := NewCleanupService(events, problems, notifier, bus, cache, nil, CleanupConfig{EventExpiry: time.Hour, ProblemExpiry: 2 * time.Hour}, nil)
	svc.now = func() time.Time { return now }

	report, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, CleanupReport{EventsExpired: 1, EventsFailed: 1, ProblemsClosed: 1}, report)
	assert.Equal(t, now.Add(-time.Hour), events.cutoff)
	assert.Equal(t, now.Add(-2*time.Hour), problems.cutoff)
	assert.Equal(t, []string{"e1"}, events.expired)
	assert.Equal(t, []string{"p1"}, problems.closed)

	require.Len(t, notifier.messages, 2)
	assert.Equal(t, "org-1", notifier.messages[0].UserID)
	assert.Equal(t, "admin-1", notifier.messages[1].UserID)
	assert.Equal(t, []models.NotificationType{models.NotificationSystem, models.NotificationSystem}, notifier.types())
	assert.Equal(t, []string{"event.expired", "problem.closed"}, bus.Subjects())
	assert.Equal(t, []string{analyticsPattern}, cache.patterns)
}

func TestCleanupRunReportsListingFailure(t *testing.T) {
	problems := &cleanupProblemStub{listErr: errors.New("timeout")}
	svc := NewCleanupService(&cleanupEventStub{}, problems, nil, nil, nil, nil, CleanupConfig{}, nil)

	_, err := svc.Run(context.Background())
	assert.EqualError(t, err, "timeout")
}

func TestCleanupScheduleRegistersTask(t *testing.T) {
	scheduler := jobs.NewScheduler(nil, time.Second)
	svc := NewCleanupService(&cleanupEventStub{}, &cleanupProblemStub{}, nil, nil, nil, nil, CleanupConfig{}, nil)

	require.NoError(t, svc.Schedule(scheduler, "@every 15m"))
	assert.Error(t, svc.Schedule(scheduler, "not a spec"))
}
