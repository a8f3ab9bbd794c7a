package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/event-idea-marketplace/internal/models"
	appErrors "github.com/noah-isme/event-idea-marketplace/pkg/errors"
	"github.com/noah-isme/event-idea-marketplace/pkg/eventbus"
)

type mockIdeaRepo struct {
	ideas map[string]*models.Idea
	seq   int
}

func (m *mockIdeaRepo) FindByID(ctx context.Context, id string) (*models.Idea, error) {
	if idea, ok := m.ideas[id]; ok {
		copy := *idea
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockIdeaRepo) List(ctx context.Context, filter models.IdeaFilter) ([]models.Idea, int, error) {
	var out []models.Idea
	for _, idea := range m.ideas {
		if idea.IsActive {
			out = append(out, *idea)
		}
	}
	return out, len(out), nil
}

func (m *mockIdeaRepo) Top(ctx context.Context, limit int) ([]models.Idea, error) {
	ideas, _, _ := m.List(ctx, models.IdeaFilter{})
	return ideas, nil
}

func (m *mockIdeaRepo) CountActiveByAuthorAndEvent(ctx context.Context, userID, eventID string) (int, error) {
	n := 0
	for _, idea := range m.ideas {
		if idea.IsActive && idea.StudentID == userID && idea.EventID != nil && *idea.EventID == eventID {
			n++
		}
	}
	return n, nil
}

func (m *mockIdeaRepo) Create(ctx context.Context, idea *models.Idea) error {
	m.seq++
	idea.ID = fmt.Sprintf("idea-%d", m.seq)
	copy := *idea
	m.ideas[idea.ID] = &copy
	return nil
}

func (m *mockIdeaRepo) Update(ctx context.Context, idea *models.Idea) error {
	copy := *idea
	m.ideas[idea.ID] = &copy
	return nil
}

func (m *mockIdeaRepo) UpdateStatus(ctx context.Context, id string, status models.IdeaStatus) error {
	idea, ok := m.ideas[id]
	if !ok || !idea.IsActive {
		return sql.ErrNoRows
	}
	idea.Status = status
	return nil
}

func (m *mockIdeaRepo) Deactivate(ctx context.Context, id string) error {
	m.ideas[id].IsActive = false
	return nil
}

type mockProblemReader map[string]*models.Problem

func (m mockProblemReader) FindByID(ctx context.Context, id string) (*models.Problem, error) {
	if p, ok := m[id]; ok {
		copy := *p
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

type ideaFixture struct {
	svc      *IdeaService
	repo     *mockIdeaRepo
	notifier *recordingNotifier
	checker  *countingChecker
	bus      *eventbus.Memory
}

func newIdeaFixture() *ideaFixture {
	now := time.Date(2026, 4, 10, 10, 0, 0, 0, time.UTC)
	future := now.Add(48 * time.Hour)
	past := now.Add(-2 * time.Hour)
	events := newMockEventRepo(
		&models.Event{ID: "open", Title: "Hackathon", ClubID: "club-1", OrganizerID: "organizer", Status: models.EventPublished, AcceptsIdeas: true, IsActive: true, IdeaSubmissionDeadline: &future},
		&models.Event{ID: "late", ClubID: "club-1", OrganizerID: "organizer", Status: models.EventPublished, AcceptsIdeas: true, IsActive: true, IdeaSubmissionDeadline: &past},
		&models.Event{ID: "draft", ClubID: "club-1", OrganizerID: "organizer", Status: models.EventDraft, AcceptsIdeas: true, IsActive: true},
	)
	problems := mockProblemReader{
		"p-open":   {ID: "p-open", Title: "Campus Wi-Fi", ClubID: "club-2", PostedBy: "poster", Status: models.ProblemOpen, Deadline: &future},
		"p-closed": {ID: "p-closed", ClubID: "club-2", PostedBy: "poster", Status: models.ProblemClosed},
	}
	clubs := newMockClubRepo(
		&models.Club{ID: "club-1", AdminUserID: stringPtr("admin-1")},
		&models.Club{ID: "club-2", AdminUserID: stringPtr("admin-2")},
	)
	f := &ideaFixture{
		repo:     &mockIdeaRepo{ideas: map[string]*models.Idea{}},
		notifier: &recordingNotifier{},
		checker:  &countingChecker{},
		bus:      eventbus.NewMemory(),
	}
	f.svc = NewIdeaService(f.repo, events, problems, clubs, nil, f.notifier, f.checker, f.bus, nil)
	f.svc.now = func() time.Time { return now }
	return f
}

func ideaFor(eventID, problemID string) models.IdeaRequest {
	req := models.IdeaRequest{Title: "Smart benches", Description: "Solar benches with USB charging"}
	if eventID != "" {
		req.EventID = &eventID
	}
	if problemID != "" {
		req.ProblemID = &problemID
	}
	return req
}

func TestIdeaServiceCreateForEvent(t *testing.T) {
	f := newIdeaFixture()
	student := claims("s1", models.RoleStudent)

	idea, err := f.svc.Create(context.Background(), student, ideaFor("open", ""))
	require.NoError(t, err)
	assert.Equal(t, models.IdeaSubmitted, idea.Status)
	assert.Equal(t, "s1", idea.StudentID)

	require.Len(t, f.notifier.messages, 1)
	assert.Equal(t, "organizer", f.notifier.messages[0].UserID)
	assert.Equal(t, models.NotificationNewIdea, f.notifier.messages[0].Type)
	assert.Equal(t, []string{"s1"}, f.checker.users)
	assert.Equal(t, []string{"idea.created"}, f.bus.Subjects())
}

func TestIdeaServiceEnforcesPerEventLimit(t *testing.T) {
	f := newIdeaFixture()
	student := claims("s1", models.RoleStudent)
	ctx := context.Background()

	for i := 0; i < models.MaxIdeasPerEvent; i++ {
		_, err := f.svc.Create(ctx, student, ideaFor("open", ""))
		require.NoError(t, err)
	}
	_, err := f.svc.Create(ctx, student, ideaFor("open", ""))
	assert.Equal(t, appErrors.ErrLimitReached.Code, appErrors.FromError(err).Code)

	status, err := f.svc.SubmissionStatus(ctx, student, "open")
	require.NoError(t, err)
	assert.Equal(t, 2, status.SubmittedCount)
	assert.Equal(t, 0, status.Remaining)
	assert.False(t, status.CanSubmit)

	other, err := f.svc.SubmissionStatus(ctx, claims("s2", models.RoleStudent), "open")
	require.NoError(t, err)
	assert.True(t, other.CanSubmit)
	assert.Equal(t, 2, other.Remaining)
}

func TestIdeaServiceRejectsClosedTopics(t *testing.T) {
	f := newIdeaFixture()
	student := claims("s1", models.RoleStudent)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, student, ideaFor("late", ""))
	assert.Equal(t, appErrors.ErrDeadlinePassed.Code, appErrors.FromError(err).Code)

	_, err = f.svc.Create(ctx, student, ideaFor("draft", ""))
	assert.Equal(t, appErrors.ErrDeadlinePassed.Code, appErrors.FromError(err).Code)

	_, err = f.svc.Create(ctx, student, ideaFor("", "p-closed"))
	assert.Equal(t, appErrors.ErrDeadlinePassed.Code, appErrors.FromError(err).Code)

	_, err = f.svc.Create(ctx, student, ideaFor("open", "p-open"))
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestIdeaServiceCreateForProblem(t *testing.T) {
	f := newIdeaFixture()

	idea, err := f.svc.Create(context.Background(), claims("s1", models.RoleStudent), ideaFor("", "p-open"))
	require.NoError(t, err)
	require.NotNil(t, idea.ProblemID)
	require.Len(t, f.notifier.messages, 1)
	assert.Equal(t, "poster", f.notifier.messages[0].UserID)
}

func TestIdeaServiceChangeStatusScopedToClub(t *testing.T) {
	f := newIdeaFixture()
	ctx := context.Background()
	idea, err := f.svc.Create(ctx, claims("s1", models.RoleStudent), ideaFor("open", ""))
	require.NoError(t, err)
	req := models.IdeaStatusRequest{Status: models.IdeaApproved}

	_, err = f.svc.ChangeStatus(ctx, claims("s1", models.RoleStudent), idea.ID, req)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	_, err = f.svc.ChangeStatus(ctx, claims("admin-2", models.RoleClubAdmin), idea.ID, req)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	updated, err := f.svc.ChangeStatus(ctx, claims("admin-1", models.RoleClubAdmin), idea.ID, req)
	require.NoError(t, err)
	assert.Equal(t, models.IdeaApproved, updated.Status)
	assert.Equal(t, []models.NotificationType{models.NotificationNewIdea, models.NotificationIdeaStatusChanged}, f.notifier.types())
	assert.Equal(t, []string{"s1", "s1"}, f.checker.users)
}

func TestIdeaServiceDeleteOwnerOnly(t *testing.T) {
	f := newIdeaFixture()
	ctx := context.Background()
	idea, err := f.svc.Create(ctx, claims("s1", models.RoleStudent), ideaFor("open", ""))
	require.NoError(t, err)

	err = f.svc.Delete(ctx, claims("s2", models.RoleStudent), idea.ID)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	require.NoError(t, f.svc.Delete(ctx, claims("s1", models.RoleStudent), idea.ID))
	_, err = f.svc.Get(ctx, idea.ID)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
