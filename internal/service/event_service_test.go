package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/event-idea-marketplace/internal/models"
	appErrors "github.com/noah-isme/event-idea-marketplace/pkg/errors"
	"github.com/noah-isme/event-idea-marketplace/pkg/eventbus"
)

type mockEventRepo struct {
	events    map[string]*models.Event
	topicsCut time.Time
}

func newMockEventRepo(events ...*models.Event) *mockEventRepo {
	repo := &mockEventRepo{events: map[string]*models.Event{}}
	for _, e := range events {
		repo.events[e.ID] = e
	}
	return repo
}

func (m *mockEventRepo) FindByID(ctx context.Context, id string) (*models.Event, error) {
	if e, ok := m.events[id]; ok {
		copy := *e
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockEventRepo) List(ctx context.Context, filter models.EventFilter) ([]models.Event, int, error) {
	var out []models.Event
	for _, e := range m.events {
		if filter.ClubID == "" || e.ClubID == filter.ClubID {
			out = append(out, *e)
		}
	}
	return out, len(out), nil
}

func (m *mockEventRepo) byStatus(status models.EventStatus) []models.Event {
	var out []models.Event
	for _, e := range m.events {
		if e.Status == status {
			out = append(out, *e)
		}
	}
	return out
}

func (m *mockEventRepo) ListByStatus(ctx context.Context, status models.EventStatus) ([]models.Event, error) {
	return m.byStatus(status), nil
}

func (m *mockEventRepo) ListRejectedByClub(ctx context.Context, clubID string) ([]models.Event, error) {
	return m.byStatus(models.EventRejected), nil
}

func (m *mockEventRepo) ListUpcoming(ctx context.Context, now time.Time) ([]models.Event, error) {
	return nil, nil
}

func (m *mockEventRepo) ListOngoing(ctx context.Context, now time.Time) ([]models.Event, error) {
	return nil, nil
}

func (m *mockEventRepo) ListClubTopics(ctx context.Context, clubID string, cutoff time.Time) ([]models.Event, error) {
	m.topicsCut = cutoff
	return nil, nil
}

func (m *mockEventRepo) ListActiveForStudents(ctx context.Context, now time.Time) ([]models.Event, error) {
	return nil, nil
}

func (m *mockEventRepo) CountByClub(ctx context.Context, clubID string) (int, error) {
	events, _, _ := m.List(ctx, models.EventFilter{ClubID: clubID})
	return len(events), nil
}

func (m *mockEventRepo) Create(ctx context.Context, event *models.Event) error {
	event.ID = "ev-new"
	copy := *event
	m.events[event.ID] = &copy
	return nil
}

func (m *mockEventRepo) Update(ctx context.Context, event *models.Event) error {
	copy := *event
	m.events[event.ID] = &copy
	return nil
}

func (m *mockEventRepo) Deactivate(ctx context.Context, id string) error {
	m.events[id].IsActive = false
	return nil
}

func (m *mockEventRepo) SubmitForApproval(ctx context.Context, id string, hallID *string) error {
	e := m.events[id]
	if e.Status != models.EventDraft && e.Status != models.EventRejected {
		return sql.ErrNoRows
	}
	e.Status = models.EventPendingApproval
	e.RejectionReason = nil
	if hallID != nil {
		e.HallID = hallID
	}
	return nil
}

func (m *mockEventRepo) Decide(ctx context.Context, id string, to models.EventStatus, reason *string, decidedBy string, at time.Time) error {
	e := m.events[id]
	if e.Status != models.EventPendingApproval {
		return sql.ErrNoRows
	}
	e.Status = to
	e.RejectionReason = reason
	if to == models.EventApproved {
		e.ApprovedBy = &decidedBy
		e.ApprovedAt = &at
	}
	return nil
}

func (m *mockEventRepo) Transition(ctx context.Context, id string, from, to models.EventStatus) error {
	e := m.events[id]
	if e.Status != from {
		return sql.ErrNoRows
	}
	e.Status = to
	return nil
}

func (m *mockEventRepo) ApproveProposal(ctx context.Context, event *models.Event, from models.EventStatus) error {
	if m.events[event.ID].Status != from {
		return sql.ErrNoRows
	}
	copy := *event
	copy.Status = models.EventPublished
	m.events[event.ID] = &copy
	return nil
}

type mockHallReader map[string]*models.Hall

func (m mockHallReader) FindByID(ctx context.Context, id string) (*models.Hall, error) {
	if h, ok := m[id]; ok {
		return h, nil
	}
	return nil, sql.ErrNoRows
}

type eventFixture struct {
	svc      *EventService
	repo     *mockEventRepo
	notifier *recordingNotifier
	bus      *eventbus.Memory
	now      time.Time
}

func newEventFixture(events ...*models.Event) *eventFixture {
	clubs := newMockClubRepo(&models.Club{ID: "club-1", Name: "Robotics", IsActive: true, AdminUserID: stringPtr("club-admin")})
	halls := mockHallReader{
		"small": {ID: "small", SeatingCapacity: 30, IsActive: true},
		"big":   {ID: "big", SeatingCapacity: 300, IsActive: true},
	}
	f := &eventFixture{
		repo:     newMockEventRepo(events...),
		notifier: &recordingNotifier{},
		bus:      eventbus.NewMemory(),
		now:      time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC),
	}
	f.svc = NewEventService(f.repo, clubs, halls, nil, f.notifier, f.bus, nil, nil)
	f.svc.now = func() time.Time { return f.now }
	return f
}

func TestEventServiceCreateStartsAsDraft(t *testing.T) {
	f := newEventFixture()

	event, err := f.svc.Create(context.Background(), claims("club-admin", models.RoleClubAdmin), models.EventRequest{Title: "Robot Wars", ClubID: "club-1"})
	require.NoError(t, err)
	assert.Equal(t, models.EventDraft, event.Status)
	assert.Equal(t, "club-admin", event.OrganizerID)
	assert.True(t, event.AcceptsIdeas)
	assert.Equal(t, models.EventOther, event.Type)

	_, err = f.svc.Create(context.Background(), claims("stranger", models.RoleClubAdmin), models.EventRequest{Title: "Robot Wars", ClubID: "club-1"})
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestEventServiceSubmitChecksHallCapacity(t *testing.T) {
	f := newEventFixture(&models.Event{ID: "e1", ClubID: "club-1", OrganizerID: "club-admin", Status: models.EventDraft, MaxParticipants: 100, IsActive: true})
	actor := claims("club-admin", models.RoleClubAdmin)

	_, err := f.svc.SubmitForApproval(context.Background(), actor, models.SubmitForApprovalRequest{EventID: "e1", HallID: stringPtr("small")})
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	event, err := f.svc.SubmitForApproval(context.Background(), actor, models.SubmitForApprovalRequest{EventID: "e1", HallID: stringPtr("big")})
	require.NoError(t, err)
	assert.Equal(t, models.EventPendingApproval, event.Status)
	require.NotNil(t, event.HallID)
	assert.Equal(t, "big", *event.HallID)
}

func TestEventServiceApproveNotifiesOrganizer(t *testing.T) {
	f := newEventFixture(&models.Event{ID: "e1", Title: "Hack Night", ClubID: "club-1", OrganizerID: "org", Status: models.EventPendingApproval, IsActive: true})

	event, err := f.svc.Approve(context.Background(), claims("root", models.RoleSuperAdmin), "e1")
	require.NoError(t, err)
	assert.Equal(t, models.EventApproved, event.Status)
	require.NotNil(t, event.ApprovedBy)
	assert.Equal(t, "root", *event.ApprovedBy)
	assert.Equal(t, f.now, *event.ApprovedAt)

	require.Len(t, f.notifier.messages, 1)
	assert.Equal(t, "org", f.notifier.messages[0].UserID)
	assert.Equal(t, models.NotificationEventAnnouncement, f.notifier.messages[0].Type)
	assert.Equal(t, []string{"event.approved"}, f.bus.Subjects())

	_, err = f.svc.Approve(context.Background(), claims("root", models.RoleSuperAdmin), "e1")
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErrors.FromError(err).Code)
}

func TestEventServiceRejectRequiresReason(t *testing.T) {
	f := newEventFixture(&models.Event{ID: "e1", OrganizerID: "org", Status: models.EventPendingApproval, IsActive: true})
	root := claims("root", models.RoleSuperAdmin)

	_, err := f.svc.Reject(context.Background(), root, "e1", models.RejectEventRequest{})
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	event, err := f.svc.Reject(context.Background(), root, "e1", models.RejectEventRequest{RejectionReason: "clashes with exams"})
	require.NoError(t, err)
	assert.Equal(t, models.EventRejected, event.Status)
	assert.Equal(t, []string{"event.rejected"}, f.bus.Subjects())

	event, err = f.svc.Resubmit(context.Background(), claims("org", models.RoleClubAdmin), "e1")
	require.NoError(t, err)
	assert.Equal(t, models.EventPendingApproval, event.Status)
	assert.Nil(t, event.RejectionReason)
}

func TestEventServicePublishDraftOnlyForSuperAdmin(t *testing.T) {
	f := newEventFixture(&models.Event{ID: "e1", ClubID: "club-1", OrganizerID: "club-admin", Status: models.EventDraft, IsActive: true})

	_, err := f.svc.Publish(context.Background(), claims("club-admin", models.RoleClubAdmin), "e1")
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErrors.FromError(err).Code)

	event, err := f.svc.Publish(context.Background(), claims("root", models.RoleSuperAdmin), "e1")
	require.NoError(t, err)
	assert.Equal(t, models.EventPublished, event.Status)
}

func TestEventServiceApproveProposalPublishes(t *testing.T) {
	f := newEventFixture(&models.Event{ID: "e1", OrganizerID: "org", Status: models.EventPendingApproval, IsActive: true})
	start := f.now.Add(72 * time.Hour)
	end := start.Add(3 * time.Hour)

	event, err := f.svc.ApproveProposal(context.Background(), claims("root", models.RoleSuperAdmin), "e1", models.ApproveProposalRequest{
		Title: "Robotics Expo", Type: models.EventTechnical, StartDate: &start, EndDate: &end, Location: "Main Hall", MaxParticipants: 80,
	})
	require.NoError(t, err)
	assert.Equal(t, models.EventPublished, event.Status)
	assert.Equal(t, 80, event.MaxParticipants)
	assert.Equal(t, "Main Hall", *event.Location)
}

func TestEventServiceClubTopicsUsesGracePeriod(t *testing.T) {
	f := newEventFixture()
	_, err := f.svc.ClubTopics(context.Background(), "club-1")
	require.NoError(t, err)
	assert.Equal(t, f.now.Add(-24*time.Hour), f.repo.topicsCut)
}

func TestEventServiceSubmissionState(t *testing.T) {
	deadline := time.Date(2026, 5, 1, 8, 30, 0, 0, time.UTC)
	f := newEventFixture(&models.Event{ID: "e1", AcceptsIdeas: true, IdeaSubmissionDeadline: &deadline})

	state, err := f.svc.SubmissionState(context.Background(), "e1")
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionViewOnly, state.State)
}
