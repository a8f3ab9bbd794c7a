package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/event-idea-marketplace/internal/models"
	"github.com/noah-isme/event-idea-marketplace/internal/repository"
	appErrors "github.com/noah-isme/event-idea-marketplace/pkg/errors"
	"github.com/noah-isme/event-idea-marketplace/pkg/eventbus"
)

type mockRegistrationRepo struct {
	events map[string]*models.Event
	regs   []*models.EventRegistration
}

func (m *mockRegistrationRepo) FindByID(_ context.Context, id string) (*models.EventRegistration, error) {
	for _, r := range m.regs {
		if r.ID == id {
			copy := *r
			return &copy, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockRegistrationRepo) ListByEvent(_ context.Context, eventID string) ([]models.EventRegistration, error) {
	var out []models.EventRegistration
	for _, r := range m.regs {
		if r.EventID == eventID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *mockRegistrationRepo) ListByUser(_ context.Context, userID string) ([]models.EventRegistration, error) {
	var out []models.EventRegistration
	for _, r := range m.regs {
		if r.UserID == userID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *mockRegistrationRepo) CountByEvent(_ context.Context, eventID string) (*models.RegistrationCount, error) {
	count := &models.RegistrationCount{EventID: eventID}
	for _, r := range m.regs {
		if r.EventID != eventID {
			continue
		}
		switch r.Status {
		case models.RegistrationRegistered:
			count.Registered++
		case models.RegistrationWaitlisted:
			count.Waitlisted++
		case models.RegistrationAttended:
			count.Attended++
		}
	}
	return count, nil
}

func (m *mockRegistrationRepo) find(eventID, userID string) *models.EventRegistration {
	for _, r := range m.regs {
		if r.EventID == eventID && r.UserID == userID {
			return r
		}
	}
	return nil
}

func (m *mockRegistrationRepo) Register(_ context.Context, reg *models.EventRegistration) error {
	event := m.events[reg.EventID]
	if existing := m.find(reg.EventID, reg.UserID); existing != nil && existing.Status != models.RegistrationCancelled {
		return repository.ErrAlreadyRegistered
	}
	reg.Status = models.RegistrationRegistered
	if event.MaxParticipants > 0 && event.CurrentParticipants >= event.MaxParticipants {
		reg.Status = models.RegistrationWaitlisted
	} else {
		event.CurrentParticipants++
	}
	reg.RegistrationDate = time.Now().UTC()
	if existing := m.find(reg.EventID, reg.UserID); existing != nil {
		reg.ID = existing.ID
		*existing = *reg
		return nil
	}
	reg.ID = "reg-" + reg.UserID
	stored := *reg
	m.regs = append(m.regs, &stored)
	return nil
}

func (m *mockRegistrationRepo) Cancel(_ context.Context, eventID, userID string) (*models.EventRegistration, error) {
	current := m.find(eventID, userID)
	if current == nil || current.Status == models.RegistrationCancelled {
		return nil, sql.ErrNoRows
	}
	wasSeated := current.Status == models.RegistrationRegistered
	current.Status = models.RegistrationCancelled
	if !wasSeated {
		return nil, nil
	}
	for _, r := range m.regs {
		if r.EventID == eventID && r.Status == models.RegistrationWaitlisted {
			r.Status = models.RegistrationRegistered
			promoted := *r
			return &promoted, nil
		}
	}
	m.events[eventID].CurrentParticipants--
	return nil, nil
}

func (m *mockRegistrationRepo) UpdateStatus(_ context.Context, id string, status *models.RegistrationStatus, payment *models.PaymentStatus) error {
	if status != nil && !status.IsAttendance() {
		return repository.ErrSeatStatus
	}
	for _, r := range m.regs {
		if r.ID == id {
			if status != nil {
				r.Status = *status
			}
			if payment != nil {
				r.PaymentStatus = *payment
			}
			return nil
		}
	}
	return sql.ErrNoRows
}

type registrationFixture struct {
	svc      *RegistrationService
	repo     *mockRegistrationRepo
	notifier *recordingNotifier
	bus      *eventbus.Memory
}

func newRegistrationFixture(event *models.Event) *registrationFixture {
	events := newMockEventRepo(event)
	repo := &mockRegistrationRepo{events: map[string]*models.Event{event.ID: event}}
	admin := "club-admin"
	clubs := newMockClubRepo(&models.Club{ID: event.ClubID, AdminUserID: &admin, IsActive: true})
	notifier := &recordingNotifier{}
	bus := eventbus.NewMemory()
	svc := NewRegistrationService(repo, events, clubs, validator.New(), notifier, bus, nil)
	svc.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	return &registrationFixture{svc: svc, repo: repo, notifier: notifier, bus: bus}
}

func publishedEvent(max int, fee float64) *models.Event {
	deadline := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	return &models.Event{
		ID:                   "ev-1",
		ClubID:               "club-1",
		OrganizerID:          "organizer",
		Status:               models.EventPublished,
		IsActive:             true,
		MaxParticipants:      max,
		RegistrationFee:      fee,
		RegistrationDeadline: &deadline,
	}
}

func TestRegistrationRegisterAndWaitlist(t *testing.T) {
	f := newRegistrationFixture(publishedEvent(1, 0))
	ctx := context.Background()

	first, err := f.svc.Register(ctx, claims("u1", models.RoleStudent), models.RegisterEventRequest{EventID: "ev-1", Notes: "  front row  "})
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationRegistered, first.Status)
	assert.Equal(t, models.PaymentNotRequired, first.PaymentStatus)
	assert.Equal(t, "front row", first.Notes)

	second, err := f.svc.Register(ctx, claims("u2", models.RoleStudent), models.RegisterEventRequest{EventID: "ev-1"})
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationWaitlisted, second.Status)

	_, err = f.svc.Register(ctx, claims("u1", models.RoleStudent), models.RegisterEventRequest{EventID: "ev-1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)

	assert.Equal(t, []string{"registration.registered", "registration.waitlisted"}, f.bus.Subjects())
}

func TestRegistrationPaymentPendingWhenFeeCharged(t *testing.T) {
	f := newRegistrationFixture(publishedEvent(0, 15000))
	reg, err := f.svc.Register(context.Background(), claims("u1", models.RoleStudent), models.RegisterEventRequest{EventID: "ev-1"})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPending, reg.PaymentStatus)
}

func TestRegistrationRejectsClosedEvents(t *testing.T) {
	draft := publishedEvent(0, 0)
	draft.Status = models.EventDraft
	f := newRegistrationFixture(draft)
	_, err := f.svc.Register(context.Background(), claims("u1", models.RoleStudent), models.RegisterEventRequest{EventID: "ev-1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)

	late := newRegistrationFixture(publishedEvent(0, 0))
	late.svc.now = func() time.Time { return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC) }
	_, err = late.svc.Register(context.Background(), claims("u1", models.RoleStudent), models.RegisterEventRequest{EventID: "ev-1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrDeadlinePassed.Code, appErrors.FromError(err).Code)

	_, err = late.svc.Register(context.Background(), claims("u1", models.RoleStudent), models.RegisterEventRequest{EventID: "missing"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestRegistrationCancelPromotesWaitlist(t *testing.T) {
	f := newRegistrationFixture(publishedEvent(1, 0))
	ctx := context.Background()
	_, err := f.svc.Register(ctx, claims("u1", models.RoleStudent), models.RegisterEventRequest{EventID: "ev-1"})
	require.NoError(t, err)
	_, err = f.svc.Register(ctx, claims("u2", models.RoleStudent), models.RegisterEventRequest{EventID: "ev-1"})
	require.NoError(t, err)

	require.NoError(t, f.svc.Cancel(ctx, claims("u1", models.RoleStudent), "ev-1"))
	assert.Equal(t, models.RegistrationRegistered, f.repo.find("ev-1", "u2").Status)
	require.Len(t, f.notifier.messages, 1)
	assert.Equal(t, "u2", f.notifier.messages[0].UserID)

	err = f.svc.Cancel(ctx, claims("u1", models.RoleStudent), "ev-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	err = f.svc.Cancel(ctx, claims("u1", models.RoleStudent), " ")
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestRegistrationListingPermissions(t *testing.T) {
	f := newRegistrationFixture(publishedEvent(0, 0))
	ctx := context.Background()
	_, err := f.svc.Register(ctx, claims("u1", models.RoleStudent), models.RegisterEventRequest{EventID: "ev-1"})
	require.NoError(t, err)

	_, err = f.svc.ByEvent(ctx, claims("u1", models.RoleStudent), "ev-1")
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	for _, actor := range []*models.JWTClaims{
		claims("organizer", models.RoleClubAdmin),
		claims("club-admin", models.RoleClubAdmin),
		claims("root", models.RoleSuperAdmin),
	} {
		items, err := f.svc.ByEvent(ctx, actor, "ev-1")
		require.NoError(t, err)
		assert.Len(t, items, 1)
	}

	_, err = f.svc.ByUser(ctx, claims("u2", models.RoleStudent), "u1")
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	mine, err := f.svc.ByUser(ctx, claims("u1", models.RoleStudent), "u1")
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	count, err := f.svc.Count(ctx, "ev-1")
	require.NoError(t, err)
	assert.Equal(t, 1, count.Registered)
}

func TestRegistrationUpdateStatus(t *testing.T) {
	f := newRegistrationFixture(publishedEvent(0, 10))
	ctx := context.Background()
	reg, err := f.svc.Register(ctx, claims("u1", models.RoleStudent), models.RegisterEventRequest{EventID: "ev-1"})
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(ctx, claims("organizer", models.RoleClubAdmin), reg.ID, models.RegistrationStatusRequest{})
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	paid := models.PaymentPaid
	attended := models.RegistrationAttended
	updated, err := f.svc.UpdateStatus(ctx, claims("organizer", models.RoleClubAdmin), reg.ID, models.RegistrationStatusRequest{Status: &attended, PaymentStatus: &paid})
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationAttended, updated.Status)
	assert.Equal(t, models.PaymentPaid, updated.PaymentStatus)

	_, err = f.svc.UpdateStatus(ctx, claims("u1", models.RoleStudent), reg.ID, models.RegistrationStatusRequest{Status: &attended})
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestRegistrationUpdateStatusLeavesSeatsAlone(t *testing.T) {
	f := newRegistrationFixture(publishedEvent(1, 0))
	ctx := context.Background()
	organizer := claims("organizer", models.RoleClubAdmin)
	seated, err := f.svc.Register(ctx, claims("u1", models.RoleStudent), models.RegisterEventRequest{EventID: "ev-1"})
	require.NoError(t, err)
	waiting, err := f.svc.Register(ctx, claims("u2", models.RoleStudent), models.RegisterEventRequest{EventID: "ev-1"})
	require.NoError(t, err)
	require.Equal(t, 1, f.repo.events["ev-1"].CurrentParticipants)

	for _, status := range []models.RegistrationStatus{models.RegistrationCancelled, models.RegistrationRegistered, models.RegistrationWaitlisted} {
		status := status
		_, err = f.svc.UpdateStatus(ctx, organizer, seated.ID, models.RegistrationStatusRequest{Status: &status})
		assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code, string(status))
	}

	attended := models.RegistrationAttended
	_, err = f.svc.UpdateStatus(ctx, organizer, waiting.ID, models.RegistrationStatusRequest{Status: &attended})
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)

	count, err := f.svc.Count(ctx, "ev-1")
	require.NoError(t, err)
	assert.Equal(t, 1, count.Registered)
	assert.Equal(t, 1, count.Waitlisted)
	assert.Equal(t, 1, f.repo.events["ev-1"].CurrentParticipants)

	paid := models.PaymentPaid
	updated, err := f.svc.UpdateStatus(ctx, organizer, waiting.ID, models.RegistrationStatusRequest{PaymentStatus: &paid})
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationWaitlisted, updated.Status)
}
