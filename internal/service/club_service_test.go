package service

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/event-idea-marketplace/internal/models"
	appErrors "github.com/noah-isme/event-idea-marketplace/pkg/errors"
	"github.com/noah-isme/event-idea-marketplace/pkg/eventbus"
)

type mockClubRepo struct {
	clubs map[string]*models.Club
}

func newMockClubRepo(clubs ...*models.Club) *mockClubRepo {
	repo := &mockClubRepo{clubs: map[string]*models.Club{}}
	for _, c := range clubs {
		repo.clubs[c.ID] = c
	}
	return repo
}

func (m *mockClubRepo) FindByID(ctx context.Context, id string) (*models.Club, error) {
	if club, ok := m.clubs[id]; ok {
		copy := *club
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockClubRepo) NameTaken(ctx context.Context, name, shortName, excludeID string) (bool, error) {
	for id, c := range m.clubs {
		if id == excludeID {
			continue
		}
		if strings.EqualFold(c.Name, name) || strings.EqualFold(c.ShortName, shortName) {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockClubRepo) ListActive(ctx context.Context) ([]models.Club, error) {
	var out []models.Club
	for _, c := range m.clubs {
		if c.IsActive && c.ApprovalStatus == models.ApprovalApproved {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (m *mockClubRepo) Search(ctx context.Context, q string) ([]models.Club, error) {
	return m.ListActive(ctx)
}

func (m *mockClubRepo) ListByAdmin(ctx context.Context, userID string) ([]models.Club, error) {
	var out []models.Club
	for _, c := range m.clubs {
		if c.AdministeredBy(userID) {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (m *mockClubRepo) ListByApproval(ctx context.Context, status models.ApprovalStatus) ([]models.Club, error) {
	var out []models.Club
	for _, c := range m.clubs {
		if c.ApprovalStatus == status {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (m *mockClubRepo) Create(ctx context.Context, club *models.Club) error {
	club.ID = "club-" + club.ShortName
	copy := *club
	m.clubs[club.ID] = &copy
	return nil
}

func (m *mockClubRepo) Update(ctx context.Context, club *models.Club) error {
	copy := *club
	m.clubs[club.ID] = &copy
	return nil
}

func (m *mockClubRepo) Deactivate(ctx context.Context, id string) error {
	m.clubs[id].IsActive = false
	return nil
}

func (m *mockClubRepo) Decide(ctx context.Context, id string, status models.ApprovalStatus, reason *string) error {
	club := m.clubs[id]
	if club.ApprovalStatus != models.ApprovalPending {
		return sql.ErrNoRows
	}
	club.ApprovalStatus = status
	club.RejectionReason = reason
	club.IsActive = status == models.ApprovalApproved
	return nil
}

func TestClubServiceCreateByClubAdminIsPending(t *testing.T) {
	repo := newMockClubRepo()
	cache := &recordingCache{}
	svc := NewClubService(repo, nil, nil, nil, cache, nil)

	club, err := svc.Create(context.Background(), claims("admin-1", models.RoleClubAdmin), models.CreateClubRequest{Name: "Robotics", ShortName: "ROBO"})
	require.NoError(t, err)
	assert.Equal(t, models.ApprovalPending, club.ApprovalStatus)
	assert.False(t, club.IsActive)
	assert.True(t, club.AdministeredBy("admin-1"))
	assert.Equal(t, []string{analyticsPattern}, cache.patterns)
}

func TestClubServiceCreateBySuperAdminIsApproved(t *testing.T) {
	svc := NewClubService(newMockClubRepo(), nil, nil, nil, nil, nil)

	club, err := svc.Create(context.Background(), claims("root", models.RoleSuperAdmin), models.CreateClubRequest{Name: "Chess", ShortName: "CHS"})
	require.NoError(t, err)
	assert.Equal(t, models.ApprovalApproved, club.ApprovalStatus)
	assert.True(t, club.IsActive)
}

func TestClubServiceCreateDuplicateName(t *testing.T) {
	repo := newMockClubRepo(&models.Club{ID: "c1", Name: "Chess", ShortName: "CHS"})
	svc := NewClubService(repo, nil, nil, nil, nil, nil)

	_, err := svc.Create(context.Background(), claims("root", models.RoleSuperAdmin), models.CreateClubRequest{Name: "chess", ShortName: "CH2"})
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestClubServiceUpdateRequiresAdmin(t *testing.T) {
	repo := newMockClubRepo(&models.Club{ID: "c1", Name: "Chess", ShortName: "CHS", AdminUserID: stringPtr("owner")})
	svc := NewClubService(repo, nil, nil, nil, nil, nil)
	name := "Chess Society"

	_, err := svc.Update(context.Background(), claims("other", models.RoleClubAdmin), "c1", models.UpdateClubRequest{Name: &name})
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	club, err := svc.Update(context.Background(), claims("owner", models.RoleClubAdmin), "c1", models.UpdateClubRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, name, club.Name)
}

func TestClubServiceApproveAndReject(t *testing.T) {
	repo := newMockClubRepo(
		&models.Club{ID: "c1", Name: "Chess", ShortName: "CHS", ApprovalStatus: models.ApprovalPending, AdminUserID: stringPtr("a1")},
		&models.Club{ID: "c2", Name: "Drama", ShortName: "DRM", ApprovalStatus: models.ApprovalPending, AdminUserID: stringPtr("a2")},
	)
	notifier := &recordingNotifier{}
	bus := eventbus.NewMemory()
	svc := NewClubService(repo, nil, notifier, bus, nil, nil)
	ctx := context.Background()

	club, err := svc.Approve(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, models.ApprovalApproved, club.ApprovalStatus)
	assert.True(t, club.IsActive)

	_, err = svc.Approve(ctx, "c1")
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)

	_, err = svc.Reject(ctx, "c2", "  ")
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	club, err = svc.Reject(ctx, "c2", "duplicate of Theatre")
	require.NoError(t, err)
	assert.Equal(t, models.ApprovalRejected, club.ApprovalStatus)
	require.NotNil(t, club.RejectionReason)
	assert.Equal(t, "duplicate of Theatre", *club.RejectionReason)

	assert.Equal(t, []string{"club.approved", "club.rejected"}, bus.Subjects())
	assert.Len(t, notifier.messages, 2)
	assert.Equal(t, "a2", notifier.messages[1].UserID)
}
