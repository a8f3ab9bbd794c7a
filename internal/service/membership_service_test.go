package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/event-idea-marketplace/internal/models"
	appErrors "github.com/noah-isme/event-idea-marketplace/pkg/errors"
)

type mockMembershipRepo struct {
	items map[string]*models.ClubMembership
	joins int
}

func (m *mockMembershipRepo) FindByID(ctx context.Context, id string) (*models.ClubMembership, error) {
	if item, ok := m.items[id]; ok {
		copy := *item
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockMembershipRepo) FindByUserAndClub(ctx context.Context, userID, clubID string) (*models.ClubMembership, error) {
	for _, item := range m.items {
		if item.UserID == userID && item.ClubID == clubID {
			copy := *item
			return &copy, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockMembershipRepo) ListByClub(ctx context.Context, clubID string) ([]models.ClubMembership, error) {
	var out []models.ClubMembership
	for _, item := range m.items {
		if item.ClubID == clubID && item.Status == models.MembershipActive {
			out = append(out, *item)
		}
	}
	return out, nil
}

func (m *mockMembershipRepo) ListByUser(ctx context.Context, userID string) ([]models.ClubMembership, error) {
	var out []models.ClubMembership
	for _, item := range m.items {
		if item.UserID == userID {
			out = append(out, *item)
		}
	}
	return out, nil
}

func (m *mockMembershipRepo) Join(ctx context.Context, item *models.ClubMembership) error {
	if item.ID == "" {
		item.ID = "m-" + item.UserID
	}
	item.Status = models.MembershipActive
	copy := *item
	m.items[item.ID] = &copy
	m.joins++
	return nil
}

func (m *mockMembershipRepo) Leave(ctx context.Context, membershipID, clubID string) error {
	item, ok := m.items[membershipID]
	if !ok || item.Status != models.MembershipActive {
		return sql.ErrNoRows
	}
	item.Status = models.MembershipInactive
	return nil
}

func (m *mockMembershipRepo) UpdateRole(ctx context.Context, id string, role models.MembershipRole) error {
	item, ok := m.items[id]
	if !ok {
		return sql.ErrNoRows
	}
	item.Role = role
	return nil
}

func newMembershipFixture() (*MembershipService, *mockMembershipRepo) {
	clubs := newMockClubRepo(&models.Club{ID: "c1", Name: "Chess", IsActive: true, AdminUserID: stringPtr("admin")})
	repo := &mockMembershipRepo{items: map[string]*models.ClubMembership{
		"m-owner": {ID: "m-owner", ClubID: "c1", UserID: "admin", Role: models.MembershipOwner, Status: models.MembershipActive},
		"m-left":  {ID: "m-left", ClubID: "c1", UserID: "returning", Role: models.MembershipModerator, Status: models.MembershipInactive},
	}}
	return NewMembershipService(repo, clubs, nil, nil, nil), repo
}

func TestMembershipJoinAndDuplicate(t *testing.T) {
	svc, repo := newMembershipFixture()
	ctx := context.Background()

	m, err := svc.Join(ctx, claims("s1", models.RoleStudent), "c1")
	require.NoError(t, err)
	assert.Equal(t, models.MembershipMember, m.Role)

	_, err = svc.Join(ctx, claims("s1", models.RoleStudent), "c1")
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.Equal(t, 1, repo.joins)
}

func TestMembershipRejoinReactivatesExisting(t *testing.T) {
	svc, repo := newMembershipFixture()

	m, err := svc.Join(context.Background(), claims("returning", models.RoleStudent), "c1")
	require.NoError(t, err)
	assert.Equal(t, "m-left", m.ID)
	assert.Equal(t, models.MembershipModerator, m.Role)
	assert.Equal(t, models.MembershipActive, repo.items["m-left"].Status)
}

func TestMembershipOwnerCannotBeRemoved(t *testing.T) {
	svc, _ := newMembershipFixture()
	err := svc.Remove(context.Background(), claims("root", models.RoleSuperAdmin), "c1", "m-owner")
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestMembershipRoleChangeNeedsClubAdmin(t *testing.T) {
	svc, _ := newMembershipFixture()
	ctx := context.Background()
	_, err := svc.Join(ctx, claims("s1", models.RoleStudent), "c1")
	require.NoError(t, err)

	req := models.UpdateMembershipRoleRequest{Role: models.MembershipModerator}
	_, err = svc.UpdateRole(ctx, claims("s2", models.RoleClubAdmin), "c1", "m-s1", req)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	m, err := svc.UpdateRole(ctx, claims("admin", models.RoleClubAdmin), "c1", "m-s1", req)
	require.NoError(t, err)
	assert.Equal(t, models.MembershipModerator, m.Role)
}

func TestMembershipLeave(t *testing.T) {
	svc, repo := newMembershipFixture()
	ctx := context.Background()
	_, err := svc.Join(ctx, claims("s1", models.RoleStudent), "c1")
	require.NoError(t, err)

	require.NoError(t, svc.Leave(ctx, claims("s1", models.RoleStudent), "c1"))
	assert.Equal(t, models.MembershipInactive, repo.items["m-s1"].Status)

	err = svc.Leave(ctx, claims("admin", models.RoleClubAdmin), "c1")
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}
