package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/event-idea-marketplace/internal/models"
	appErrors "github.com/noah-isme/event-idea-marketplace/pkg/errors"
)

type mockSuperAdminRequestRepo struct {
	requests map[string]*models.SuperAdminRequest
	users    *mockAuthRepo
}

func (m *mockSuperAdminRequestRepo) Create(ctx context.Context, req *models.SuperAdminRequest) error {
	req.ID = "req-" + req.Email
	req.Status = models.ApprovalPending
	copy := *req
	m.requests[req.ID] = &copy
	return nil
}

func (m *mockSuperAdminRequestRepo) FindByID(ctx context.Context, id string) (*models.SuperAdminRequest, error) {
	if r, ok := m.requests[id]; ok {
		copy := *r
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockSuperAdminRequestRepo) byStatus(pendingOnly bool) []models.SuperAdminRequest {
	var out []models.SuperAdminRequest
	for _, r := range m.requests {
		if !pendingOnly || r.Status == models.ApprovalPending {
			out = append(out, *r)
		}
	}
	return out
}

func (m *mockSuperAdminRequestRepo) ListPending(ctx context.Context) ([]models.SuperAdminRequest, error) {
	return m.byStatus(true), nil
}

func (m *mockSuperAdminRequestRepo) ListAll(ctx context.Context) ([]models.SuperAdminRequest, error) {
	return m.byStatus(false), nil
}

func (m *mockSuperAdminRequestRepo) CountPending(ctx context.Context) (int, error) {
	return len(m.byStatus(true)), nil
}

func (m *mockSuperAdminRequestRepo) ExistsPendingByEmail(ctx context.Context, email string) (bool, error) {
	for _, r := range m.requests {
		if r.Email == email && r.Status == models.ApprovalPending {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockSuperAdminRequestRepo) Approve(ctx context.Context, id, approvedBy string, user *models.User) error {
	r := m.requests[id]
	if r.Status != models.ApprovalPending {
		return sql.ErrNoRows
	}
	r.Status = models.ApprovalApproved
	r.ApprovedBy = &approvedBy
	return m.users.Create(ctx, user)
}

func (m *mockSuperAdminRequestRepo) Reject(ctx context.Context, id, rejectedBy string, reason *string) error {
	r := m.requests[id]
	if r.Status != models.ApprovalPending {
		return sql.ErrNoRows
	}
	r.Status = models.ApprovalRejected
	r.RejectionReason = reason
	return nil
}

func newSuperAdminFixture() (*SuperAdminRequestService, *mockSuperAdminRequestRepo) {
	users := newMockAuthRepo()
	repo := &mockSuperAdminRequestRepo{requests: map[string]*models.SuperAdminRequest{}, users: users}
	return NewSuperAdminRequestService(repo, users, nil, nil, nil), repo
}

func TestSuperAdminRequestSubmitAndApprove(t *testing.T) {
	svc, repo := newSuperAdminFixture()
	ctx := context.Background()

	req, err := svc.Submit(ctx, models.CreateSuperAdminRequest{Name: "Dana", Email: "Dana@Campus.edu", Password: "s3cretpass"})
	require.NoError(t, err)
	assert.Equal(t, "dana@campus.edu", req.Email)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(req.PasswordHash), []byte("s3cretpass")))

	_, err = svc.Submit(ctx, models.CreateSuperAdminRequest{Name: "Dana", Email: "dana@campus.edu", Password: "another-pass"})
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)

	approved, err := svc.Approve(ctx, claims("root", models.RoleSuperAdmin), req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ApprovalApproved, approved.Status)

	user, err := repo.users.FindByEmail(ctx, "dana@campus.edu")
	require.NoError(t, err)
	assert.Equal(t, models.RoleSuperAdmin, user.Role)
	assert.True(t, user.IsActive)
	assert.Equal(t, req.PasswordHash, user.PasswordHash)

	_, err = svc.Approve(ctx, claims("root", models.RoleSuperAdmin), req.ID)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)

	_, err = svc.Submit(ctx, models.CreateSuperAdminRequest{Name: "Dana", Email: "dana@campus.edu", Password: "another-pass"})
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestSuperAdminRequestRejectReasonOptional(t *testing.T) {
	svc, _ := newSuperAdminFixture()
	ctx := context.Background()
	req, err := svc.Submit(ctx, models.CreateSuperAdminRequest{Name: "Eli", Email: "eli@campus.edu", Password: "password123"})
	require.NoError(t, err)

	count, err := svc.CountPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	rejected, err := svc.Reject(ctx, claims("root", models.RoleSuperAdmin), req.ID, "")
	require.NoError(t, err)
	assert.Equal(t, models.ApprovalRejected, rejected.Status)
	assert.Nil(t, rejected.RejectionReason)

	_, err = svc.Reject(ctx, claims("root", models.RoleSuperAdmin), req.ID, "again")
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}
