package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/event-idea-marketplace/internal/models"
)

const superAdminRequestColumns = `id, name, email, password_hash, status, requested_at, approved_at, approved_by, rejection_reason`

// SuperAdminRequestRepository stores applications for super admin access.
type SuperAdminRequestRepository struct {
	db *sqlx.DB
}

func NewSuperAdminRequestRepository(db *sqlx.DB) *SuperAdminRequestRepository {
	return &SuperAdminRequestRepository{db: db}
}

func (r *SuperAdminRequestRepository) Create(ctx context.Context, req *models.SuperAdminRequest) error {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	req.Status = models.ApprovalPending
	req.RequestedAt = time.Now().UTC()
	const query = `INSERT INTO super_admin_requests (id, name, email, password_hash, status, requested_at) VALUES (:id, :name, :email, :password_hash, :status, :requested_at)`
	if _, err := r.db.NamedExecContext(ctx, query, req); err != nil {
		return fmt.Errorf("create super admin request: %w", err)
	}
	return nil
}

func (r *SuperAdminRequestRepository) FindByID(ctx context.Context, id string) (*models.SuperAdminRequest, error) {
	var req models.SuperAdminRequest
	if err := r.db.GetContext(ctx, &req, `SELECT `+superAdminRequestColumns+` FROM super_admin_requests WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find super admin request: %w", err)
	}
	return &req, nil
}

func (r *SuperAdminRequestRepository) ListPending(ctx context.Context) ([]models.SuperAdminRequest, error) {
	var items []models.SuperAdminRequest
	if err := r.db.SelectContext(ctx, &items, `SELECT `+superAdminRequestColumns+` FROM super_admin_requests WHERE status = 'PENDING' ORDER BY requested_at ASC`); err != nil {
		return nil, fmt.Errorf("list pending super admin requests: %w", err)
	}
	return items, nil
}

func (r *SuperAdminRequestRepository) ListAll(ctx context.Context) ([]models.SuperAdminRequest, error) {
	var items []models.SuperAdminRequest
	if err := r.db.SelectContext(ctx, &items, `SELECT `+superAdminRequestColumns+` FROM super_admin_requests ORDER BY requested_at DESC`); err != nil {
		return nil, fmt.Errorf("list super admin requests: %w", err)
	}
	return items, nil
}

func (r *SuperAdminRequestRepository) CountPending(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM super_admin_requests WHERE status = 'PENDING'`); err != nil {
		return 0, fmt.Errorf("count pending super admin requests: %w", err)
	}
	return total, nil
}

// ExistsPendingByEmail reports whether email already has an open request.
func (r *SuperAdminRequestRepository) ExistsPendingByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM super_admin_requests WHERE LOWER(email) = LOWER($1) AND status = 'PENDING')`, email); err != nil {
		return false, fmt.Errorf("check pending super admin request: %w", err)
	}
	return exists, nil
}

// Approve marks the request approved and creates the user atomically.
// sql.ErrNoRows means the request was not pending.
func (r *SuperAdminRequestRepository) Approve(ctx context.Context, id, approvedBy string, user *models.User) error {
	return withTx(ctx, r.db, "approve super admin request", func(tx *sqlx.Tx) error {
		const query = `UPDATE super_admin_requests SET status = 'APPROVED', approved_at = $3, approved_by = $2 WHERE id = $1 AND status = 'PENDING'`
		res, err := tx.ExecContext(ctx, query, id, approvedBy, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("approve super admin request: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return sql.ErrNoRows
		}
		return createUser(ctx, tx, user)
	})
}

// Reject closes a pending request with an optional reason.
func (r *SuperAdminRequestRepository) Reject(ctx context.Context, id, rejectedBy string, reason *string) error {
	const query = `UPDATE super_admin_requests SET status = 'REJECTED', approved_at = $4, approved_by = $2, rejection_reason = $3 WHERE id = $1 AND status = 'PENDING'`
	res, err := r.db.ExecContext(ctx, query, id, rejectedBy, reason, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("reject super admin request: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
