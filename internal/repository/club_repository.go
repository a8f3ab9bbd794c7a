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

const clubColumns = `id, name, short_name, description, category, member_count, event_count, rating, admin_user_id, approval_status, rejection_reason, is_active, created_at, updated_at`

// ClubRepository persists clubs.
type ClubRepository struct {
	db *sqlx.DB
}

func NewClubRepository(db *sqlx.DB) *ClubRepository {
	return &ClubRepository{db: db}
}

func (r *ClubRepository) FindByID(ctx context.Context, id string) (*models.Club, error) {
	query := `SELECT ` + clubColumns + ` FROM clubs WHERE id = $1`
	var club models.Club
	if err := r.db.GetContext(ctx, &club, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find club: %w", err)
	}
	return &club, nil
}

// NameTaken reports whether another club already uses name or shortName.
func (r *ClubRepository) NameTaken(ctx context.Context, name, shortName, excludeID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM clubs WHERE (LOWER(name) = LOWER($1) OR LOWER(short_name) = LOWER($2)) AND id <> $3)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, name, shortName, excludeID); err != nil {
		return false, fmt.Errorf("check club name: %w", err)
	}
	return exists, nil
}

// ListActive returns approved, active clubs by name.
func (r *ClubRepository) ListActive(ctx context.Context) ([]models.Club, error) {
	query := `SELECT ` + clubColumns + ` FROM clubs WHERE is_active = TRUE AND approval_status = 'APPROVED' ORDER BY name`
	return r.selectClubs(ctx, "list clubs", query)
}

// Search matches active clubs by name, short name or category.
func (r *ClubRepository) Search(ctx context.Context, q string) ([]models.Club, error) {
	query := `SELECT ` + clubColumns + ` FROM clubs WHERE is_active = TRUE AND approval_status = 'APPROVED' AND (LOWER(name) LIKE $1 OR LOWER(short_name) LIKE $1 OR LOWER(category) LIKE $1) ORDER BY name`
	return r.selectClubs(ctx, "search clubs", query, likePattern(q))
}

// ListByAdmin returns every club administered by userID regardless of status.
func (r *ClubRepository) ListByAdmin(ctx context.Context, userID string) ([]models.Club, error) {
	query := `SELECT ` + clubColumns + ` FROM clubs WHERE admin_user_id = $1 ORDER BY created_at DESC`
	return r.selectClubs(ctx, "list clubs by admin", query, userID)
}

// ListByApproval returns clubs in the given approval state, oldest first.
func (r *ClubRepository) ListByApproval(ctx context.Context, status models.ApprovalStatus) ([]models.Club, error) {
	query := `SELECT ` + clubColumns + ` FROM clubs WHERE approval_status = $1 ORDER BY created_at ASC`
	return r.selectClubs(ctx, "list clubs by approval", query, status)
}

func (r *ClubRepository) selectClubs(ctx context.Context, op, query string, args ...interface{}) ([]models.Club, error) {
	var clubs []models.Club
	if err := r.db.SelectContext(ctx, &clubs, query, args...); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return clubs, nil
}

func (r *ClubRepository) Create(ctx context.Context, club *models.Club) error {
	if club.ID == "" {
		club.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	club.CreatedAt = now
	club.UpdatedAt = now
	const query = `INSERT INTO clubs (id, name, short_name, description, category, member_count, event_count, rating, admin_user_id, approval_status, rejection_reason, is_active, created_at, updated_at)
VALUES (:id, :name, :short_name, :description, :category, :member_count, :event_count, :rating, :admin_user_id, :approval_status, :rejection_reason, :is_active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, club); err != nil {
		return fmt.Errorf("create club: %w", err)
	}
	return nil
}

func (r *ClubRepository) Update(ctx context.Context, club *models.Club) error {
	club.UpdatedAt = time.Now().UTC()
	const query = `UPDATE clubs SET name = :name, short_name = :short_name, description = :description, category = :category, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, club); err != nil {
		return fmt.Errorf("update club: %w", err)
	}
	return nil
}

// Deactivate soft deletes a club.
func (r *ClubRepository) Deactivate(ctx context.Context, id string) error {
	const query = `UPDATE clubs SET is_active = FALSE, updated_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("deactivate club: %w", err)
	}
	return nil
}

// Decide moves a PENDING club to status. It returns sql.ErrNoRows when the club is no longer pending.
func (r *ClubRepository) Decide(ctx context.Context, id string, status models.ApprovalStatus, reason *string) error {
	active := status == models.ApprovalApproved
	const query = `UPDATE clubs SET approval_status = $2, rejection_reason = $3, is_active = $4, updated_at = $5 WHERE id = $1 AND approval_status = 'PENDING'`
	res, err := r.db.ExecContext(ctx, query, id, status, reason, active, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("decide club: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CountActive returns the number of active clubs.
func (r *ClubRepository) CountActive(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM clubs WHERE is_active = TRUE`); err != nil {
		return 0, fmt.Errorf("count clubs: %w", err)
	}
	return total, nil
}

// CountPending returns clubs awaiting approval.
func (r *ClubRepository) CountPending(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM clubs WHERE approval_status = 'PENDING'`); err != nil {
		return 0, fmt.Errorf("count pending clubs: %w", err)
	}
	return total, nil
}
