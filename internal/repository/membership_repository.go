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

const membershipSelect = `SELECT m.id, m.club_id, m.user_id, COALESCE(u.name, '') AS user_name, m.role, m.status, m.joined_at, m.left_at, m.created_at, m.updated_at
FROM club_memberships m LEFT JOIN users u ON u.id = m.user_id`

// MembershipRepository persists club memberships and keeps clubs.member_count in step.
type MembershipRepository struct {
	db *sqlx.DB
}

func NewMembershipRepository(db *sqlx.DB) *MembershipRepository {
	return &MembershipRepository{db: db}
}

func (r *MembershipRepository) FindByID(ctx context.Context, id string) (*models.ClubMembership, error) {
	var m models.ClubMembership
	if err := r.db.GetContext(ctx, &m, membershipSelect+` WHERE m.id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find membership: %w", err)
	}
	return &m, nil
}

func (r *MembershipRepository) FindByUserAndClub(ctx context.Context, userID, clubID string) (*models.ClubMembership, error) {
	var m models.ClubMembership
	if err := r.db.GetContext(ctx, &m, membershipSelect+` WHERE m.user_id = $1 AND m.club_id = $2`, userID, clubID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find membership by user and club: %w", err)
	}
	return &m, nil
}

// ListByClub returns active members, owners first.
func (r *MembershipRepository) ListByClub(ctx context.Context, clubID string) ([]models.ClubMembership, error) {
	query := membershipSelect + ` WHERE m.club_id = $1 AND m.status = 'ACTIVE'
ORDER BY CASE m.role WHEN 'OWNER' THEN 0 WHEN 'ADMIN' THEN 1 WHEN 'MODERATOR' THEN 2 ELSE 3 END, m.joined_at`
	var items []models.ClubMembership
	if err := r.db.SelectContext(ctx, &items, query, clubID); err != nil {
		return nil, fmt.Errorf("list club members: %w", err)
	}
	return items, nil
}

func (r *MembershipRepository) ListByUser(ctx context.Context, userID string) ([]models.ClubMembership, error) {
	var items []models.ClubMembership
	if err := r.db.SelectContext(ctx, &items, membershipSelect+` WHERE m.user_id = $1 AND m.status = 'ACTIVE' ORDER BY m.joined_at DESC`, userID); err != nil {
		return nil, fmt.Errorf("list user memberships: %w", err)
	}
	return items, nil
}

// Join inserts or reactivates the membership and bumps the club's member count.
func (r *MembershipRepository) Join(ctx context.Context, m *models.ClubMembership) error {
	now := time.Now().UTC()
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	m.Status = models.MembershipActive
	m.JoinedAt = now
	m.CreatedAt = now
	m.UpdatedAt = now
	m.LeftAt = nil

	return withTx(ctx, r.db, "join club", func(tx *sqlx.Tx) error {
		const upsert = `INSERT INTO club_memberships (id, club_id, user_id, role, status, joined_at, left_at, created_at, updated_at)
VALUES (:id, :club_id, :user_id, :role, :status, :joined_at, :left_at, :created_at, :updated_at)
ON CONFLICT (user_id, club_id) DO UPDATE SET status = 'ACTIVE', left_at = NULL, joined_at = EXCLUDED.joined_at, updated_at = EXCLUDED.updated_at`
		if _, err := tx.NamedExecContext(ctx, upsert, m); err != nil {
			return fmt.Errorf("upsert membership: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `UPDATE clubs SET member_count = member_count + 1, updated_at = $2 WHERE id = $1`, m.ClubID, now); err != nil {
			return fmt.Errorf("increment member count: %w", err)
		}
		return nil
	})
}

// Leave marks the membership INACTIVE and decrements the club's member count.
func (r *MembershipRepository) Leave(ctx context.Context, membershipID, clubID string) error {
	now := time.Now().UTC()
	return withTx(ctx, r.db, "leave club", func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE club_memberships SET status = 'INACTIVE', left_at = $2, updated_at = $2 WHERE id = $1 AND status = 'ACTIVE'`, membershipID, now)
		if err != nil {
			return fmt.Errorf("leave membership: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return sql.ErrNoRows
		}
		if _, err := tx.ExecContext(ctx, `UPDATE clubs SET member_count = GREATEST(member_count - 1, 0), updated_at = $2 WHERE id = $1`, clubID, now); err != nil {
			return fmt.Errorf("decrement member count: %w", err)
		}
		return nil
	})
}

func (r *MembershipRepository) UpdateRole(ctx context.Context, id string, role models.MembershipRole) error {
	res, err := r.db.ExecContext(ctx, `UPDATE club_memberships SET role = $2, updated_at = $3 WHERE id = $1`, id, role, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update membership role: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
