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

const problemColumns = `id, title, description, requirements, category, deadline, budget_range, expected_participants, status, club_id, posted_by, view_count, idea_count, created_at, updated_at`

// ProblemRepository persists club problems.
type ProblemRepository struct {
	db *sqlx.DB
}

func NewProblemRepository(db *sqlx.DB) *ProblemRepository {
	return &ProblemRepository{db: db}
}

func (r *ProblemRepository) FindByID(ctx context.Context, id string) (*models.Problem, error) {
	var p models.Problem
	if err := r.db.GetContext(ctx, &p, `SELECT `+problemColumns+` FROM problems WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find problem: %w", err)
	}
	return &p, nil
}

// List returns problems whose deadline is unset or after filter.Now.
func (r *ProblemRepository) List(ctx context.Context, filter models.ProblemFilter) ([]models.Problem, int, error) {
	var conds conditions
	conds.add("status <> 'CLOSED'")
	conds.add("(deadline IS NULL OR deadline >= ?)", filter.Now)
	if filter.ClubID != "" {
		conds.add("club_id = ?", filter.ClubID)
	}
	if filter.Category != "" {
		conds.add("LOWER(category) = LOWER(?)", filter.Category)
	}
	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		conds.add("(LOWER(title) LIKE ? OR LOWER(description) LIKE ?)", pattern, pattern)
	}
	limit, offset := pageBounds(filter.Page, filter.PageSize)

	query := fmt.Sprintf("SELECT %s FROM problems%s ORDER BY created_at DESC LIMIT %d OFFSET %d", problemColumns, conds.where(), limit, offset)
	var problems []models.Problem
	if err := r.db.SelectContext(ctx, &problems, query, conds.args...); err != nil {
		return nil, 0, fmt.Errorf("list problems: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM problems"+conds.where(), conds.args...); err != nil {
		return nil, 0, fmt.Errorf("count problems: %w", err)
	}
	return problems, total, nil
}

// Trending ranks live problems by engagement.
func (r *ProblemRepository) Trending(ctx context.Context, now time.Time, limit int) ([]models.Problem, error) {
	if limit <= 0 {
		limit = 10
	}
	query := `SELECT ` + problemColumns + ` FROM problems WHERE status <> 'CLOSED' AND (deadline IS NULL OR deadline >= $1) ORDER BY idea_count DESC, view_count DESC, created_at DESC LIMIT $2`
	var problems []models.Problem
	if err := r.db.SelectContext(ctx, &problems, query, now, limit); err != nil {
		return nil, fmt.Errorf("list trending problems: %w", err)
	}
	return problems, nil
}

// ListExpiredOpen returns OPEN or REVIEWING problems whose deadline is before cutoff.
func (r *ProblemRepository) ListExpiredOpen(ctx context.Context, cutoff time.Time) ([]models.Problem, error) {
	query := `SELECT ` + problemColumns + ` FROM problems WHERE status IN ('OPEN', 'REVIEWING') AND deadline IS NOT NULL AND deadline < $1`
	var problems []models.Problem
	if err := r.db.SelectContext(ctx, &problems, query, cutoff); err != nil {
		return nil, fmt.Errorf("list expired problems: %w", err)
	}
	return problems, nil
}

func (r *ProblemRepository) IncrementViews(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE problems SET view_count = view_count + 1 WHERE id = $1`, id); err != nil {
		return fmt.Errorf("increment problem views: %w", err)
	}
	return nil
}

func (r *ProblemRepository) Create(ctx context.Context, p *models.Problem) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	const query = `INSERT INTO problems (` + problemColumns + `) VALUES (:id, :title, :description, :requirements, :category, :deadline, :budget_range, :expected_participants, :status, :club_id, :posted_by, :view_count, :idea_count, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, p); err != nil {
		return fmt.Errorf("create problem: %w", err)
	}
	return nil
}

func (r *ProblemRepository) Update(ctx context.Context, p *models.Problem) error {
	p.UpdatedAt = time.Now().UTC()
	const query = `UPDATE problems SET title = :title, description = :description, requirements = :requirements, category = :category, deadline = :deadline,
budget_range = :budget_range, expected_participants = :expected_participants, status = :status, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, p); err != nil {
		return fmt.Errorf("update problem: %w", err)
	}
	return nil
}

// Close sets CLOSED if the problem is still open for review.
func (r *ProblemRepository) Close(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE problems SET status = 'CLOSED', updated_at = $2 WHERE id = $1 AND status IN ('OPEN', 'REVIEWING')`, id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("close problem: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete closes the problem and retires its ideas. Rows stay for the vote and comment history.
func (r *ProblemRepository) Delete(ctx context.Context, id string) error {
	return withTx(ctx, r.db, "delete problem", func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `UPDATE ideas SET is_active = FALSE WHERE problem_id = $1`, id); err != nil {
			return fmt.Errorf("retire problem ideas: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `UPDATE problems SET status = 'CLOSED', updated_at = $2 WHERE id = $1`, id, time.Now().UTC()); err != nil {
			return fmt.Errorf("delete problem: %w", err)
		}
		return nil
	})
}
