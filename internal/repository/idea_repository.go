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

const ideaSelect = `SELECT i.id, i.title, i.description, i.expected_outcome, i.implementation_plan, i.resources, i.estimated_cost, i.estimated_duration,
i.status, i.event_id, i.problem_id, i.submitted_by, COALESCE(u.name, '') AS student_name, COALESCE(u.email, '') AS student_email,
i.upvotes, i.downvotes, i.vote_count, i.comment_count, i.is_featured, i.is_active, i.created_at, i.updated_at
FROM ideas i LEFT JOIN users u ON u.id = i.submitted_by`

// IdeaRepository persists ideas with the author joined in.
type IdeaRepository struct {
	db *sqlx.DB
}

func NewIdeaRepository(db *sqlx.DB) *IdeaRepository {
	return &IdeaRepository{db: db}
}

func (r *IdeaRepository) FindByID(ctx context.Context, id string) (*models.Idea, error) {
	var idea models.Idea
	if err := r.db.GetContext(ctx, &idea, ideaSelect+` WHERE i.id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find idea: %w", err)
	}
	return &idea, nil
}

// List returns active ideas matching filter with the total count.
func (r *IdeaRepository) List(ctx context.Context, filter models.IdeaFilter) ([]models.Idea, int, error) {
	var conds conditions
	conds.add("i.is_active = TRUE")
	if filter.EventID != "" {
		conds.add("i.event_id = ?", filter.EventID)
	}
	if filter.ProblemID != "" {
		conds.add("i.problem_id = ?", filter.ProblemID)
	}
	if filter.StudentID != "" {
		conds.add("i.submitted_by = ?", filter.StudentID)
	}
	if filter.Status != "" {
		conds.add("i.status = ?", filter.Status)
	}
	if filter.Featured != nil {
		conds.add("i.is_featured = ?", *filter.Featured)
	}
	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		conds.add("(LOWER(i.title) LIKE ? OR LOWER(i.description) LIKE ?)", pattern, pattern)
	}

	order := orderBy(map[string]string{
		"createdAt": "i.created_at",
		"votes":     "i.vote_count",
		"upvotes":   "i.upvotes",
		"comments":  "i.comment_count",
		"title":     "i.title",
	}, filter.SortBy, filter.SortOrder, "createdAt")
	limit, offset := pageBounds(filter.Page, filter.PageSize)

	query := fmt.Sprintf("%s%s ORDER BY %s, i.id LIMIT %d OFFSET %d", ideaSelect, conds.where(), order, limit, offset)
	var ideas []models.Idea
	if err := r.db.SelectContext(ctx, &ideas, query, conds.args...); err != nil {
		return nil, 0, fmt.Errorf("list ideas: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM ideas i"+conds.where(), conds.args...); err != nil {
		return nil, 0, fmt.Errorf("count ideas: %w", err)
	}
	return ideas, total, nil
}

// Top returns the highest net-scored active ideas.
func (r *IdeaRepository) Top(ctx context.Context, limit int) ([]models.Idea, error) {
	if limit <= 0 {
		limit = 10
	}
	query := ideaSelect + ` WHERE i.is_active = TRUE ORDER BY i.vote_count DESC, (i.upvotes + i.downvotes) DESC, i.created_at DESC LIMIT $1`
	var ideas []models.Idea
	if err := r.db.SelectContext(ctx, &ideas, query, limit); err != nil {
		return nil, fmt.Errorf("list top ideas: %w", err)
	}
	return ideas, nil
}

// CountActiveByAuthorAndEvent counts a user's live ideas for an event.
func (r *IdeaRepository) CountActiveByAuthorAndEvent(ctx context.Context, userID, eventID string) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM ideas WHERE submitted_by = $1 AND event_id = $2 AND is_active = TRUE`, userID, eventID); err != nil {
		return 0, fmt.Errorf("count ideas for event: %w", err)
	}
	return total, nil
}

// CountActive returns the number of live ideas.
func (r *IdeaRepository) CountActive(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM ideas WHERE is_active = TRUE`); err != nil {
		return 0, fmt.Errorf("count ideas: %w", err)
	}
	return total, nil
}

// Create inserts the idea; problem-bound ideas bump the problem's idea count in the same transaction.
func (r *IdeaRepository) Create(ctx context.Context, idea *models.Idea) error {
	if idea.ID == "" {
		idea.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	idea.CreatedAt = now
	idea.UpdatedAt = now
	return withTx(ctx, r.db, "create idea", func(tx *sqlx.Tx) error {
		const query = `INSERT INTO ideas (id, title, description, expected_outcome, implementation_plan, resources, estimated_cost, estimated_duration, status, event_id, problem_id, submitted_by, upvotes, downvotes, vote_count, comment_count, is_featured, is_active, created_at, updated_at)
VALUES (:id, :title, :description, :expected_outcome, :implementation_plan, :resources, :estimated_cost, :estimated_duration, :status, :event_id, :problem_id, :submitted_by, 0, 0, 0, 0, :is_featured, :is_active, :created_at, :updated_at)`
		if _, err := tx.NamedExecContext(ctx, query, idea); err != nil {
			return fmt.Errorf("create idea: %w", err)
		}
		if idea.ProblemID != nil {
			if _, err := tx.ExecContext(ctx, `UPDATE problems SET idea_count = idea_count + 1 WHERE id = $1`, *idea.ProblemID); err != nil {
				return fmt.Errorf("increment problem idea count: %w", err)
			}
		}
		return nil
	})
}

func (r *IdeaRepository) Update(ctx context.Context, idea *models.Idea) error {
	idea.UpdatedAt = time.Now().UTC()
	const query = `UPDATE ideas SET title = :title, description = :description, expected_outcome = :expected_outcome, implementation_plan = :implementation_plan,
resources = :resources, estimated_cost = :estimated_cost, estimated_duration = :estimated_duration, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, idea); err != nil {
		return fmt.Errorf("update idea: %w", err)
	}
	return nil
}

func (r *IdeaRepository) UpdateStatus(ctx context.Context, id string, status models.IdeaStatus) error {
	res, err := r.db.ExecContext(ctx, `UPDATE ideas SET status = $2, updated_at = $3 WHERE id = $1 AND is_active = TRUE`, id, status, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update idea status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *IdeaRepository) Deactivate(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE ideas SET is_active = FALSE, updated_at = $2 WHERE id = $1`, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("deactivate idea: %w", err)
	}
	return nil
}
