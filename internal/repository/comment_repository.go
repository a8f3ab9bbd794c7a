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

const commentSelect = `SELECT c.id, c.content, c.idea_id, c.user_id, COALESCE(u.name, '') AS user_name, c.parent_comment_id, c.is_edited, c.edited_at, c.like_count, c.created_at, c.updated_at
FROM comments c LEFT JOIN users u ON u.id = c.user_id`

// CommentRepository persists comments and the idea's comment counter.
type CommentRepository struct {
	db *sqlx.DB
}

func NewCommentRepository(db *sqlx.DB) *CommentRepository {
	return &CommentRepository{db: db}
}

func (r *CommentRepository) FindByID(ctx context.Context, id string) (*models.Comment, error) {
	var c models.Comment
	if err := r.db.GetContext(ctx, &c, commentSelect+` WHERE c.id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find comment: %w", err)
	}
	return &c, nil
}

func (r *CommentRepository) ListByIdea(ctx context.Context, ideaID string) ([]models.Comment, error) {
	return r.list(ctx, "list idea comments", commentSelect+` WHERE c.idea_id = $1 ORDER BY c.created_at ASC`, ideaID)
}

func (r *CommentRepository) ListByUser(ctx context.Context, userID string) ([]models.Comment, error) {
	return r.list(ctx, "list user comments", commentSelect+` WHERE c.user_id = $1 ORDER BY c.created_at DESC`, userID)
}

func (r *CommentRepository) ListReplies(ctx context.Context, parentID string) ([]models.Comment, error) {
	return r.list(ctx, "list replies", commentSelect+` WHERE c.parent_comment_id = $1 ORDER BY c.created_at ASC`, parentID)
}

func (r *CommentRepository) list(ctx context.Context, op, query string, args ...interface{}) ([]models.Comment, error) {
	var items []models.Comment
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return items, nil
}

func (r *CommentRepository) CountByUser(ctx context.Context, userID string) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM comments WHERE user_id = $1`, userID); err != nil {
		return 0, fmt.Errorf("count user comments: %w", err)
	}
	return total, nil
}

func (r *CommentRepository) CountAll(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM comments`); err != nil {
		return 0, fmt.Errorf("count comments: %w", err)
	}
	return total, nil
}

// Create inserts the comment and bumps the idea's comment count.
func (r *CommentRepository) Create(ctx context.Context, c *models.Comment) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now
	return withTx(ctx, r.db, "create comment", func(tx *sqlx.Tx) error {
		const query = `INSERT INTO comments (id, content, idea_id, user_id, parent_comment_id, is_edited, like_count, created_at, updated_at)
VALUES (:id, :content, :idea_id, :user_id, :parent_comment_id, FALSE, 0, :created_at, :updated_at)`
		if _, err := tx.NamedExecContext(ctx, query, c); err != nil {
			return fmt.Errorf("create comment: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `UPDATE ideas SET comment_count = comment_count + 1 WHERE id = $1`, c.IdeaID); err != nil {
			return fmt.Errorf("increment comment count: %w", err)
		}
		return nil
	})
}

// UpdateContent rewrites the text and marks the comment edited.
func (r *CommentRepository) UpdateContent(ctx context.Context, id, content string, at time.Time) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE comments SET content = $2, is_edited = TRUE, edited_at = $3, updated_at = $3 WHERE id = $1`, id, content, at); err != nil {
		return fmt.Errorf("update comment: %w", err)
	}
	return nil
}

// Delete removes the comment with its direct replies and adjusts the idea's count.
func (r *CommentRepository) Delete(ctx context.Context, id, ideaID string) error {
	return withTx(ctx, r.db, "delete comment", func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM comments WHERE parent_comment_id = $1`, id)
		if err != nil {
			return fmt.Errorf("delete replies: %w", err)
		}
		replies, _ := res.RowsAffected()
		if _, err := tx.ExecContext(ctx, `DELETE FROM comments WHERE id = $1`, id); err != nil {
			return fmt.Errorf("delete comment: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `UPDATE ideas SET comment_count = GREATEST(comment_count - $2, 0) WHERE id = $1`, ideaID, replies+1); err != nil {
			return fmt.Errorf("decrement comment count: %w", err)
		}
		return nil
	})
}
