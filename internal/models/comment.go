package models

import "time"

// Comment is a threaded remark on an idea.
type Comment struct {
	ID              string     `db:"id" json:"id"`
	Content         string     `db:"content" json:"content"`
	IdeaID          string     `db:"idea_id" json:"ideaId"`
	UserID          string     `db:"user_id" json:"userId"`
	UserName        string     `db:"user_name" json:"userName"`
	ParentCommentID *string    `db:"parent_comment_id" json:"parentCommentId,omitempty"`
	IsEdited        bool       `db:"is_edited" json:"isEdited"`
	EditedAt        *time.Time `db:"edited_at" json:"editedAt,omitempty"`
	LikeCount       int        `db:"like_count" json:"likeCount"`
	CreatedAt       time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updatedAt"`
}

// CreateCommentRequest posts a comment or reply.
type CreateCommentRequest struct {
	IdeaID          string  `json:"ideaId" validate:"required"`
	ParentCommentID *string `json:"parentCommentId"`
	Content         string  `json:"content" validate:"required,min=1,max=1000"`
}

// UpdateCommentRequest edits a comment's text.
type UpdateCommentRequest struct {
	Content string `json:"content" validate:"required,min=1,max=1000"`
}
