package client

import (
	"context"
	"net/http"

	"github.com/noah-isme/event-idea-marketplace/internal/models"
)

// CommentsAPI wraps /comments.
type CommentsAPI struct {
	c *Client
}

// Comments returns the comments API.
func (c *Client) Comments() *CommentsAPI { return &CommentsAPI{c: c} }

func (a *CommentsAPI) list(ctx context.Context, path string) ([]models.Comment, error) {
	var comments []models.Comment
	if err := a.c.get(ctx, path, nil, &comments); err != nil {
		return nil, err
	}
	return comments, nil
}

// ByIdea lists an idea's comments.
func (a *CommentsAPI) ByIdea(ctx context.Context, ideaID string) ([]models.Comment, error) {
	return a.list(ctx, "/comments/idea/"+escape(ideaID))
}

// ByUser lists a user's comments.
func (a *CommentsAPI) ByUser(ctx context.Context, userID string) ([]models.Comment, error) {
	return a.list(ctx, "/comments/user/"+escape(userID))
}

// Replies lists replies to a comment.
func (a *CommentsAPI) Replies(ctx context.Context, parentID string) ([]models.Comment, error) {
	return a.list(ctx, "/comments/reply/"+escape(parentID))
}

// Get returns one comment.
func (a *CommentsAPI) Get(ctx context.Context, id string) (*models.Comment, error) {
	var comment models.Comment
	if err := a.c.get(ctx, "/comments/"+escape(id), nil, &comment); err != nil {
		return nil, err
	}
	return &comment, nil
}

// Create posts a comment or reply.
func (a *CommentsAPI) Create(ctx context.Context, req models.CreateCommentRequest) (*models.Comment, error) {
	var comment models.Comment
	if err := a.c.send(ctx, http.MethodPost, "/comments", req, &comment); err != nil {
		return nil, err
	}
	a.c.store.Invalidate(KindComment, comment.ID)
	a.c.store.Invalidate(KindIdea, req.IdeaID)
	return &comment, nil
}

// Update edits a comment.
func (a *CommentsAPI) Update(ctx context.Context, id, content string) (*models.Comment, error) {
	var comment models.Comment
	if err := a.c.send(ctx, http.MethodPut, "/comments/"+escape(id), models.UpdateCommentRequest{Content: content}, &comment); err != nil {
		return nil, err
	}
	a.c.store.Invalidate(KindComment, id)
	return &comment, nil
}

// Delete removes a comment.
func (a *CommentsAPI) Delete(ctx context.Context, id string) error {
	if err := a.c.send(ctx, http.MethodDelete, "/comments/"+escape(id), nil, nil); err != nil {
		return err
	}
	a.c.store.Invalidate(KindComment, id)
	return nil
}
