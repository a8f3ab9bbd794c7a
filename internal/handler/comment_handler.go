package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/event-idea-marketplace/internal/models"
	"github.com/noah-isme/event-idea-marketplace/pkg/response"
)

type commentService interface {
	ByIdea(ctx context.Context, ideaID string) ([]models.Comment, error)
	ByUser(ctx context.Context, userID string) ([]models.Comment, error)
	Replies(ctx context.Context, parentID string) ([]models.Comment, error)
	Get(ctx context.Context, id string) (*models.Comment, error)
	Create(ctx context.Context, actor *models.JWTClaims, req models.CreateCommentRequest) (*models.Comment, error)
	Update(ctx context.Context, actor *models.JWTClaims, id string, req models.UpdateCommentRequest) (*models.Comment, error)
	Delete(ctx context.Context, actor *models.JWTClaims, id string) error
}

// CommentHandler serves idea discussions.
type CommentHandler struct {
	service commentService
}

func NewCommentHandler(svc commentService) *CommentHandler {
	return &CommentHandler{service: svc}
}

// ByIdea godoc
// @Summary Comments on an idea
// @Tags Comments
// @Produce json
// @Param id path string true "Idea ID"
// @Success 200 {object} response.Envelope
// @Router /comments/idea/{id} [get]
func (h *CommentHandler) ByIdea(c *gin.Context) {
	h.respond(c, h.service.ByIdea, c.Param("id"))
}

// ByUser godoc
// @Summary Comments by a user
// @Tags Comments
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} response.Envelope
// @Router /comments/user/{id} [get]
func (h *CommentHandler) ByUser(c *gin.Context) {
	h.respond(c, h.service.ByUser, c.Param("id"))
}

// Replies godoc
// @Summary Replies to a comment
// @Tags Comments
// @Produce json
// @Param parentId path string true "Parent comment ID"
// @Success 200 {object} response.Envelope
// @Router /comments/reply/{parentId} [get]
func (h *CommentHandler) Replies(c *gin.Context) {
	h.respond(c, h.service.Replies, c.Param("parentId"))
}

// Get godoc
// @Summary Get comment
// @Tags Comments
// @Produce json
// @Param id path string true "Comment ID"
// @Success 200 {object} response.Envelope
// @Router /comments/{id} [get]
func (h *CommentHandler) Get(c *gin.Context) {
	comment, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, comment)
}

// Create godoc
// @Summary Comment on an idea
// @Tags Comments
// @Accept json
// @Produce json
// @Param payload body models.CreateCommentRequest true "Comment"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /comments [post]
func (h *CommentHandler) Create(c *gin.Context) {
	claims, err := requireClaims(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req models.CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	comment, err := h.service.Create(c.Request.Context(), claims, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, comment)
}

// Update godoc
// @Summary Edit a comment
// @Tags Comments
// @Accept json
// @Produce json
// @Param id path string true "Comment ID"
// @Param payload body models.UpdateCommentRequest true "Comment"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /comments/{id} [put]
func (h *CommentHandler) Update(c *gin.Context) {
	claims, err := requireClaims(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req models.UpdateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	comment, err := h.service.Update(c.Request.Context(), claims, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, comment)
}

// Delete godoc
// @Summary Delete a comment
// @Tags Comments
// @Param id path string true "Comment ID"
// @Success 204
// @Security BearerAuth
// @Router /comments/{id} [delete]
func (h *CommentHandler) Delete(c *gin.Context) {
	claims, err := requireClaims(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.service.Delete(c.Request.Context(), claims, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

func (h *CommentHandler) respond(c *gin.Context, load func(context.Context, string) ([]models.Comment, error), id string) {
	comments, err := load(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, comments)
}
