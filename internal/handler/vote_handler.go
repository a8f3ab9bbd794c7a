package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/event-idea-marketplace/internal/models"
	"github.com/noah-isme/event-idea-marketplace/pkg/response"
)

type voteService interface {
	Cast(ctx context.Context, actor *models.JWTClaims, ideaID string, req models.CastVoteRequest) (*models.VoteOutcome, error)
	Stats(ctx context.Context, ideaID string) (*models.VoteStats, error)
	UserVote(ctx context.Context, ideaID, userID string) (*models.Vote, error)
	Remove(ctx context.Context, actor *models.JWTClaims, ideaID, userID string) (*models.VoteStats, error)
}

// VoteHandler serves idea voting.
type VoteHandler struct {
	service voteService
}

// NewVoteHandler constructs a vote handler.
func NewVoteHandler(svc voteService) *VoteHandler {
	return &VoteHandler{service: svc}
}

// Cast godoc
// @Summary Vote on an idea
// @Description Repeating the same vote removes it; the opposite vote switches it
// @Tags Votes
// @Accept json
// @Produce json
// @Param ideaId path string true "Idea ID"
// @Param payload body models.CastVoteRequest true "UP or DOWN"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /votes/idea/{ideaId} [post]
func (h *VoteHandler) Cast(c *gin.Context) {
	claims, err := requireClaims(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req models.CastVoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	outcome, err := h.service.Cast(c.Request.Context(), claims, c.Param("ideaId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, outcome)
}

// Stats godoc
// @Summary Vote tally of an idea
// @Tags Votes
// @Produce json
// @Param ideaId path string true "Idea ID"
// @Success 200 {object} response.Envelope
// @Router /votes/idea/{ideaId}/stats [get]
func (h *VoteHandler) Stats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context(), c.Param("ideaId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, stats)
}

// UserVote godoc
// @Summary A user's vote on an idea
// @Tags Votes
// @Produce json
// @Param ideaId path string true "Idea ID"
// @Param userId path string true "User ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /votes/idea/{ideaId}/user/{userId} [get]
func (h *VoteHandler) UserVote(c *gin.Context) {
	vote, err := h.service.UserVote(c.Request.Context(), c.Param("ideaId"), c.Param("userId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, vote)
}

// Remove godoc
// @Summary Remove a vote
// @Tags Votes
// @Produce json
// @Param ideaId path string true "Idea ID"
// @Param userId path string true "User ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /votes/idea/{ideaId}/user/{userId} [delete]
func (h *VoteHandler) Remove(c *gin.Context) {
	claims, err := requireClaims(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	stats, err := h.service.Remove(c.Request.Context(), claims, c.Param("ideaId"), c.Param("userId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, stats)
}
