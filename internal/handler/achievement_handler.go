package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/event-idea-marketplace/internal/models"
	"github.com/noah-isme/event-idea-marketplace/pkg/response"
)

type achievementService interface {
	Check(ctx context.Context, userID string) ([]models.Achievement, error)
	List(ctx context.Context, userID string) ([]models.Achievement, error)
	Points(ctx context.Context, userID string) (*models.AchievementPoints, error)
}

type AchievementHandler struct {
	service achievementService
}

func NewAchievementHandler(svc achievementService) *AchievementHandler {
	return &AchievementHandler{service: svc}
}

// List godoc
// @Summary Caller's achievements
// @Tags Achievements
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /achievements [get]
func (h *AchievementHandler) List(c *gin.Context) {
	h.respond(c, h.service.List)
}

// Points godoc
// @Summary Caller's achievement points
// @Tags Achievements
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /achievements/points [get]
func (h *AchievementHandler) Points(c *gin.Context) {
	claims, err := requireClaims(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	points, err := h.service.Points(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, points)
}

// Check godoc
// @Summary Evaluate achievement rules now
// @Description Returns only the awards granted by this check
// @Tags Achievements
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /achievements/check [post]
func (h *AchievementHandler) Check(c *gin.Context) {
	h.respond(c, h.service.Check)
}

func (h *AchievementHandler) respond(c *gin.Context, load func(context.Context, string) ([]models.Achievement, error)) {
	claims, err := requireClaims(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	achievements, err := load(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, achievements)
}
