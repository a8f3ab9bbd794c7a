package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/event-idea-marketplace/internal/models"
	"github.com/noah-isme/event-idea-marketplace/pkg/response"
)

type ideaService interface {
	List(ctx context.Context, filter models.IdeaFilter) ([]models.Idea, *models.Pagination, error)
	Top(ctx context.Context) ([]models.Idea, error)
	Get(ctx context.Context, id string) (*models.Idea, error)
	SubmissionStatus(ctx context.Context, actor *models.JWTClaims, eventID string) (*models.IdeaSubmissionStatus, error)
	Create(ctx context.Context, actor *models.JWTClaims, req models.IdeaRequest) (*models.Idea, error)
	Update(ctx context.Context, actor *models.JWTClaims, id string, req models.IdeaRequest) (*models.Idea, error)
	ChangeStatus(ctx context.Context, actor *models.JWTClaims, id string, req models.IdeaStatusRequest) (*models.Idea, error)
	Delete(ctx context.Context, actor *models.JWTClaims, id string) error
}

// IdeaHandler serves idea submissions and browsing.
type IdeaHandler struct {
	service ideaService
}

// NewIdeaHandler constructs an idea handler.
func NewIdeaHandler(svc ideaService) *IdeaHandler {
	return &IdeaHandler{service: svc}
}

// List godoc
// @Summary List ideas
// @Tags Ideas
// @Produce json
// @Param eventId query string false "Event ID"
// @Param problemId query string false "Problem ID"
// @Param studentId query string false "Author ID"
// @Param status query string false "Status"
// @Param featured query bool false "Featured only"
// @Param q query string false "Search keyword"
// @Param sort query string false "createdAt, votes or comments"
// @Param order query string false "asc or desc"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /ideas [get]
func (h *IdeaHandler) List(c *gin.Context) {
	filter := models.IdeaFilter{
		EventID:   c.Query("eventId"),
		ProblemID: c.Query("problemId"),
		StudentID: c.Query("studentId"),
		Status:    models.IdeaStatus(strings.ToUpper(c.Query("status"))),
		Search:    strings.TrimSpace(c.Query("q")),
		SortBy:    c.Query("sort"),
		SortOrder: c.Query("order"),
	}
	if raw := c.Query("featured"); raw != "" {
		if featured, err := strconv.ParseBool(raw); err == nil {
			filter.Featured = &featured
		}
	}
	h.list(c, filter)
}

// Top godoc
// @Summary Ten highest voted ideas
// @Tags Ideas
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /ideas/top [get]
func (h *IdeaHandler) Top(c *gin.Context) {
	ideas, err := h.service.Top(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, ideas)
}

// Featured lists featured ideas.
func (h *IdeaHandler) Featured(c *gin.Context) {
	featured := true
	h.list(c, models.IdeaFilter{Featured: &featured})
}

// ByProblem lists ideas answering a problem.
func (h *IdeaHandler) ByProblem(c *gin.Context) {
	h.list(c, models.IdeaFilter{ProblemID: c.Param("id")})
}

// ByEvent lists ideas submitted to an event.
func (h *IdeaHandler) ByEvent(c *gin.Context) {
	h.list(c, models.IdeaFilter{EventID: c.Param("eventId"), SortBy: c.Query("sort"), SortOrder: c.Query("order")})
}

// ByUser lists ideas written by a user.
func (h *IdeaHandler) ByUser(c *gin.Context) {
	h.list(c, models.IdeaFilter{StudentID: c.Param("id")})
}

// ByStatus lists ideas in one review status.
func (h *IdeaHandler) ByStatus(c *gin.Context) {
	h.list(c, models.IdeaFilter{Status: models.IdeaStatus(strings.ToUpper(c.Param("status")))})
}

// Search godoc
// @Summary Search ideas
// @Tags Ideas
// @Produce json
// @Param q query string true "Keyword"
// @Success 200 {object} response.Envelope
// @Router /ideas/search [get]
func (h *IdeaHandler) Search(c *gin.Context) {
	h.list(c, models.IdeaFilter{Search: strings.TrimSpace(c.Query("q"))})
}

// Get godoc
// @Summary Get idea
// @Tags Ideas
// @Produce json
// @Param id path string true "Idea ID"
// @Success 200 {object} response.Envelope
// @Router /ideas/{id} [get]
func (h *IdeaHandler) Get(c *gin.Context) {
	idea, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, idea)
}

// SubmissionStatus godoc
// @Summary How many more ideas the caller may submit to an event
// @Tags Ideas
// @Produce json
// @Param eventId path string true "Event ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /ideas/event/{eventId}/submission-status [get]
func (h *IdeaHandler) SubmissionStatus(c *gin.Context) {
	claims, err := requireClaims(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	status, err := h.service.SubmissionStatus(c.Request.Context(), claims, c.Param("eventId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, status)
}

// Create godoc
// @Summary Submit an idea
// @Description Submit to an event or a problem. Events allow two active ideas per student.
// @Tags Ideas
// @Accept json
// @Produce json
// @Param payload body models.IdeaRequest true "Idea payload"
// @Success 201 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Security BearerAuth
// @Router /ideas [post]
func (h *IdeaHandler) Create(c *gin.Context) {
	claims, err := requireClaims(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req models.IdeaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	idea, err := h.service.Create(c.Request.Context(), claims, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, idea)
}

// Update godoc
// @Summary Edit an idea
// @Tags Ideas
// @Accept json
// @Produce json
// @Param id path string true "Idea ID"
// @Param payload body models.IdeaRequest true "Idea payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /ideas/{id} [put]
func (h *IdeaHandler) Update(c *gin.Context) {
	claims, err := requireClaims(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req models.IdeaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	idea, err := h.service.Update(c.Request.Context(), claims, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, idea)
}

// ChangeStatus godoc
// @Summary Change an idea's review status
// @Tags Ideas
// @Accept json
// @Produce json
// @Param id path string true "Idea ID"
// @Param payload body models.IdeaStatusRequest true "Status"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /ideas/{id}/status [put]
func (h *IdeaHandler) ChangeStatus(c *gin.Context) {
	claims, err := requireClaims(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req models.IdeaStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	idea, err := h.service.ChangeStatus(c.Request.Context(), claims, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, idea)
}

// Delete godoc
// @Summary Withdraw an idea
// @Tags Ideas
// @Param id path string true "Idea ID"
// @Success 204
// @Security BearerAuth
// @Router /ideas/{id} [delete]
func (h *IdeaHandler) Delete(c *gin.Context) {
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

func (h *IdeaHandler) list(c *gin.Context, filter models.IdeaFilter) {
	filter.Page, filter.PageSize = pageQuery(c)
	ideas, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, ideas, pagination)
}
