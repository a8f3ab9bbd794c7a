package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/event-idea-marketplace/internal/models"
	"github.com/noah-isme/event-idea-marketplace/pkg/response"
)

type problemService interface {
	List(ctx context.Context, filter models.ProblemFilter) ([]models.Problem, *models.Pagination, error)
	Trending(ctx context.Context) ([]models.Problem, error)
	Get(ctx context.Context, id string) (*models.Problem, error)
	Create(ctx context.Context, actor *models.JWTClaims, req models.ProblemRequest) (*models.Problem, error)
	Update(ctx context.Context, actor *models.JWTClaims, id string, req models.ProblemRequest) (*models.Problem, error)
	Delete(ctx context.Context, actor *models.JWTClaims, id string) error
}

// ProblemHandler serves problems posted by clubs.
type ProblemHandler struct {
	service problemService
}

// NewProblemHandler constructs a problem handler.
func NewProblemHandler(svc problemService) *ProblemHandler {
	return &ProblemHandler{service: svc}
}

// List godoc
// @Summary List open problems
// @Tags Problems
// @Produce json
// @Param clubId query string false "Club ID"
// @Param category query string false "Category"
// @Param q query string false "Search keyword"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /problems [get]
func (h *ProblemHandler) List(c *gin.Context) {
	h.list(c, models.ProblemFilter{
		ClubID:   c.Query("clubId"),
		Category: c.Query("category"),
		Search:   strings.TrimSpace(c.Query("q")),
	})
}

// Trending godoc
// @Summary Problems drawing the most ideas and views
// @Tags Problems
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /problems/trending [get]
func (h *ProblemHandler) Trending(c *gin.Context) {
	problems, err := h.service.Trending(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, problems)
}

// ByClub lists a club's problems.
func (h *ProblemHandler) ByClub(c *gin.Context) {
	h.list(c, models.ProblemFilter{ClubID: c.Param("id")})
}

// ByCategory lists problems in a category.
func (h *ProblemHandler) ByCategory(c *gin.Context) {
	h.list(c, models.ProblemFilter{Category: c.Param("category")})
}

// Search lists problems matching q.
func (h *ProblemHandler) Search(c *gin.Context) {
	h.list(c, models.ProblemFilter{Search: strings.TrimSpace(c.Query("q"))})
}

// Get godoc
// @Summary Get problem
// @Description Reading a problem counts as a view
// @Tags Problems
// @Produce json
// @Param id path string true "Problem ID"
// @Success 200 {object} response.Envelope
// @Router /problems/{id} [get]
func (h *ProblemHandler) Get(c *gin.Context) {
	problem, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, problem)
}

// Create godoc
// @Summary Post a problem
// @Tags Problems
// @Accept json
// @Produce json
// @Param payload body models.ProblemRequest true "Problem payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /problems [post]
func (h *ProblemHandler) Create(c *gin.Context) {
	claims, err := requireClaims(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req models.ProblemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	problem, err := h.service.Create(c.Request.Context(), claims, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, problem)
}

// Update godoc
// @Summary Update a problem
// @Tags Problems
// @Accept json
// @Produce json
// @Param id path string true "Problem ID"
// @Param payload body models.ProblemRequest true "Problem payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /problems/{id} [put]
func (h *ProblemHandler) Update(c *gin.Context) {
	claims, err := requireClaims(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req models.ProblemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	problem, err := h.service.Update(c.Request.Context(), claims, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, problem)
}

// Delete godoc
// @Summary Close a problem
// @Tags Problems
// @Param id path string true "Problem ID"
// @Success 204
// @Security BearerAuth
// @Router /problems/{id} [delete]
func (h *ProblemHandler) Delete(c *gin.Context) {
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

func (h *ProblemHandler) list(c *gin.Context, filter models.ProblemFilter) {
	filter.Page, filter.PageSize = pageQuery(c)
	problems, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, problems, pagination)
}
