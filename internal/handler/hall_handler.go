package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/event-idea-marketplace/internal/models"
	appErrors "github.com/noah-isme/event-idea-marketplace/pkg/errors"
	"github.com/noah-isme/event-idea-marketplace/pkg/response"
)

type hallService interface {
	List(ctx context.Context) ([]models.Hall, error)
	Get(ctx context.Context, id string) (*models.Hall, error)
	Available(ctx context.Context, q models.HallAvailabilityQuery) ([]models.Hall, error)
	BestFit(ctx context.Context, q models.HallAvailabilityQuery) (*models.Hall, error)
	Create(ctx context.Context, req models.HallRequest) (*models.Hall, error)
	Update(ctx context.Context, id string, req models.HallRequest) (*models.Hall, error)
	Delete(ctx context.Context, id string) error
}

// HallHandler serves venues and availability lookups.
type HallHandler struct {
	service hallService
}

// NewHallHandler constructs a hall handler.
func NewHallHandler(svc hallService) *HallHandler {
	return &HallHandler{service: svc}
}

// List godoc
// @Summary List halls by capacity
// @Tags Halls
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /halls [get]
func (h *HallHandler) List(c *gin.Context) {
	halls, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, halls)
}

// Get godoc
// @Summary Get hall
// @Tags Halls
// @Produce json
// @Param id path string true "Hall ID"
// @Success 200 {object} response.Envelope
// @Router /halls/{id} [get]
func (h *HallHandler) Get(c *gin.Context) {
	hall, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, hall)
}

// Available godoc
// @Summary Halls free for a window
// @Description An incomplete query yields an empty list
// @Tags Halls
// @Produce json
// @Param participants query int true "Expected participants"
// @Param startTime query string true "RFC3339 start"
// @Param endTime query string true "RFC3339 end"
// @Param excludeEventId query string false "Event to ignore when checking overlaps"
// @Success 200 {object} response.Envelope
// @Router /halls/available [get]
func (h *HallHandler) Available(c *gin.Context) {
	q, err := availabilityQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	halls, err := h.service.Available(c.Request.Context(), q)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, halls)
}

// BestFit godoc
// @Summary Smallest free hall that fits
// @Tags Halls
// @Produce json
// @Param participants query int true "Expected participants"
// @Param startTime query string true "RFC3339 start"
// @Param endTime query string true "RFC3339 end"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /halls/best-fit [get]
func (h *HallHandler) BestFit(c *gin.Context) {
	q, err := availabilityQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	hall, err := h.service.BestFit(c.Request.Context(), q)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, hall)
}

// Create godoc
// @Summary Create hall
// @Tags Halls
// @Accept json
// @Produce json
// @Param payload body models.HallRequest true "Hall payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /halls [post]
func (h *HallHandler) Create(c *gin.Context) {
	var req models.HallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	hall, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, hall)
}

// Update godoc
// @Summary Update hall
// @Tags Halls
// @Accept json
// @Produce json
// @Param id path string true "Hall ID"
// @Param payload body models.HallRequest true "Hall payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /halls/{id} [put]
func (h *HallHandler) Update(c *gin.Context) {
	var req models.HallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	hall, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, hall)
}

// Delete godoc
// @Summary Deactivate hall
// @Tags Halls
// @Param id path string true "Hall ID"
// @Success 204
// @Security BearerAuth
// @Router /halls/{id} [delete]
func (h *HallHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

func availabilityQuery(c *gin.Context) (models.HallAvailabilityQuery, error) {
	var q models.HallAvailabilityQuery
	if raw := c.Query("participants"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return q, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "participants must be a number")
		}
		q.Participants = n
	}
	var err error
	if q.Start, err = optionalTimeQuery(c, "startTime"); err != nil {
		return q, err
	}
	if q.End, err = optionalTimeQuery(c, "endTime"); err != nil {
		return q, err
	}
	q.ExcludeEventID = c.Query("excludeEventId")
	return q, nil
}
