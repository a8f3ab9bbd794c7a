package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/event-idea-marketplace/internal/models"
	"github.com/noah-isme/event-idea-marketplace/pkg/response"
)

type registrationService interface {
	Register(ctx context.Context, actor *models.JWTClaims, req models.RegisterEventRequest) (*models.EventRegistration, error)
	Cancel(ctx context.Context, actor *models.JWTClaims, eventID string) error
	ByEvent(ctx context.Context, actor *models.JWTClaims, eventID string) ([]models.EventRegistration, error)
	ByUser(ctx context.Context, actor *models.JWTClaims, userID string) ([]models.EventRegistration, error)
	Count(ctx context.Context, eventID string) (*models.RegistrationCount, error)
	UpdateStatus(ctx context.Context, actor *models.JWTClaims, id string, req models.RegistrationStatusRequest) (*models.EventRegistration, error)
}

// RegistrationHandler serves event sign-ups.
type RegistrationHandler struct {
	service registrationService
}

// NewRegistrationHandler constructs a registration handler.
func NewRegistrationHandler(svc registrationService) *RegistrationHandler {
	return &RegistrationHandler{service: svc}
}

// Register godoc
// @Summary Register for an event
// @Description Full events place the caller on the waitlist
// @Tags EventRegistrations
// @Accept json
// @Produce json
// @Param payload body models.RegisterEventRequest true "Registration"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Security BearerAuth
// @Router /event-registrations/register [post]
func (h *RegistrationHandler) Register(c *gin.Context) {
	claims, err := requireClaims(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req models.RegisterEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	registration, err := h.service.Register(c.Request.Context(), claims, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, registration)
}

// Cancel godoc
// @Summary Cancel the caller's registration
// @Tags EventRegistrations
// @Param eventId query string true "Event ID"
// @Success 204
// @Security BearerAuth
// @Router /event-registrations/cancel [delete]
func (h *RegistrationHandler) Cancel(c *gin.Context) {
	claims, err := requireClaims(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.service.Cancel(c.Request.Context(), claims, c.Query("eventId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ByEvent godoc
// @Summary Registrations for an event
// @Tags EventRegistrations
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /event-registrations/event/{id} [get]
func (h *RegistrationHandler) ByEvent(c *gin.Context) {
	h.list(c, h.service.ByEvent)
}

// ByUser godoc
// @Summary Registrations of a user
// @Tags EventRegistrations
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /event-registrations/user/{id} [get]
func (h *RegistrationHandler) ByUser(c *gin.Context) {
	h.list(c, h.service.ByUser)
}

// Count godoc
// @Summary Seat counts for an event
// @Tags EventRegistrations
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {object} response.Envelope
// @Router /event-registrations/event/{id}/count [get]
func (h *RegistrationHandler) Count(c *gin.Context) {
	count, err := h.service.Count(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, count)
}

// UpdateStatus godoc
// @Summary Record attendance or payment
// @Tags EventRegistrations
// @Accept json
// @Produce json
// @Param id path string true "Registration ID"
// @Param payload body models.RegistrationStatusRequest true "Status"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /event-registrations/{id}/status [put]
func (h *RegistrationHandler) UpdateStatus(c *gin.Context) {
	claims, err := requireClaims(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req models.RegistrationStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	registration, err := h.service.UpdateStatus(c.Request.Context(), claims, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, registration)
}

func (h *RegistrationHandler) list(c *gin.Context, load func(context.Context, *models.JWTClaims, string) ([]models.EventRegistration, error)) {
	claims, err := requireClaims(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	registrations, err := load(c.Request.Context(), claims, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, registrations)
}
