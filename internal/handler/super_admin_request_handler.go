package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/event-idea-marketplace/internal/models"
	"github.com/noah-isme/event-idea-marketplace/pkg/response"
)

type superAdminRequestService interface {
	Submit(ctx context.Context, req models.CreateSuperAdminRequest) (*models.SuperAdminRequest, error)
	Pending(ctx context.Context) ([]models.SuperAdminRequest, error)
	All(ctx context.Context) ([]models.SuperAdminRequest, error)
	CountPending(ctx context.Context) (int, error)
	Approve(ctx context.Context, actor *models.JWTClaims, id string) (*models.SuperAdminRequest, error)
	Reject(ctx context.Context, actor *models.JWTClaims, id, reason string) (*models.SuperAdminRequest, error)
}

// SuperAdminRequestHandler serves requests for super admin accounts.
type SuperAdminRequestHandler struct {
	service superAdminRequestService
}

func NewSuperAdminRequestHandler(svc superAdminRequestService) *SuperAdminRequestHandler {
	return &SuperAdminRequestHandler{service: svc}
}

// Submit godoc
// @Summary Request a super admin account
// @Tags SuperAdminRequests
// @Accept json
// @Produce json
// @Param payload body models.CreateSuperAdminRequest true "Applicant"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /super-admin-requests [post]
func (h *SuperAdminRequestHandler) Submit(c *gin.Context) {
	var req models.CreateSuperAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	created, err := h.service.Submit(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, created)
}

// Pending godoc
// @Summary Pending requests
// @Tags SuperAdminRequests
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /super-admin-requests/pending [get]
func (h *SuperAdminRequestHandler) Pending(c *gin.Context) {
	requests, err := h.service.Pending(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, requests)
}

// All godoc
// @Summary Every request
// @Tags SuperAdminRequests
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /super-admin-requests/all [get]
func (h *SuperAdminRequestHandler) All(c *gin.Context) {
	requests, err := h.service.All(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, requests)
}

// Count godoc
// @Summary Number of pending requests
// @Tags SuperAdminRequests
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /super-admin-requests/count [get]
func (h *SuperAdminRequestHandler) Count(c *gin.Context) {
	count, err := h.service.CountPending(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"count": count})
}

// Approve godoc
// @Summary Approve a request and create the account
// @Tags SuperAdminRequests
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /super-admin-requests/{id}/approve [post]
func (h *SuperAdminRequestHandler) Approve(c *gin.Context) {
	claims, err := requireClaims(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	approved, err := h.service.Approve(c.Request.Context(), claims, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, approved)
}

// Reject godoc
// @Summary Reject a request
// @Tags SuperAdminRequests
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param payload body models.RejectRequest false "Reason"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /super-admin-requests/{id}/reject [post]
func (h *SuperAdminRequestHandler) Reject(c *gin.Context) {
	claims, err := requireClaims(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req models.RejectRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, invalidPayload(err))
			return
		}
	}
	rejected, err := h.service.Reject(c.Request.Context(), claims, c.Param("id"), req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, rejected)
}
