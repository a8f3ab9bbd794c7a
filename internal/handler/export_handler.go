package handler

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/event-idea-marketplace/internal/models"
	"github.com/noah-isme/event-idea-marketplace/internal/service"
	"github.com/noah-isme/event-idea-marketplace/pkg/response"
)

type exportService interface {
	EventsReport(ctx context.Context, actor *models.JWTClaims, status models.EventStatus, rawFormat string) (*service.ExportDocument, error)
	IdeaLeaderboard(ctx context.Context, actor *models.JWTClaims, eventID, rawFormat string) (*service.ExportDocument, error)
}

// ExportHandler streams CSV and PDF reports.
type ExportHandler struct {
	service exportService
}

// NewExportHandler constructs an export handler.
func NewExportHandler(svc exportService) *ExportHandler {
	return &ExportHandler{service: svc}
}

// Events godoc
// @Summary Export event proposals
// @Tags Exports
// @Produce text/csv
// @Produce application/pdf
// @Param status query string false "Event status"
// @Param format query string false "csv (default) or pdf"
// @Success 200 {file} file
// @Security BearerAuth
// @Router /exports/events [get]
func (h *ExportHandler) Events(c *gin.Context) {
	claims, err := requireClaims(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	status := models.EventStatus(strings.ToUpper(c.Query("status")))
	doc, err := h.service.EventsReport(c.Request.Context(), claims, status, c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, doc.FileName, doc.ContentType, doc.Data)
}

// IdeaLeaderboard godoc
// @Summary Export an event's idea leaderboard
// @Tags Exports
// @Produce text/csv
// @Produce application/pdf
// @Param id path string true "Event ID"
// @Param format query string false "csv (default) or pdf"
// @Success 200 {file} file
// @Security BearerAuth
// @Router /exports/events/{id}/ideas [get]
func (h *ExportHandler) IdeaLeaderboard(c *gin.Context) {
	claims, err := requireClaims(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	doc, err := h.service.IdeaLeaderboard(c.Request.Context(), claims, c.Param("id"), c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, doc.FileName, doc.ContentType, doc.Data)
}
