package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/event-idea-marketplace/internal/models"
	"github.com/noah-isme/event-idea-marketplace/pkg/response"
)

type eventService interface {
	List(ctx context.Context, filter models.EventFilter) ([]models.Event, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.Event, error)
	Search(ctx context.Context, keyword string, page, pageSize int) ([]models.Event, *models.Pagination, error)
	ByClub(ctx context.Context, clubID string, page, pageSize int) ([]models.Event, *models.Pagination, error)
	CountByClub(ctx context.Context, clubID string) (int, error)
	Upcoming(ctx context.Context) ([]models.Event, error)
	Ongoing(ctx context.Context) ([]models.Event, error)
	ClubTopics(ctx context.Context, clubID string) ([]models.Event, error)
	ActiveForStudents(ctx context.Context) ([]models.Event, error)
	ByStatus(ctx context.Context, status models.EventStatus) ([]models.Event, error)
	RejectedByClub(ctx context.Context, actor *models.JWTClaims, clubID string) ([]models.Event, error)
	Create(ctx context.Context, actor *models.JWTClaims, req models.EventRequest) (*models.Event, error)
	Update(ctx context.Context, actor *models.JWTClaims, id string, req models.EventRequest) (*models.Event, error)
	Delete(ctx context.Context, actor *models.JWTClaims, id string) error
	SubmitForApproval(ctx context.Context, actor *models.JWTClaims, req models.SubmitForApprovalRequest) (*models.Event, error)
	Resubmit(ctx context.Context, actor *models.JWTClaims, id string) (*models.Event, error)
	Approve(ctx context.Context, actor *models.JWTClaims, id string) (*models.Event, error)
	Reject(ctx context.Context, actor *models.JWTClaims, id string, req models.RejectEventRequest) (*models.Event, error)
	ApproveProposal(ctx context.Context, actor *models.JWTClaims, id string, req models.ApproveProposalRequest) (*models.Event, error)
	Publish(ctx context.Context, actor *models.JWTClaims, id string) (*models.Event, error)
	ChangeStatus(ctx context.Context, actor *models.JWTClaims, id string, req models.EventStatusRequest) (*models.Event, error)
	SubmissionState(ctx context.Context, id string) (*models.SubmissionStateResponse, error)
}

// EventHandler serves event topics and the proposal workflow.
type EventHandler struct {
	service eventService
}

// NewEventHandler constructs an event handler.
func NewEventHandler(svc eventService) *EventHandler {
	return &EventHandler{service: svc}
}

// List godoc
// @Summary List events
// @Tags Events
// @Produce json
// @Param status query string false "Comma separated statuses"
// @Param clubId query string false "Club ID"
// @Param keyword query string false "Search keyword"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Param sort query string false "Sort field"
// @Param order query string false "asc or desc"
// @Success 200 {object} response.Envelope
// @Router /events [get]
func (h *EventHandler) List(c *gin.Context) {
	filter := models.EventFilter{
		ClubID:    c.Query("clubId"),
		Keyword:   strings.TrimSpace(c.Query("keyword")),
		SortBy:    c.Query("sort"),
		SortOrder: c.Query("order"),
	}
	for _, raw := range strings.Split(c.Query("status"), ",") {
		if raw = strings.TrimSpace(strings.ToUpper(raw)); raw != "" {
			filter.Statuses = append(filter.Statuses, models.EventStatus(raw))
		}
	}
	filter.Page, filter.PageSize = pageQuery(c)

	events, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, events, pagination)
}

// Get godoc
// @Summary Get event
// @Tags Events
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /events/{id} [get]
func (h *EventHandler) Get(c *gin.Context) {
	event, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, event)
}

// Search godoc
// @Summary Search events
// @Tags Events
// @Produce json
// @Param keyword query string true "Keyword"
// @Success 200 {object} response.Envelope
// @Router /events/search [get]
func (h *EventHandler) Search(c *gin.Context) {
	page, limit := pageQuery(c)
	events, pagination, err := h.service.Search(c.Request.Context(), c.Query("keyword"), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, events, pagination)
}

// ByClub godoc
// @Summary List a club's events
// @Tags Events
// @Produce json
// @Param clubId path string true "Club ID"
// @Success 200 {object} response.Envelope
// @Router /events/club/{clubId} [get]
func (h *EventHandler) ByClub(c *gin.Context) {
	page, limit := pageQuery(c)
	events, pagination, err := h.service.ByClub(c.Request.Context(), c.Param("clubId"), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, events, pagination)
}

// CountByClub godoc
// @Summary Count a club's events
// @Tags Events
// @Produce json
// @Param clubId path string true "Club ID"
// @Success 200 {object} response.Envelope
// @Router /events/club/{clubId}/count [get]
func (h *EventHandler) CountByClub(c *gin.Context) {
	count, err := h.service.CountByClub(c.Request.Context(), c.Param("clubId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"count": count})
}

// ClubTopics godoc
// @Summary Open idea topics of a club
// @Tags Events
// @Produce json
// @Param clubId path string true "Club ID"
// @Success 200 {object} response.Envelope
// @Router /events/club/{clubId}/topics [get]
func (h *EventHandler) ClubTopics(c *gin.Context) {
	h.respondList(c, func(ctx context.Context) ([]models.Event, error) {
		return h.service.ClubTopics(ctx, c.Param("clubId"))
	})
}

// Upcoming godoc
// @Summary Upcoming published events
// @Tags Events
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /events/upcoming [get]
func (h *EventHandler) Upcoming(c *gin.Context) {
	h.respondList(c, h.service.Upcoming)
}

// Ongoing godoc
// @Summary Events in progress
// @Tags Events
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /events/ongoing [get]
func (h *EventHandler) Ongoing(c *gin.Context) {
	h.respondList(c, h.service.Ongoing)
}

// Active godoc
// @Summary Events students can join or submit to
// @Tags Events
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /events/active [get]
func (h *EventHandler) Active(c *gin.Context) {
	h.respondList(c, h.service.ActiveForStudents)
}

// PendingApproval lists proposals waiting for a decision.
func (h *EventHandler) PendingApproval(c *gin.Context) {
	h.byStatus(c, models.EventPendingApproval)
}

// Approved lists approved proposals.
func (h *EventHandler) Approved(c *gin.Context) {
	h.byStatus(c, models.EventApproved)
}

// Rejected lists rejected proposals.
func (h *EventHandler) Rejected(c *gin.Context) {
	h.byStatus(c, models.EventRejected)
}

// RejectedByClub godoc
// @Summary Rejected proposals of a club
// @Tags Events
// @Produce json
// @Param clubId path string true "Club ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /events/rejected/{clubId} [get]
func (h *EventHandler) RejectedByClub(c *gin.Context) {
	claims, err := requireClaims(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.respondList(c, func(ctx context.Context) ([]models.Event, error) {
		return h.service.RejectedByClub(ctx, claims, c.Param("clubId"))
	})
}

// Create godoc
// @Summary Create event
// @Description Creates a DRAFT event owned by the caller
// @Tags Events
// @Accept json
// @Produce json
// @Param payload body models.EventRequest true "Event payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Security BearerAuth
// @Router /events [post]
func (h *EventHandler) Create(c *gin.Context) {
	claims, err := requireClaims(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req models.EventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	event, err := h.service.Create(c.Request.Context(), claims, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, event)
}

// Update godoc
// @Summary Update event
// @Tags Events
// @Accept json
// @Produce json
// @Param id path string true "Event ID"
// @Param payload body models.EventRequest true "Event payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /events/{id} [put]
func (h *EventHandler) Update(c *gin.Context) {
	claims, err := requireClaims(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req models.EventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	event, err := h.service.Update(c.Request.Context(), claims, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, event)
}

// Delete godoc
// @Summary Deactivate event
// @Tags Events
// @Param id path string true "Event ID"
// @Success 204
// @Security BearerAuth
// @Router /events/{id} [delete]
func (h *EventHandler) Delete(c *gin.Context) {
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

// SubmitForApproval godoc
// @Summary Submit a proposal for approval
// @Tags Events
// @Accept json
// @Produce json
// @Param payload body models.SubmitForApprovalRequest true "Proposal"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /events/submit-for-approval [post]
func (h *EventHandler) SubmitForApproval(c *gin.Context) {
	claims, err := requireClaims(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req models.SubmitForApprovalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	event, err := h.service.SubmitForApproval(c.Request.Context(), claims, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, event)
}

// Resubmit godoc
// @Summary Resubmit a rejected proposal
// @Tags Events
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /events/resubmit-rejected/{id} [post]
func (h *EventHandler) Resubmit(c *gin.Context) {
	h.transition(c, h.service.Resubmit)
}

// Approve godoc
// @Summary Approve a pending proposal
// @Tags Events
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /events/approve/{id} [post]
func (h *EventHandler) Approve(c *gin.Context) {
	h.transition(c, h.service.Approve)
}

// Reject godoc
// @Summary Reject a pending proposal
// @Tags Events
// @Accept json
// @Produce json
// @Param id path string true "Event ID"
// @Param payload body models.RejectEventRequest true "Reason"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /events/reject/{id} [post]
func (h *EventHandler) Reject(c *gin.Context) {
	claims, err := requireClaims(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req models.RejectEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	event, err := h.service.Reject(c.Request.Context(), claims, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, event)
}

// ApproveProposal godoc
// @Summary Approve a proposal with final details
// @Tags Events
// @Accept json
// @Produce json
// @Param id path string true "Event ID"
// @Param payload body models.ApproveProposalRequest true "Final event details"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /events/{id}/approve-proposal [post]
func (h *EventHandler) ApproveProposal(c *gin.Context) {
	claims, err := requireClaims(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req models.ApproveProposalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	event, err := h.service.ApproveProposal(c.Request.Context(), claims, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, event)
}

// Publish godoc
// @Summary Publish an approved event
// @Tags Events
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /events/{id}/publish [put]
func (h *EventHandler) Publish(c *gin.Context) {
	h.transition(c, h.service.Publish)
}

// ChangeStatus godoc
// @Summary Move a published event through its lifecycle
// @Tags Events
// @Accept json
// @Produce json
// @Param id path string true "Event ID"
// @Param payload body models.EventStatusRequest true "Target status"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /events/{id}/status [put]
func (h *EventHandler) ChangeStatus(c *gin.Context) {
	claims, err := requireClaims(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req models.EventStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	event, err := h.service.ChangeStatus(c.Request.Context(), claims, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, event)
}

// SubmissionState godoc
// @Summary Idea submission window state
// @Tags Events
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {object} response.Envelope
// @Router /events/{id}/submission-state [get]
func (h *EventHandler) SubmissionState(c *gin.Context) {
	state, err := h.service.SubmissionState(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, state)
}

func (h *EventHandler) byStatus(c *gin.Context, status models.EventStatus) {
	h.respondList(c, func(ctx context.Context) ([]models.Event, error) {
		return h.service.ByStatus(ctx, status)
	})
}

func (h *EventHandler) respondList(c *gin.Context, load func(context.Context) ([]models.Event, error)) {
	events, err := load(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, events)
}

func (h *EventHandler) transition(c *gin.Context, apply func(context.Context, *models.JWTClaims, string) (*models.Event, error)) {
	claims, err := requireClaims(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	event, err := apply(c.Request.Context(), claims, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, event)
}
