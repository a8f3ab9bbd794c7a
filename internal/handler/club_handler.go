package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/event-idea-marketplace/internal/models"
	"github.com/noah-isme/event-idea-marketplace/pkg/response"
)

type clubService interface {
	List(ctx context.Context) ([]models.Club, error)
	Get(ctx context.Context, id string) (*models.Club, error)
	Search(ctx context.Context, q string) ([]models.Club, error)
	Mine(ctx context.Context, actor *models.JWTClaims) ([]models.Club, error)
	Pending(ctx context.Context) ([]models.Club, error)
	Create(ctx context.Context, actor *models.JWTClaims, req models.CreateClubRequest) (*models.Club, error)
	Update(ctx context.Context, actor *models.JWTClaims, id string, req models.UpdateClubRequest) (*models.Club, error)
	Delete(ctx context.Context, actor *models.JWTClaims, id string) error
	Approve(ctx context.Context, id string) (*models.Club, error)
	Reject(ctx context.Context, id, reason string) (*models.Club, error)
}

type membershipService interface {
	Members(ctx context.Context, clubID string) ([]models.ClubMembership, error)
	Mine(ctx context.Context, actor *models.JWTClaims) ([]models.ClubMembership, error)
	Join(ctx context.Context, actor *models.JWTClaims, clubID string) (*models.ClubMembership, error)
	Leave(ctx context.Context, actor *models.JWTClaims, clubID string) error
	UpdateRole(ctx context.Context, actor *models.JWTClaims, clubID, membershipID string, req models.UpdateMembershipRoleRequest) (*models.ClubMembership, error)
	Remove(ctx context.Context, actor *models.JWTClaims, clubID, membershipID string) error
}

// ClubHandler serves clubs and their memberships.
type ClubHandler struct {
	clubs   clubService
	members membershipService
}

// NewClubHandler constructs a club handler.
func NewClubHandler(clubs clubService, members membershipService) *ClubHandler {
	return &ClubHandler{clubs: clubs, members: members}
}

// List godoc
// @Summary List approved clubs
// @Tags Clubs
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /clubs [get]
func (h *ClubHandler) List(c *gin.Context) {
	clubs, err := h.clubs.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, clubs)
}

// Get godoc
// @Summary Get club
// @Tags Clubs
// @Produce json
// @Param id path string true "Club ID"
// @Success 200 {object} response.Envelope
// @Router /clubs/{id} [get]
func (h *ClubHandler) Get(c *gin.Context) {
	club, err := h.clubs.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, club)
}

// Search godoc
// @Summary Search clubs
// @Tags Clubs
// @Produce json
// @Param q query string true "Keyword"
// @Success 200 {object} response.Envelope
// @Router /clubs/search [get]
func (h *ClubHandler) Search(c *gin.Context) {
	clubs, err := h.clubs.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, clubs)
}

// Mine godoc
// @Summary Clubs administered by the caller
// @Tags Clubs
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /clubs/mine [get]
func (h *ClubHandler) Mine(c *gin.Context) {
	claims, err := requireClaims(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	clubs, err := h.clubs.Mine(c.Request.Context(), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, clubs)
}

// Pending godoc
// @Summary Clubs awaiting approval
// @Tags Clubs
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /clubs/pending [get]
func (h *ClubHandler) Pending(c *gin.Context) {
	clubs, err := h.clubs.Pending(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, clubs)
}

// Create godoc
// @Summary Create club
// @Description Clubs created by club admins wait for super admin approval
// @Tags Clubs
// @Accept json
// @Produce json
// @Param payload body models.CreateClubRequest true "Club payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /clubs [post]
func (h *ClubHandler) Create(c *gin.Context) {
	claims, err := requireClaims(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req models.CreateClubRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	club, err := h.clubs.Create(c.Request.Context(), claims, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, club)
}

// Update godoc
// @Summary Update club
// @Tags Clubs
// @Accept json
// @Produce json
// @Param id path string true "Club ID"
// @Param payload body models.UpdateClubRequest true "Club payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /clubs/{id} [put]
func (h *ClubHandler) Update(c *gin.Context) {
	claims, err := requireClaims(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req models.UpdateClubRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	club, err := h.clubs.Update(c.Request.Context(), claims, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, club)
}

// Delete godoc
// @Summary Deactivate club
// @Tags Clubs
// @Param id path string true "Club ID"
// @Success 204
// @Security BearerAuth
// @Router /clubs/{id} [delete]
func (h *ClubHandler) Delete(c *gin.Context) {
	claims, err := requireClaims(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.clubs.Delete(c.Request.Context(), claims, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Approve godoc
// @Summary Approve club
// @Tags Clubs
// @Produce json
// @Param id path string true "Club ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /clubs/{id}/approve [post]
func (h *ClubHandler) Approve(c *gin.Context) {
	club, err := h.clubs.Approve(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, club)
}

// Reject godoc
// @Summary Reject club
// @Tags Clubs
// @Accept json
// @Produce json
// @Param id path string true "Club ID"
// @Param payload body models.RejectRequest true "Reason"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /clubs/{id}/reject [post]
func (h *ClubHandler) Reject(c *gin.Context) {
	var req models.RejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	club, err := h.clubs.Reject(c.Request.Context(), c.Param("id"), req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, club)
}

// Members godoc
// @Summary Club members
// @Tags Clubs
// @Produce json
// @Param id path string true "Club ID"
// @Success 200 {object} response.Envelope
// @Router /clubs/{id}/members [get]
func (h *ClubHandler) Members(c *gin.Context) {
	members, err := h.members.Members(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, members)
}

// MyMemberships godoc
// @Summary Clubs the caller belongs to
// @Tags Clubs
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /users/me/memberships [get]
func (h *ClubHandler) MyMemberships(c *gin.Context) {
	claims, err := requireClaims(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	memberships, err := h.members.Mine(c.Request.Context(), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, memberships)
}

// Join godoc
// @Summary Join a club
// @Tags Clubs
// @Produce json
// @Param id path string true "Club ID"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /clubs/{id}/members/join [post]
func (h *ClubHandler) Join(c *gin.Context) {
	claims, err := requireClaims(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	membership, err := h.members.Join(c.Request.Context(), claims, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, membership)
}

// Leave godoc
// @Summary Leave a club
// @Tags Clubs
// @Param id path string true "Club ID"
// @Success 204
// @Security BearerAuth
// @Router /clubs/{id}/members/leave [post]
func (h *ClubHandler) Leave(c *gin.Context) {
	claims, err := requireClaims(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.members.Leave(c.Request.Context(), claims, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// UpdateMemberRole godoc
// @Summary Change a member's role
// @Tags Clubs
// @Accept json
// @Produce json
// @Param id path string true "Club ID"
// @Param membershipId path string true "Membership ID"
// @Param payload body models.UpdateMembershipRoleRequest true "Role"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /clubs/{id}/members/{membershipId}/role [put]
func (h *ClubHandler) UpdateMemberRole(c *gin.Context) {
	claims, err := requireClaims(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req models.UpdateMembershipRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	membership, err := h.members.UpdateRole(c.Request.Context(), claims, c.Param("id"), c.Param("membershipId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, membership)
}

// RemoveMember godoc
// @Summary Remove a member
// @Tags Clubs
// @Param id path string true "Club ID"
// @Param membershipId path string true "Membership ID"
// @Success 204
// @Security BearerAuth
// @Router /clubs/{id}/members/{membershipId} [delete]
func (h *ClubHandler) RemoveMember(c *gin.Context) {
	claims, err := requireClaims(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.members.Remove(c.Request.Context(), claims, c.Param("id"), c.Param("membershipId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
