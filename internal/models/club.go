package models

import "time"

// ApprovalStatus tracks super admin review of clubs.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "PENDING"
	ApprovalApproved ApprovalStatus = "APPROVED"
	ApprovalRejected ApprovalStatus = "REJECTED"
)

// Club is a student organisation that owns events and problems.
type Club struct {
	ID              string         `db:"id" json:"id"`
	Name            string         `db:"name" json:"name"`
	ShortName       string         `db:"short_name" json:"shortName"`
	Description     string         `db:"description" json:"description"`
	Category        string         `db:"category" json:"category"`
	MemberCount     int            `db:"member_count" json:"memberCount"`
	EventCount      int            `db:"event_count" json:"eventCount"`
	Rating          float64        `db:"rating" json:"rating"`
	AdminUserID     *string        `db:"admin_user_id" json:"adminUserId,omitempty"`
	ApprovalStatus  ApprovalStatus `db:"approval_status" json:"approvalStatus"`
	RejectionReason *string        `db:"rejection_reason" json:"rejectionReason,omitempty"`
	IsActive        bool           `db:"is_active" json:"isActive"`
	CreatedAt       time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time      `db:"updated_at" json:"updatedAt"`
}

// AdministeredBy reports whether userID is the club's admin.
func (c *Club) AdministeredBy(userID string) bool {
	return c != nil && c.AdminUserID != nil && *c.AdminUserID == userID
}

// CreateClubRequest is the payload for POST /clubs.
type CreateClubRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=255"`
	ShortName   string `json:"shortName" validate:"required,min=2,max=50"`
	Description string `json:"description" validate:"max=2000"`
	Category    string `json:"category" validate:"max=100"`
}

// UpdateClubRequest is the payload for PUT /clubs/:id; nil fields are left unchanged.
type UpdateClubRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=2,max=255"`
	ShortName   *string `json:"shortName" validate:"omitempty,min=2,max=50"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	Category    *string `json:"category" validate:"omitempty,max=100"`
}

// RejectRequest carries a free text reason for a rejection decision.
type RejectRequest struct {
	Reason string `json:"reason"`
}
