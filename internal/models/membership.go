package models

import "time"

type MembershipRole string

const (
	MembershipMember    MembershipRole = "MEMBER"
	MembershipModerator MembershipRole = "MODERATOR"
	MembershipAdmin     MembershipRole = "ADMIN"
	MembershipOwner     MembershipRole = "OWNER"
)

type MembershipStatus string

const (
	MembershipActive    MembershipStatus = "ACTIVE"
	MembershipInactive  MembershipStatus = "INACTIVE"
	MembershipSuspended MembershipStatus = "SUSPENDED"
	MembershipBanned    MembershipStatus = "BANNED"
)

// ClubMembership links a user to a club.
type ClubMembership struct {
	ID        string           `db:"id" json:"id"`
	ClubID    string           `db:"club_id" json:"clubId"`
	UserID    string           `db:"user_id" json:"userId"`
	UserName  string           `db:"user_name" json:"userName,omitempty"`
	Role      MembershipRole   `db:"role" json:"role"`
	Status    MembershipStatus `db:"status" json:"status"`
	JoinedAt  time.Time        `db:"joined_at" json:"joinedAt"`
	LeftAt    *time.Time       `db:"left_at" json:"leftAt,omitempty"`
	CreatedAt time.Time        `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time        `db:"updated_at" json:"updatedAt"`
}

// UpdateMembershipRoleRequest changes a member's role.
type UpdateMembershipRoleRequest struct {
	Role MembershipRole `json:"role" validate:"required,oneof=MEMBER MODERATOR ADMIN OWNER"`
}
