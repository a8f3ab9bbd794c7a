package models

import "time"

// SuperAdminRequest is an application for super admin access.
type SuperAdminRequest struct {
	ID              string         `db:"id" json:"id"`
	Name            string         `db:"name" json:"name"`
	Email           string         `db:"email" json:"email"`
	PasswordHash    string         `db:"password_hash" json:"-"`
	Status          ApprovalStatus `db:"status" json:"status"`
	RequestedAt     time.Time      `db:"requested_at" json:"requestedAt"`
	ApprovedAt      *time.Time     `db:"approved_at" json:"approvedAt,omitempty"`
	ApprovedBy      *string        `db:"approved_by" json:"approvedBy,omitempty"`
	RejectionReason *string        `db:"rejection_reason" json:"rejectionReason,omitempty"`
}

// CreateSuperAdminRequest is the public application form.
type CreateSuperAdminRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=255"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}
