package models

import "time"

type RegistrationStatus string

const (
	RegistrationRegistered RegistrationStatus = "REGISTERED"
	RegistrationWaitlisted RegistrationStatus = "WAITLISTED"
	RegistrationAttended   RegistrationStatus = "ATTENDED"
	RegistrationNoShow     RegistrationStatus = "NO_SHOW"
	RegistrationCancelled  RegistrationStatus = "CANCELLED"
)

// HoldsSeat reports whether the registration counts toward currentParticipants.
func (s RegistrationStatus) HoldsSeat() bool {
	return s == RegistrationRegistered || s == RegistrationAttended || s == RegistrationNoShow
}

// IsAttendance reports whether s only records attendance on a held seat.
func (s RegistrationStatus) IsAttendance() bool {
	return s == RegistrationAttended || s == RegistrationNoShow
}

type PaymentStatus string

const (
	PaymentNotRequired PaymentStatus = "NOT_REQUIRED"
	PaymentPending     PaymentStatus = "PENDING"
	PaymentPaid        PaymentStatus = "PAID"
	PaymentRefunded    PaymentStatus = "REFUNDED"
)

// EventRegistration is a user's seat (or waitlist spot) at an event.
type EventRegistration struct {
	ID               string             `db:"id" json:"id"`
	EventID          string             `db:"event_id" json:"eventId"`
	UserID           string             `db:"user_id" json:"userId"`
	UserName         string             `db:"user_name" json:"userName"`
	Status           RegistrationStatus `db:"status" json:"status"`
	PaymentStatus    PaymentStatus      `db:"payment_status" json:"paymentStatus"`
	Notes            string             `db:"notes" json:"notes"`
	RegistrationDate time.Time          `db:"registration_date" json:"registrationDate"`
	UpdatedAt        time.Time          `db:"updated_at" json:"updatedAt"`
}

// RegisterEventRequest signs the caller up for an event.
type RegisterEventRequest struct {
	EventID string `json:"eventId" validate:"required"`
	Notes   string `json:"notes" validate:"max=1000"`
}

// RegistrationStatusRequest updates attendance or payment. Seat changes go through
// register and cancel.
type RegistrationStatusRequest struct {
	Status        *RegistrationStatus `json:"status" validate:"omitempty,oneof=ATTENDED NO_SHOW"`
	PaymentStatus *PaymentStatus      `json:"paymentStatus" validate:"omitempty,oneof=NOT_REQUIRED PENDING PAID REFUNDED"`
}

// RegistrationCount summarises seats taken at an event.
type RegistrationCount struct {
	EventID    string `db:"event_id" json:"eventId"`
	Registered int    `db:"registered" json:"registered"`
	Waitlisted int    `db:"waitlisted" json:"waitlisted"`
	Attended   int    `db:"attended" json:"attended"`
}
