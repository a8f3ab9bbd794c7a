package models

import "time"

// EventType classifies events.
type EventType string

const (
	EventWorkshop    EventType = "WORKSHOP"
	EventSeminar     EventType = "SEMINAR"
	EventCompetition EventType = "COMPETITION"
	EventHackathon   EventType = "HACKATHON"
	EventConference  EventType = "CONFERENCE"
	EventNetworking  EventType = "NETWORKING"
	EventSocial      EventType = "SOCIAL"
	EventSports      EventType = "SPORTS"
	EventCultural    EventType = "CULTURAL"
	EventTechnical   EventType = "TECHNICAL"
	EventOther       EventType = "OTHER"
)

// EventStatus is a stage of the proposal lifecycle.
type EventStatus string

const (
	EventDraft              EventStatus = "DRAFT"
	EventPendingApproval    EventStatus = "PENDING_APPROVAL"
	EventApproved           EventStatus = "APPROVED"
	EventRejected           EventStatus = "REJECTED"
	EventPublished          EventStatus = "PUBLISHED"
	EventRegistrationClosed EventStatus = "REGISTRATION_CLOSED"
	EventOngoing            EventStatus = "ONGOING"
	EventCompleted          EventStatus = "COMPLETED"
	EventCancelled          EventStatus = "CANCELLED"
)

// Terminal reports whether no further transitions are possible.
func (s EventStatus) Terminal() bool {
	return s == EventCompleted || s == EventCancelled
}

// SubmissionState describes whether an event still takes ideas.
type SubmissionState string

const (
	SubmissionOpen     SubmissionState = "OPEN"
	SubmissionViewOnly SubmissionState = "VIEW_ONLY"
	SubmissionExpired  SubmissionState = "EXPIRED"
	SubmissionClosed   SubmissionState = "CLOSED"
)

// Event is a club proposal or topic that collects ideas, and later an actual event.
type Event struct {
	ID                     string      `db:"id" json:"id"`
	Title                  string      `db:"title" json:"title"`
	Description            string      `db:"description" json:"description"`
	Type                   EventType   `db:"type" json:"type"`
	Status                 EventStatus `db:"status" json:"status"`
	ClubID                 string      `db:"club_id" json:"clubId"`
	OrganizerID            string      `db:"organizer_id" json:"organizerId"`
	HallID                 *string     `db:"hall_id" json:"hallId,omitempty"`
	StartDate              *time.Time  `db:"start_date" json:"startDate,omitempty"`
	EndDate                *time.Time  `db:"end_date" json:"endDate,omitempty"`
	RegistrationDeadline   *time.Time  `db:"registration_deadline" json:"registrationDeadline,omitempty"`
	IdeaSubmissionDeadline *time.Time  `db:"idea_submission_deadline" json:"ideaSubmissionDeadline,omitempty"`
	AcceptsIdeas           bool        `db:"accepts_ideas" json:"acceptsIdeas"`
	Location               *string     `db:"location" json:"location,omitempty"`
	MaxParticipants        int         `db:"max_participants" json:"maxParticipants"`
	CurrentParticipants    int         `db:"current_participants" json:"currentParticipants"`
	RegistrationFee        float64     `db:"registration_fee" json:"registrationFee"`
	Tags                   string      `db:"tags" json:"tags"`
	ImageURL               *string     `db:"image_url" json:"imageUrl,omitempty"`
	ExternalLink           *string     `db:"external_link" json:"externalLink,omitempty"`
	RejectionReason        *string     `db:"rejection_reason" json:"rejectionReason,omitempty"`
	ApprovedBy             *string     `db:"approved_by" json:"approvedBy,omitempty"`
	ApprovedAt             *time.Time  `db:"approved_at" json:"approvedAt,omitempty"`
	IsActive               bool        `db:"is_active" json:"isActive"`
	CreatedAt              time.Time   `db:"created_at" json:"createdAt"`
	UpdatedAt              time.Time   `db:"updated_at" json:"updatedAt"`
}

// EventFilter narrows event listings.
type EventFilter struct {
	ClubID    string
	Statuses  []EventStatus
	Keyword   string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// EventRequest is the body for creating or updating an event.
type EventRequest struct {
	Title                  string     `json:"title" validate:"required,min=3,max=255"`
	Description            string     `json:"description" validate:"max=5000"`
	Type                   EventType  `json:"type" validate:"omitempty,oneof=WORKSHOP SEMINAR COMPETITION HACKATHON CONFERENCE NETWORKING SOCIAL SPORTS CULTURAL TECHNICAL OTHER"`
	ClubID                 string     `json:"clubId" validate:"required"`
	StartDate              *time.Time `json:"startDate"`
	EndDate                *time.Time `json:"endDate"`
	RegistrationDeadline   *time.Time `json:"registrationDeadline"`
	IdeaSubmissionDeadline *time.Time `json:"ideaSubmissionDeadline"`
	AcceptsIdeas           *bool      `json:"acceptsIdeas"`
	Location               *string    `json:"location" validate:"omitempty,max=255"`
	MaxParticipants        int        `json:"maxParticipants" validate:"gte=0"`
	RegistrationFee        float64    `json:"registrationFee" validate:"gte=0"`
	Tags                   string     `json:"tags" validate:"max=500"`
	ImageURL               *string    `json:"imageUrl" validate:"omitempty,max=512"`
	ExternalLink           *string    `json:"externalLink" validate:"omitempty,max=512"`
}

// SubmitForApprovalRequest sends a draft or rejected event to review.
type SubmitForApprovalRequest struct {
	EventID string  `json:"eventId" validate:"required"`
	HallID  *string `json:"hallId"`
}

// RejectEventRequest carries the mandatory reason for rejecting a proposal.
type RejectEventRequest struct {
	RejectionReason string `json:"rejectionReason"`
}

// ApproveProposalRequest finalises a proposal into a published event.
type ApproveProposalRequest struct {
	Title           string     `json:"title" validate:"required,min=3,max=255"`
	Type            EventType  `json:"type" validate:"required,oneof=WORKSHOP SEMINAR COMPETITION HACKATHON CONFERENCE NETWORKING SOCIAL SPORTS CULTURAL TECHNICAL OTHER"`
	StartDate       *time.Time `json:"startDate" validate:"required"`
	EndDate         *time.Time `json:"endDate" validate:"required"`
	Location        string     `json:"location" validate:"required,max=255"`
	MaxParticipants int        `json:"maxParticipants" validate:"gt=0"`
	RegistrationFee float64    `json:"registrationFee" validate:"gte=0"`
	Description     string     `json:"description" validate:"max=5000"`
}

// SubmissionStateResponse answers GET /events/:id/submission-state.
type SubmissionStateResponse struct {
	EventID  string          `json:"eventId"`
	State    SubmissionState `json:"state"`
	Deadline *time.Time      `json:"deadline,omitempty"`
}

// EventStatusRequest moves a published event through its later lifecycle stages.
type EventStatusRequest struct {
	Status EventStatus `json:"status" validate:"required,oneof=REGISTRATION_CLOSED ONGOING COMPLETED CANCELLED"`
}
