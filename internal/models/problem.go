package models

import "time"

type ProblemStatus string

const (
	ProblemOpen         ProblemStatus = "OPEN"
	ProblemReviewing    ProblemStatus = "REVIEWING"
	ProblemImplementing ProblemStatus = "IMPLEMENTING"
	ProblemCompleted    ProblemStatus = "COMPLETED"
	ProblemClosed       ProblemStatus = "CLOSED"
)

// Problem is a challenge a club posts for students to solve.
type Problem struct {
	ID                   string        `db:"id" json:"id"`
	Title                string        `db:"title" json:"title"`
	Description          string        `db:"description" json:"description"`
	Requirements         string        `db:"requirements" json:"requirements"`
	Category             string        `db:"category" json:"category"`
	Deadline             *time.Time    `db:"deadline" json:"deadline,omitempty"`
	BudgetRange          string        `db:"budget_range" json:"budgetRange"`
	ExpectedParticipants int           `db:"expected_participants" json:"expectedParticipants"`
	Status               ProblemStatus `db:"status" json:"status"`
	ClubID               string        `db:"club_id" json:"clubId"`
	PostedBy             string        `db:"posted_by" json:"postedBy"`
	ViewCount            int           `db:"view_count" json:"viewCount"`
	IdeaCount            int           `db:"idea_count" json:"ideaCount"`
	CreatedAt            time.Time     `db:"created_at" json:"createdAt"`
	UpdatedAt            time.Time     `db:"updated_at" json:"updatedAt"`
}

// Expired reports whether the deadline is behind now.
func (p Problem) Expired(now time.Time) bool {
	return p.Deadline != nil && p.Deadline.Before(now)
}

// ProblemFilter narrows problem listings.
type ProblemFilter struct {
	ClubID   string
	Category string
	Search   string
	Now      time.Time
	Page     int
	PageSize int
}

// ProblemRequest creates or replaces a problem.
type ProblemRequest struct {
	Title                string         `json:"title" validate:"required,min=3,max=255"`
	Description          string         `json:"description" validate:"required,max=5000"`
	Requirements         string         `json:"requirements" validate:"max=5000"`
	Category             string         `json:"category" validate:"max=100"`
	Deadline             *time.Time     `json:"deadline"`
	BudgetRange          string         `json:"budgetRange" validate:"max=100"`
	ExpectedParticipants int            `json:"expectedParticipants" validate:"gte=0"`
	ClubID               string         `json:"clubId" validate:"required"`
	Status               *ProblemStatus `json:"status" validate:"omitempty,oneof=OPEN REVIEWING IMPLEMENTING COMPLETED CLOSED"`
}
