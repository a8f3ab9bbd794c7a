package models

import "time"

// IdeaStatus tracks review progress of an idea.
type IdeaStatus string

const (
	IdeaSubmitted    IdeaStatus = "SUBMITTED"
	IdeaUnderReview  IdeaStatus = "UNDER_REVIEW"
	IdeaApproved     IdeaStatus = "APPROVED"
	IdeaImplementing IdeaStatus = "IMPLEMENTING"
	IdeaCompleted    IdeaStatus = "COMPLETED"
	IdeaRejected     IdeaStatus = "REJECTED"
)

// MaxIdeasPerEvent caps active submissions per user per event.
const MaxIdeasPerEvent = 2

// Idea is a student's proposal against an event or a problem.
type Idea struct {
	ID                 string     `db:"id" json:"id"`
	Title              string     `db:"title" json:"title"`
	Description        string     `db:"description" json:"description"`
	ExpectedOutcome    string     `db:"expected_outcome" json:"expectedOutcome"`
	ImplementationPlan string     `db:"implementation_plan" json:"implementationPlan"`
	Resources          string     `db:"resources" json:"resources"`
	EstimatedCost      float64    `db:"estimated_cost" json:"estimatedCost"`
	EstimatedDuration  string     `db:"estimated_duration" json:"estimatedDuration"`
	Status             IdeaStatus `db:"status" json:"status"`
	EventID            *string    `db:"event_id" json:"eventId,omitempty"`
	ProblemID          *string    `db:"problem_id" json:"problemId,omitempty"`
	StudentID          string     `db:"submitted_by" json:"studentId"`
	StudentName        string     `db:"student_name" json:"studentName"`
	StudentEmail       string     `db:"student_email" json:"studentEmail"`
	Upvotes            int        `db:"upvotes" json:"upvotes"`
	Downvotes          int        `db:"downvotes" json:"downvotes"`
	VoteCount          int        `db:"vote_count" json:"voteCount"`
	CommentCount       int        `db:"comment_count" json:"commentCount"`
	IsFeatured         bool       `db:"is_featured" json:"isFeatured"`
	IsActive           bool       `db:"is_active" json:"isActive"`
	CreatedAt          time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt          time.Time  `db:"updated_at" json:"updatedAt"`
}

// NetScore is upvotes minus downvotes.
func (i Idea) NetScore() int { return i.Upvotes - i.Downvotes }

// IdeaFilter narrows idea listings.
type IdeaFilter struct {
	EventID   string
	ProblemID string
	StudentID string
	Status    IdeaStatus
	Featured  *bool
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// IdeaRequest creates or edits an idea. Exactly one of EventID and ProblemID is required on create.
type IdeaRequest struct {
	Title              string  `json:"title" validate:"required,min=3,max=255"`
	Description        string  `json:"description" validate:"required,min=10,max=5000"`
	ExpectedOutcome    string  `json:"expectedOutcome" validate:"max=2000"`
	ImplementationPlan string  `json:"implementationPlan" validate:"max=5000"`
	Resources          string  `json:"resources" validate:"max=2000"`
	EstimatedCost      float64 `json:"estimatedCost" validate:"gte=0"`
	EstimatedDuration  string  `json:"estimatedDuration" validate:"max=100"`
	EventID            *string `json:"eventId"`
	ProblemID          *string `json:"problemId"`
}

// IdeaStatusRequest changes an idea's review status.
type IdeaStatusRequest struct {
	Status IdeaStatus `json:"status" validate:"required,oneof=SUBMITTED UNDER_REVIEW APPROVED IMPLEMENTING COMPLETED REJECTED"`
}

// IdeaSubmissionStatus answers how many more ideas a user may post to an event.
type IdeaSubmissionStatus struct {
	EventID        string `json:"eventId"`
	SubmittedCount int    `json:"submittedCount"`
	Remaining      int    `json:"remaining"`
	MaxAllowed     int    `json:"maxAllowed"`
	CanSubmit      bool   `json:"canSubmit"`
}
