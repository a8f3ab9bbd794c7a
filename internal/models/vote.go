package models

import "time"

// VoteType is the direction of a vote.
type VoteType string

const (
	VoteUp   VoteType = "UP"
	VoteDown VoteType = "DOWN"
)

// Valid reports whether v is UP or DOWN.
func (v VoteType) Valid() bool { return v == VoteUp || v == VoteDown }

// VoteResult names what a cast did to the caller's vote.
type VoteResult string

const (
	VoteAdded   VoteResult = "ADDED"
	VoteRemoved VoteResult = "REMOVED"
	VoteChanged VoteResult = "CHANGED"
)

// Vote is a single user's vote on an idea.
type Vote struct {
	ID        string    `db:"id" json:"id"`
	IdeaID    string    `db:"idea_id" json:"ideaId"`
	UserID    string    `db:"user_id" json:"userId"`
	VoteType  VoteType  `db:"vote_type" json:"voteType"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// CastVoteRequest is the body of POST /votes/idea/:ideaId.
type CastVoteRequest struct {
	VoteType VoteType `json:"voteType" validate:"required,oneof=UP DOWN"`
}

// VoteStats is the tally for one idea.
type VoteStats struct {
	IdeaID     string `db:"idea_id" json:"ideaId"`
	Upvotes    int    `db:"upvotes" json:"upvotes"`
	Downvotes  int    `db:"downvotes" json:"downvotes"`
	TotalVotes int    `db:"total_votes" json:"totalVotes"`
	NetScore   int    `db:"net_score" json:"netScore"`
}

// VoteOutcome is returned from a cast.
type VoteOutcome struct {
	Result VoteResult `json:"result"`
	Vote   *Vote      `json:"vote,omitempty"`
	Stats  VoteStats  `json:"stats"`
}
