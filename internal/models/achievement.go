package models

import "time"

type AchievementType string

const (
	AchievementFirstIdea        AchievementType = "FIRST_IDEA"
	AchievementIdeaMaster       AchievementType = "IDEA_MASTER"
	AchievementPopularIdea      AchievementType = "POPULAR_IDEA"
	AchievementHelpfulVoter     AchievementType = "HELPFUL_VOTER"
	AchievementEngagedCommenter AchievementType = "ENGAGED_COMMENTER"
	AchievementProblemSolver    AchievementType = "PROBLEM_SOLVER"
)

// Achievement is one earned (type, level) badge.
type Achievement struct {
	ID          string          `db:"id" json:"id"`
	UserID      string          `db:"user_id" json:"userId"`
	Type        AchievementType `db:"type" json:"type"`
	Level       int             `db:"level" json:"level"`
	Title       string          `db:"title" json:"title"`
	Description string          `db:"description" json:"description"`
	Points      int             `db:"points" json:"points"`
	EarnedAt    time.Time       `db:"earned_at" json:"earnedAt"`
}

// UserActivity holds the counters achievement rules are evaluated against.
type UserActivity struct {
	IdeasSubmitted   int `db:"ideas_submitted"`
	MaxIdeaUpvotes   int `db:"max_idea_upvotes"`
	VotesCast        int `db:"votes_cast"`
	CommentsPosted   int `db:"comments_posted"`
	IdeasImplemented int `db:"ideas_implemented"`
}

// AchievementPoints is the caller's score summary.
type AchievementPoints struct {
	UserID       string `json:"userId"`
	TotalPoints  int    `json:"totalPoints"`
	Achievements int    `json:"achievements"`
}
