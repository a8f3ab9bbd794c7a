package models

import "time"

type NotificationType string

const (
	NotificationNewIdea           NotificationType = "NEW_IDEA"
	NotificationIdeaVoted         NotificationType = "IDEA_VOTED"
	NotificationIdeaCommented     NotificationType = "IDEA_COMMENTED"
	NotificationIdeaStatusChanged NotificationType = "IDEA_STATUS_CHANGED"
	NotificationProblemUpdated    NotificationType = "PROBLEM_UPDATED"
	NotificationClubAnnouncement  NotificationType = "CLUB_ANNOUNCEMENT"
	NotificationEventAnnouncement NotificationType = "EVENT_ANNOUNCEMENT"
	NotificationAchievement       NotificationType = "ACHIEVEMENT"
	NotificationSystem            NotificationType = "SYSTEM"
)

// Notification is an inbox entry for one user.
type Notification struct {
	ID                string           `db:"id" json:"id"`
	UserID            string           `db:"user_id" json:"userId"`
	Title             string           `db:"title" json:"title"`
	Message           string           `db:"message" json:"message"`
	Type              NotificationType `db:"type" json:"type"`
	RelatedEntityID   *string          `db:"related_entity_id" json:"relatedEntityId,omitempty"`
	RelatedEntityType *string          `db:"related_entity_type" json:"relatedEntityType,omitempty"`
	IsRead            bool             `db:"is_read" json:"isRead"`
	ReadAt            *time.Time       `db:"read_at" json:"readAt,omitempty"`
	CreatedAt         time.Time        `db:"created_at" json:"createdAt"`
}

// NotificationMessage is what services hand to the notifier.
type NotificationMessage struct {
	UserID            string
	Title             string
	Message           string
	Type              NotificationType
	RelatedEntityID   string
	RelatedEntityType string
}
