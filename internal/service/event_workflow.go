package service

import (
	"time"

	"github.com/noah-isme/event-idea-marketplace/internal/models"
)

const (
	// viewOnlyWindow is how long after the idea deadline an event stays visible but closed.
	viewOnlyWindow = time.Hour
	// topicGracePeriod keeps topics listed for a day past their deadline.
	topicGracePeriod = 24 * time.Hour
)

var eventTransitions = map[models.EventStatus][]models.EventStatus{
	models.EventDraft:              {models.EventPendingApproval, models.EventCancelled},
	models.EventRejected:           {models.EventPendingApproval, models.EventCancelled},
	models.EventPendingApproval:    {models.EventApproved, models.EventRejected, models.EventCancelled},
	models.EventApproved:           {models.EventPublished, models.EventCancelled},
	models.EventPublished:          {models.EventRegistrationClosed, models.EventOngoing, models.EventCancelled},
	models.EventRegistrationClosed: {models.EventOngoing, models.EventCancelled},
	models.EventOngoing:            {models.EventCompleted, models.EventCancelled},
}

// canTransition reports whether an event may move from one status to another.
// Drafts can be published directly, but only by a super admin.
func canTransition(from, to models.EventStatus, superAdmin bool) bool {
	if from == models.EventDraft && to == models.EventPublished {
		return superAdmin
	}
	for _, next := range eventTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// submissionState classifies an event's idea intake at now.
func submissionState(event *models.Event, now time.Time) models.SubmissionState {
	if !event.AcceptsIdeas {
		return models.SubmissionClosed
	}
	deadline := event.IdeaSubmissionDeadline
	if deadline == nil || now.Before(*deadline) {
		return models.SubmissionOpen
	}
	if now.Sub(*deadline) <= viewOnlyWindow {
		return models.SubmissionViewOnly
	}
	return models.SubmissionExpired
}

// acceptingIdeas reports whether a new idea may be attached to event at now.
func acceptingIdeas(event *models.Event, now time.Time) bool {
	return event.IsActive && event.Status == models.EventPublished && submissionState(event, now) == models.SubmissionOpen
}
